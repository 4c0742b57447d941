// Package api serves track details over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ytget/ytdetails/errs"
	"github.com/ytget/ytdetails/internal/logger"
	"github.com/ytget/ytdetails/types"
	"github.com/ytget/ytdetails/youtube/formats"
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Loader loads track details; *trackdetails.Loader implements it.
type Loader interface {
	LoadDetails(ctx context.Context, videoID string, requireFormats bool) (*types.TrackDetails, error)
}

// Config configures the router. Zero values use defaults.
type Config struct {
	// RequestsPerMinute limits /v1 per client IP; zero disables limiting.
	RequestsPerMinute int
	// Ready reports whether dependencies such as Redis are reachable.
	Ready func(ctx context.Context) error
}

type server struct {
	loader Loader
	cfg    Config
	log    *logger.ComponentLogger
}

type errorBody struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

type trackBody struct {
	Track    *types.TrackDetails `json:"track"`
	Selected *types.Format       `json:"selected,omitempty"`
}

// NewRouter returns the HTTP API:
//
//	GET /v1/tracks/{videoID}?formats=true&select=audio&ext=webm
//	GET /healthz
//	GET /readyz
//	GET /metrics
func NewRouter(loader Loader, cfg Config) http.Handler {
	s := &server{loader: loader, cfg: cfg, log: logger.WithComponent(logger.ComponentAPI)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(AccessLog(s.log))

	r.Get("/healthz", s.health)
	r.Get("/readyz", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "ytdetails.api")
		})
		if cfg.RequestsPerMinute > 0 {
			r.Use(RateLimit(cfg.RequestsPerMinute, time.Minute))
		}
		r.Get("/tracks/{videoID}", s.track)
	})
	return r
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) ready(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil {
		if err := s.cfg.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "not_ready", Message: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *server) track(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if !videoIDRe.MatchString(videoID) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_video_id", Message: "Video ID may only contain letters, digits, '-' and '_'."})
		return
	}

	q := r.URL.Query()
	requireFormats := false
	if raw := q.Get("formats"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_parameter", Message: "formats must be a boolean."})
			return
		}
		requireFormats = v
	}

	details, err := s.loader.LoadDetails(r.Context(), videoID, requireFormats)
	switch {
	case err == nil && details == nil:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "Video does not exist."})
		return
	case err != nil:
		s.writeLoadError(w, r, videoID, err)
		return
	}

	body := trackBody{Track: details}
	if sel := q.Get("select"); sel != "" || q.Get("ext") != "" {
		body.Selected = formats.SelectFormat(details.Formats(), sel, q.Get("ext"))
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) writeLoadError(w http.ResponseWriter, r *http.Request, videoID string, err error) {
	code := "upstream_error"
	severity := errs.SeverityOf(err)
	if e, ok := errs.As(err); ok {
		code = e.Code
	}

	if errs.IsUserFacing(err) {
		e, _ := errs.As(err)
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: code, Message: e.Message, Severity: severity.String()})
		return
	}

	s.log.Error("Track details failed", map[string]any{
		"video_id":   videoID,
		"request_id": RequestIDFromContext(r.Context()),
		"error":      err.Error(),
	})
	writeJSON(w, http.StatusBadGateway, errorBody{Error: code, Message: "Failed to load track details.", Severity: severity.String()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

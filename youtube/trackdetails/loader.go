// Package trackdetails loads the details of a single video: the player
// response, checked for playability, plus the URL of the player script needed
// to resolve its streams.
package trackdetails

import (
	"context"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ytget/ytdetails/errs"
	"github.com/ytget/ytdetails/internal/logger"
	"github.com/ytget/ytdetails/internal/metrics"
	"github.com/ytget/ytdetails/types"
	"github.com/ytget/ytdetails/youtube/cipher"
	"github.com/ytget/ytdetails/youtube/playability"
	"github.com/ytget/ytdetails/youtube/playerscript"
)

const tracerName = "github.com/ytget/ytdetails/youtube/trackdetails"

const extractionMessage = "Error when extracting data"

// API is the platform surface the loader needs. *innertube.Client implements it.
type API interface {
	Player(ctx context.Context, videoID, signatureTimestamp string) (gjson.Result, error)
	VerifyAge(ctx context.Context, videoID string) (gjson.Result, error)
	WatchPage(ctx context.Context, videoID string) (gjson.Result, error)
	FetchPage(ctx context.Context, rawURL string) ([]byte, error)
}

// Loader resolves track details. It is safe for concurrent use; the player
// script cache is the only state shared between calls.
type Loader struct {
	api      API
	resolver cipher.Resolver
	cache    *playerscript.Cache
	now      func() int64
	tracer   trace.Tracer
	log      *logger.ComponentLogger
}

// New creates a loader talking to api. The resolver defaults to a
// cipher.ScriptResolver downloading through api, the cache to a fresh one.
func New(api API) *Loader {
	return &Loader{
		api:      api,
		resolver: cipher.NewScriptResolver(api),
		cache:    playerscript.NewCache(),
		now:      func() int64 { return time.Now().UnixMilli() },
		tracer:   otel.Tracer(tracerName),
		log:      logger.WithComponent(logger.ComponentLoader),
	}
}

// WithResolver replaces the cipher resolver.
func (l *Loader) WithResolver(r cipher.Resolver) *Loader {
	if r != nil {
		l.resolver = r
	}
	return l
}

// WithCache replaces the player script cache, e.g. to share it between loaders.
func (l *Loader) WithCache(c *playerscript.Cache) *Loader {
	if c != nil {
		l.cache = c
	}
	return l
}

// WithClock sets the millisecond clock used for cache freshness.
func (l *Loader) WithClock(now func() int64) *Loader {
	if now != nil {
		l.now = now
	}
	return l
}

// WithTracer sets the tracer for loader spans.
func (l *Loader) WithTracer(t trace.Tracer) *Loader {
	if t != nil {
		l.tracer = t
	}
	return l
}

// Cache returns the player script cache in use.
func (l *Loader) Cache() *playerscript.Cache {
	return l.cache
}

// LoadDetails loads the details of videoID. A nil result with a nil error
// means the video does not exist. With requireFormats the result always
// carries a player script URL.
func (l *Loader) LoadDetails(ctx context.Context, videoID string, requireFormats bool) (*types.TrackDetails, error) {
	ctx, span := l.tracer.Start(ctx, "trackdetails.LoadDetails", trace.WithAttributes(
		attribute.String("video.id", videoID),
		attribute.Bool("require_formats", requireFormats),
	))
	defer span.End()

	start := time.Now()
	details, err := l.load(ctx, videoID, requireFormats)
	outcome := loadOutcome(details, err)
	metrics.RecordLoad(outcome, time.Since(start))
	span.SetAttributes(attribute.String("outcome", outcome))

	fields := map[string]any{
		"video_id":    videoID,
		"outcome":     outcome,
		"duration_ms": logger.Since(start),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields["error"] = err.Error()
		fields["severity"] = errs.SeverityOf(err).String()
		l.log.Warn("Track details load failed", fields)
		return nil, err
	}
	l.log.Debug("Track details loaded", fields)
	return details, nil
}

func (l *Loader) load(ctx context.Context, videoID string, requireFormats bool) (*types.TrackDetails, error) {
	mainInfo, err := l.loadTrackInfo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	details, err := l.extract(ctx, videoID, mainInfo, requireFormats)
	if err != nil {
		if errs.IsUserFacing(err) {
			return nil, err
		}
		return nil, errs.Wrap(err, errs.CodeExtraction, errs.SeverityFault, extractionMessage, mainInfo.Raw)
	}
	return details, nil
}

// loadTrackInfo posts the player request with the timestamp of the current
// player script.
func (l *Loader) loadTrackInfo(ctx context.Context, videoID string) (gjson.Result, error) {
	script, err := l.playerScript(ctx)
	if err != nil {
		return gjson.Result{}, err
	}
	info, err := l.resolver.Resolve(ctx, script.URL)
	if err != nil {
		return gjson.Result{}, err
	}
	return l.api.Player(ctx, videoID, info.Timestamp)
}

func (l *Loader) extract(ctx context.Context, videoID string, mainInfo gjson.Result, requireFormats bool) (*types.TrackDetails, error) {
	data, found, err := l.loadBaseResponse(ctx, videoID, mainInfo)
	if err != nil || !found {
		return nil, err
	}
	data, err = l.augmentWithPlayerScript(ctx, data, requireFormats)
	if err != nil {
		return nil, err
	}
	return &types.TrackDetails{
		VideoID:         videoID,
		PlayerResponse:  data.PlayerResponse,
		PlayerScriptURL: data.PlayerScriptURL,
	}, nil
}

// loadBaseResponse classifies the main result and, when the platform asks for
// a content check, replaces it with the verified watch page. found is false
// for videos that do not exist.
func (l *Loader) loadBaseResponse(ctx context.Context, videoID string, mainInfo gjson.Result) (data jsonData, found bool, err error) {
	data, err = fromMainResult(mainInfo)
	if err != nil {
		return jsonData{}, false, err
	}

	status := l.classify(videoID, data.PlayerResponse)
	if status.Outcome == playability.ContentCheckRequired {
		data, err = l.verifyContent(ctx, videoID)
		if err != nil {
			return jsonData{}, false, err
		}
		// The verified page is taken as is; only a repeated check is refused.
		if l.classify(videoID, data.PlayerResponse).Outcome == playability.ContentCheckRequired {
			return jsonData{}, false, errs.New(errs.CodeContentVerification, errs.SeverityFault, verificationMessage, data.PlayerResponse.Raw)
		}
		return data, true, nil
	}

	switch status.Outcome {
	case playability.DoesNotExist:
		return jsonData{}, false, nil
	case playability.Rejected:
		return jsonData{}, false, status.Err()
	default:
		return data, true, nil
	}
}

func (l *Loader) classify(videoID string, playerResponse gjson.Result) playability.Result {
	status := playability.Classify(playerResponse)
	metrics.RecordPlayability(status.Status)
	l.log.Trace("Playability classified", map[string]any{
		"video_id": videoID,
		"status":   status.Status,
		"outcome":  status.Outcome.String(),
	})
	return status
}

// augmentWithPlayerScript makes sure data carries a script URL when formats
// are required. A URL that came with the document replaces the cached one.
func (l *Loader) augmentWithPlayerScript(ctx context.Context, data jsonData, requireFormats bool) (jsonData, error) {
	if data.PlayerScriptURL != "" {
		l.cache.Store(ctx, playerscript.Snapshot{URL: data.PlayerScriptURL, ObtainedAt: l.now()})
		return data, nil
	}
	if !requireFormats {
		return data, nil
	}
	script, err := l.playerScript(ctx)
	if err != nil {
		return jsonData{}, err
	}
	return data.withPlayerScriptURL(script.URL), nil
}

// playerScript returns the cached script URL, discovering it when stale.
func (l *Loader) playerScript(ctx context.Context) (playerscript.Snapshot, error) {
	if s, ok := l.cache.Lookup(ctx, l.now()); ok {
		return s, nil
	}
	return l.cache.Refresh(ctx, l.api, l.now())
}

func loadOutcome(details *types.TrackDetails, err error) string {
	switch {
	case err == nil && details == nil:
		return "not_found"
	case err == nil:
		return "ok"
	case errs.IsMalformed(err):
		return "malformed"
	case errs.IsUserFacing(err):
		return "rejected"
	default:
		return "error"
	}
}

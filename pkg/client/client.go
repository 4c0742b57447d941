// Package client builds the outbound HTTP client used to talk to the platform.
//
// Requests are paced by a token bucket and traced through otelhttp.
// Failures are never retried here; callers see the first error or status.
package client

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/ytget/ytdetails/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second

	userAgentValue = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
)

// defaultTransport is a tuned HTTP transport reused across clients.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
	// Bodies are decoded by the caller according to Content-Encoding.
	DisableCompression: true,
	ReadBufferSize:     16 * 1024,
	WriteBufferSize:    16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional client parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	ProxyURL  string
	// RequestsPerSecond caps outbound requests; zero disables pacing.
	RequestsPerSecond float64
	// Burst defaults to 1 when pacing is enabled.
	Burst int
}

// Client wraps http.Client with pacing, tracing and a default User-Agent.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	limiter    *rate.Limiter
}

// New creates a new Client with a tuned Transport and default timeout.
func New() *Client {
	return NewWith(Config{})
}

// NewWith creates a new client with provided config. Zero values use defaults.
func NewWith(cfg Config) *Client {
	log := logger.WithComponent(logger.ComponentClient)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	tr := defaultTransport.Clone()
	if cfg.ProxyURL != "" {
		proxyFunc, err := proxyFromURLString(cfg.ProxyURL)
		if err != nil {
			log.Warn("Ignoring invalid proxy URL", map[string]any{"proxy": cfg.ProxyURL, "error": err.Error()})
		} else {
			tr.Proxy = proxyFunc
		}
	}

	c := &Client{UserAgent: ua}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	c.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(
			&pacedTransport{base: tr, limiter: c.limiter, userAgent: ua, log: log},
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
	}
	return c
}

// Do sends req through the paced, traced transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.HTTPClient.Do(req)
}

// Get performs a single GET request bound to ctx.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

type pacedTransport struct {
	base      http.RoundTripper
	limiter   *rate.Limiter
	userAgent string
	log       *logger.ComponentLogger
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if t.log.Enabled(logger.DEBUG) {
		fields := map[string]any{
			"method":      req.Method,
			"url":         req.URL.Redacted(),
			"duration_ms": logger.Since(start),
		}
		if err != nil {
			fields["error"] = err.Error()
		} else {
			fields["status"] = resp.StatusCode
		}
		t.log.Debug("HTTP request", fields)
	}
	return resp, err
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return http.ProxyURL(u), nil
}

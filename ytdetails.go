package ytdetails

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ytget/ytdetails/internal/botguard"
	"github.com/ytget/ytdetails/pkg/client"
	"github.com/ytget/ytdetails/types"
	"github.com/ytget/ytdetails/youtube/cipher"
	"github.com/ytget/ytdetails/youtube/innertube"
	"github.com/ytget/ytdetails/youtube/playerscript"
	"github.com/ytget/ytdetails/youtube/trackdetails"
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// TrackDetails is the result of Load.
type TrackDetails = types.TrackDetails

// Format describes an available media format.
type Format = types.Format

// Options contains the configuration applied when the client is first used.
//
// Use chainable setters on Client to populate these options.
type Options struct {
	HTTPClient        *http.Client
	Timeout           time.Duration
	UserAgent         string
	ProxyURL          string
	RequestsPerSecond float64
	Burst             int
	BaseURL           string
	ITClientName      string
	ITClientVersion   string
}

// Client provides a high-level API for loading track details. Options take
// effect on the first Load; the player script cache lives as long as the Client.
type Client struct {
	options  Options
	resolver cipher.Resolver
	shared   playerscript.SharedStore
	bg       struct {
		solver botguard.Solver
		mode   botguard.Mode
		cache  botguard.Cache
		ttl    time.Duration
	}

	once   sync.Once
	loader *trackdetails.Loader
}

// New creates a new Client with default options.
func New() *Client {
	return &Client{}
}

// WithHTTPClient sets a custom HTTP client to be used for all network calls.
// It replaces the paced, traced default client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.options.HTTPClient = hc
	return c
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.options.Timeout = d
	return c
}

// WithUserAgent sets the browser User-Agent sent to the platform.
func (c *Client) WithUserAgent(ua string) *Client {
	c.options.UserAgent = strings.TrimSpace(ua)
	return c
}

// WithProxy routes the default HTTP client through proxyURL.
func (c *Client) WithProxy(proxyURL string) *Client {
	c.options.ProxyURL = strings.TrimSpace(proxyURL)
	return c
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func (c *Client) WithRateLimit(requestsPerSecond float64, burst int) *Client {
	if requestsPerSecond < 0 {
		requestsPerSecond = 0
	}
	c.options.RequestsPerSecond = requestsPerSecond
	c.options.Burst = burst
	return c
}

// WithBaseURL points the client at another origin, mainly for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.options.BaseURL = base
	return c
}

// WithInnertubeClient sets the Innertube client name and version to use.
func (c *Client) WithInnertubeClient(name, version string) *Client {
	c.options.ITClientName = strings.TrimSpace(name)
	c.options.ITClientVersion = strings.TrimSpace(version)
	return c
}

// WithBotguard configures Botguard attestation usage. A zero ttl keeps the
// attestor default.
func (c *Client) WithBotguard(mode botguard.Mode, solver botguard.Solver, cache botguard.Cache, ttl time.Duration) *Client {
	c.bg.mode = mode
	c.bg.solver = solver
	c.bg.cache = cache
	c.bg.ttl = ttl
	return c
}

// WithResolver replaces the player script resolver.
func (c *Client) WithResolver(r cipher.Resolver) *Client {
	c.resolver = r
	return c
}

// WithSharedScriptStore mirrors the player script URL to store, so that
// several processes share one discovery.
func (c *Client) WithSharedScriptStore(store playerscript.SharedStore) *Client {
	c.shared = store
	return c
}

// Loader returns the underlying loader, building it on first use.
func (c *Client) Loader() *trackdetails.Loader {
	c.once.Do(c.build)
	return c.loader
}

// Load resolves the details of a video given by ID or URL. A nil result
// with a nil error means the video does not exist.
func (c *Client) Load(ctx context.Context, videoOrURL string, requireFormats bool) (*types.TrackDetails, error) {
	videoID, err := ExtractVideoID(videoOrURL)
	if err != nil {
		return nil, fmt.Errorf("extract video id failed: %w", err)
	}
	return c.Loader().LoadDetails(ctx, videoID, requireFormats)
}

func (c *Client) build() {
	hc := c.options.HTTPClient
	if hc == nil {
		hc = client.NewWith(client.Config{
			Timeout:           c.options.Timeout,
			UserAgent:         c.options.UserAgent,
			ProxyURL:          c.options.ProxyURL,
			RequestsPerSecond: c.options.RequestsPerSecond,
			Burst:             c.options.Burst,
		}).HTTPClient
	}

	it := innertube.New(hc).
		WithClient(c.options.ITClientName, c.options.ITClientVersion).
		WithUserAgent(c.options.UserAgent).
		WithBaseURL(c.options.BaseURL)
	if c.bg.mode != botguard.Off && c.bg.solver != nil {
		it.WithBotguard(botguard.NewAttestor(c.bg.solver, c.bg.cache, c.bg.ttl), c.bg.mode)
	}

	cache := playerscript.NewCache()
	if c.shared != nil {
		cache.WithSharedStore(c.shared)
	}
	c.loader = trackdetails.New(it).WithCache(cache).WithResolver(c.resolver)
}

// ExtractVideoID returns the video ID of a watch, shorts, embed, live or
// youtu.be URL. An 11-character ID is returned as is.
func ExtractVideoID(videoURL string) (string, error) {
	s := strings.TrimSpace(videoURL)
	if videoIDRe.MatchString(s) {
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	case "youtube.com", "music.youtube.com":
		switch {
		case strings.HasPrefix(u.Path, "/watch"):
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/live/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 {
				id = parts[1]
			}
		}
	}
	if id == "" {
		return "", fmt.Errorf("invalid youtube url")
	}
	return id, nil
}

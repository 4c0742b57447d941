package innertube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/internal/botguard"
	"github.com/ytget/ytdetails/internal/logger"
	"github.com/ytget/ytdetails/internal/metrics"
)

// DefaultBaseURL is the origin every platform URL is rooted at.
const DefaultBaseURL = "https://www.youtube.com"

const (
	playerPath    = "/youtubei/v1/player?prettyPrint=false"
	verifyAgePath = "/youtubei/v1/verify_age?prettyPrint=false"
	watchPath     = "/watch?v="
	pbjSuffix     = "&pbj=1&hl=en"

	userAgentValue        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
	headerContentTypeJSON = "application/json"
	clientNameWEB         = "WEB"
	defaultClientVersion  = "2.20250312.04.00"
	languageEN            = "en"
)

// Endpoint labels used in logs and metrics.
const (
	EndpointPlayer    = "player"
	EndpointVerifyAge = "verify_age"
	EndpointWatch     = "watch"
	EndpointPage      = "page"
)

// clientCodeFromName returns X-YouTube-Client-Name numeric code for known clients
func clientCodeFromName(name string) string {
	switch strings.ToUpper(name) {
	case "WEB":
		return "1"
	case "MWEB":
		return "2"
	case "ANDROID":
		return "3"
	case "IOS":
		return "5"
	case "TVHTML5":
		return "7"
	case "WEB_EMBEDDED_PLAYER":
		return "56"
	case "WEB_CREATOR":
		return "62"
	case "WEB_REMIX":
		return "67"
	case "TVHTML5_SIMPLY_EMBEDDED_PLAYER":
		return "85"
	default:
		return ""
	}
}

// Client talks to the InnerTube endpoints and the HTML pages around them.
// Every document-returning method yields a validated gjson.Result.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	clientName string
	clientVer  string
	userAgent  string
	bg         struct {
		attestor *botguard.Attestor
		mode     botguard.Mode
	}
	log *logger.ComponentLogger
}

// New creates a new InnerTube client. A nil httpClient gets a 30s timeout.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		HTTPClient: httpClient,
		baseURL:    DefaultBaseURL,
		clientName: clientNameWEB,
		clientVer:  defaultClientVersion,
		userAgent:  userAgentValue,
		log:        logger.WithComponent(logger.ComponentInnerTube),
	}
}

// WithClient overrides the InnerTube client name/version sent with every request.
func (c *Client) WithClient(name, version string) *Client {
	if strings.TrimSpace(name) != "" {
		c.clientName = name
	}
	if strings.TrimSpace(version) != "" {
		c.clientVer = version
	}
	return c
}

// WithUserAgent overrides the browser User-Agent.
func (c *Client) WithUserAgent(ua string) *Client {
	if strings.TrimSpace(ua) != "" {
		c.userAgent = ua
	}
	return c
}

// WithBaseURL points the client at another origin. URLs rooted at
// DefaultBaseURL are rewritten to it as well.
func (c *Client) WithBaseURL(base string) *Client {
	if base = strings.TrimRight(base, "/"); base != "" {
		c.baseURL = base
	}
	return c
}

// WithBotguard attaches an attestation token to every request when mode is Force.
func (c *Client) WithBotguard(attestor *botguard.Attestor, mode botguard.Mode) *Client {
	c.bg.attestor = attestor
	c.bg.mode = mode
	return c
}

// Player posts the player request for videoID. signatureTimestamp is the
// opaque token obtained from the player script; empty omits it.
func (c *Client) Player(ctx context.Context, videoID, signatureTimestamp string) (gjson.Result, error) {
	payload := map[string]any{
		"context":        c.contextPayload(),
		"videoId":        videoID,
		"racyCheckOk":    true,
		"contentCheckOk": true,
	}
	if signatureTimestamp != "" {
		payload["playbackContext"] = map[string]any{
			"contentPlaybackContext": map[string]any{
				"signatureTimestamp": timestampValue(signatureTimestamp),
			},
		}
	}
	return c.postJSON(ctx, EndpointPlayer, playerPath, payload)
}

// VerifyAge posts the content verification request for videoID.
func (c *Client) VerifyAge(ctx context.Context, videoID string) (gjson.Result, error) {
	payload := map[string]any{
		"context": c.contextPayload(),
		"nextEndpoint": map[string]any{
			"urlEndpoint": map[string]any{"url": watchPath + videoID},
		},
		"setControvercy": true,
	}
	return c.postJSON(ctx, EndpointVerifyAge, verifyAgePath, payload)
}

// WatchPage fetches the pbj form of the watch page. videoID is appended
// verbatim, so it may carry extra query parameters.
func (c *Client) WatchPage(ctx context.Context, videoID string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+watchPath+videoID+pbjSuffix, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	c.setAPIHeaders(req)
	body, err := c.do(req, EndpointWatch)
	if err != nil {
		return gjson.Result{}, err
	}
	return ParseDocument(body)
}

// FetchPage GETs an HTML or script page and returns its decoded body.
// Relative URLs and URLs on DefaultBaseURL resolve against the client's base URL.
func (c *Client) FetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(rawURL), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/javascript,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	return c.do(req, EndpointPage)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, payload any) (gjson.Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", headerContentTypeJSON)
	c.setAPIHeaders(req)

	resp, err := c.do(req, endpoint)
	if err != nil {
		return gjson.Result{}, err
	}
	return ParseDocument(resp)
}

func (c *Client) contextPayload() map[string]any {
	return map[string]any{
		"client": map[string]any{
			"clientName":    c.clientName,
			"clientVersion": c.clientVer,
			"hl":            languageEN,
		},
	}
}

func (c *Client) setAPIHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Referer", DefaultBaseURL+"/")
	req.Header.Set("Origin", DefaultBaseURL)
	if code := clientCodeFromName(c.clientName); code != "" {
		req.Header.Set("X-YouTube-Client-Name", code)
	}
	req.Header.Set("X-YouTube-Client-Version", c.clientVer)
}

// do sends req and returns the decoded body of a successful, non-empty response.
// Transport errors are returned unchanged.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	c.applyBotguard(req)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(endpoint, 0, err)
		c.log.Warn("Request failed", map[string]any{"endpoint": endpoint, "error": err.Error()})
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordUpstream(endpoint, resp.StatusCode, nil)

	body, err := readDocument(resp, endpoint)
	c.log.Debug("Response received", map[string]any{
		"endpoint":    endpoint,
		"status":      resp.StatusCode,
		"bytes":       len(body),
		"duration_ms": logger.Since(start),
	})
	return body, err
}

func (c *Client) applyBotguard(req *http.Request) {
	if c.bg.attestor == nil || c.bg.mode != botguard.Force {
		return
	}
	token, err := c.bg.attestor.Token(req.Context(), botguard.Input{
		UserAgent:     req.Header.Get("User-Agent"),
		PageURL:       DefaultBaseURL + "/",
		ClientName:    c.clientName,
		ClientVersion: c.clientVer,
	})
	if err != nil {
		c.log.Warn("Sending request without attestation token", map[string]any{"error": err.Error()})
		return
	}
	if token != "" {
		req.Header.Set(botguard.HeaderName, token)
	}
}

func (c *Client) resolve(rawURL string) string {
	switch {
	case strings.HasPrefix(rawURL, "//"):
		return "https:" + rawURL
	case strings.HasPrefix(rawURL, "/"):
		return c.baseURL + rawURL
	case c.baseURL != DefaultBaseURL && strings.HasPrefix(rawURL, DefaultBaseURL):
		return c.baseURL + strings.TrimPrefix(rawURL, DefaultBaseURL)
	default:
		return rawURL
	}
}

// timestampValue sends numeric tokens as JSON numbers and anything else as a string.
func timestampValue(ts string) any {
	n := json.Number(ts)
	if _, err := n.Int64(); err == nil {
		return n
	}
	return ts
}

// drain discards the rest of body so the connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64<<10))
}

func statusMessage(endpoint string, code int) string {
	return fmt.Sprintf("Invalid status code %d for %s response", code, endpoint)
}

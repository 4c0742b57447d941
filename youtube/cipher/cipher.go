package cipher

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ytget/ytdetails/errs"
	"github.com/ytget/ytdetails/internal/logger"
	"github.com/ytget/ytdetails/internal/metrics"
)

// DefaultTTL is how long a resolved script is reused.
const DefaultTTL = 10 * time.Minute

// Info is what a player script yields.
type Info struct {
	ScriptURL string
	// Timestamp is echoed back in player requests; it is opaque to callers.
	Timestamp string
	// Routine may be empty when the script carries no recognizable routine.
	Routine Routine
}

// Resolver turns a player script URL into its Info.
type Resolver interface {
	Resolve(ctx context.Context, scriptURL string) (Info, error)
}

// ScriptFetcher downloads a player script. *innertube.Client implements it.
type ScriptFetcher interface {
	FetchPage(ctx context.Context, rawURL string) ([]byte, error)
}

type scriptEntry struct {
	info  Info
	expAt time.Time
}

// ScriptResolver is the default Resolver. It caches parsed scripts per URL and
// shares in-flight downloads between concurrent callers.
type ScriptResolver struct {
	fetch ScriptFetcher
	ttl   time.Duration
	now   func() time.Time
	log   *logger.ComponentLogger

	mu      sync.Mutex
	scripts map[string]scriptEntry
	group   singleflight.Group
}

// NewScriptResolver creates a resolver downloading scripts through fetch.
func NewScriptResolver(fetch ScriptFetcher) *ScriptResolver {
	return &ScriptResolver{
		fetch:   fetch,
		ttl:     DefaultTTL,
		now:     time.Now,
		log:     logger.WithComponent(logger.ComponentCipher),
		scripts: make(map[string]scriptEntry),
	}
}

// WithTTL overrides how long a resolved script is reused.
func (r *ScriptResolver) WithTTL(ttl time.Duration) *ScriptResolver {
	if ttl > 0 {
		r.ttl = ttl
	}
	return r
}

// Resolve returns the Info of the script at scriptURL, downloading it unless a
// fresh copy is cached.
func (r *ScriptResolver) Resolve(ctx context.Context, scriptURL string) (Info, error) {
	if strings.TrimSpace(scriptURL) == "" {
		return Info{}, errs.New(errs.CodeScriptDiscovery, errs.SeverityFault, "No player script URL to resolve")
	}
	if info, ok := r.lookup(scriptURL); ok {
		metrics.RecordCipherFetch("cached")
		return info, nil
	}

	// The download outlives any single caller so that joined callers are not
	// failed by the cancellation of the one that started it.
	ch := r.group.DoChan(scriptURL, func() (any, error) {
		if info, ok := r.lookup(scriptURL); ok {
			return info, nil
		}
		return r.download(context.WithoutCancel(ctx), scriptURL)
	})
	select {
	case <-ctx.Done():
		return Info{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Info{}, res.Err
		}
		if res.Shared {
			r.log.Trace("Joined in-flight script download", map[string]any{"url": scriptURL})
		}
		return res.Val.(Info), nil
	}
}

// Len returns the number of cached scripts, expired ones included.
func (r *ScriptResolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scripts)
}

func (r *ScriptResolver) download(ctx context.Context, scriptURL string) (Info, error) {
	start := time.Now()
	body, err := r.fetch.FetchPage(ctx, scriptURL)
	if err != nil {
		metrics.RecordCipherFetch("error")
		r.log.Warn("Player script download failed", map[string]any{"url": scriptURL, "error": err.Error()})
		return Info{}, err
	}

	info, err := ParseScript(body)
	if err != nil {
		outcome := "invalid"
		if IsJSError(err) {
			outcome = "invalid_js"
		}
		metrics.RecordCipherFetch(outcome)
		r.log.Error("Player script could not be read", map[string]any{
			"url":     scriptURL,
			"outcome": outcome,
			"error":   err.Error(),
		})
		return Info{}, err
	}
	info.ScriptURL = scriptURL
	if !info.Routine.Found() {
		r.log.Warn("No signature routine in player script", map[string]any{"url": scriptURL})
	}

	r.store(scriptURL, info)
	metrics.RecordCipherFetch("ok")
	r.log.Debug("Player script resolved", map[string]any{
		"url":         scriptURL,
		"timestamp":   info.Timestamp,
		"steps":       len(info.Routine.Steps),
		"bytes":       len(body),
		"duration_ms": logger.Since(start),
	})
	return info, nil
}

func (r *ScriptResolver) lookup(scriptURL string) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.scripts[scriptURL]
	if !ok || !r.now().Before(e.expAt) {
		return Info{}, false
	}
	return e.info, true
}

func (r *ScriptResolver) store(scriptURL string, info Info) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, e := range r.scripts {
		if !now.Before(e.expAt) {
			delete(r.scripts, k)
		}
	}
	r.scripts[scriptURL] = scriptEntry{info: info, expAt: now.Add(r.ttl)}
}

// ParseScript extracts the timestamp and signature routine from a player
// script. The timestamp is required; a missing routine leaves Info.Routine empty.
func ParseScript(js []byte) (Info, error) {
	src := string(js)
	ts, err := ExtractTimestamp(src)
	if err != nil {
		return Info{}, err
	}
	info := Info{Timestamp: ts}

	routine, err := ExtractRoutine(src)
	switch {
	case err == nil:
		info.Routine = routine
	case IsNotFound(err):
	default:
		return Info{}, err
	}
	return info, nil
}

// Package botguard obtains attestation tokens that are attached to InnerTube
// requests before they are sent.
package botguard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdetails/internal/logger"
)

// HeaderName carries the attestation token on outgoing requests.
const HeaderName = "x-goog-ext-123-botguard"

// Mode defines how Botguard solving is used.
type Mode int

const (
	// Off disables Botguard usage entirely.
	Off Mode = iota
	// Force runs attestation before every InnerTube call.
	Force
)

func (m Mode) String() string {
	if m == Force {
		return "force"
	}
	return "off"
}

// ParseMode accepts "off", "force" or an empty string (off).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "false":
		return Off, nil
	case "force", "on", "true":
		return Force, nil
	default:
		return Off, fmt.Errorf("unknown botguard mode: %s", s)
	}
}

// Input carries the parameters required to perform Botguard attestation.
type Input struct {
	UserAgent     string `json:"userAgent"`
	PageURL       string `json:"pageUrl"`
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	VisitorID     string `json:"visitorId,omitempty"`
}

// Output contains attestation result to be applied to InnerTube requests.
type Output struct {
	Token     string
	ExpiresAt time.Time
}

// Solver is an interface for Botguard attestation providers.
type Solver interface {
	Attest(ctx context.Context, input Input) (Output, error)
}

// Cache stores Botguard outputs keyed by KeyFromInput.
type Cache interface {
	Get(key string) (Output, bool)
	Set(key string, value Output)
}

// KeyFromInput derives a cache key from the fields that influence the token.
func KeyFromInput(in Input) string {
	sum := sha256.Sum256([]byte(in.UserAgent + "\x00" + in.ClientName + "\x00" + in.ClientVersion + "\x00" + in.VisitorID))
	return hex.EncodeToString(sum[:16])
}

// Attestor combines a Solver with an optional Cache.
type Attestor struct {
	solver Solver
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	log    *logger.ComponentLogger
}

// NewAttestor returns an Attestor. ttl is applied to outputs without ExpiresAt;
// zero keeps such outputs until the cache drops them.
func NewAttestor(solver Solver, cache Cache, ttl time.Duration) *Attestor {
	return &Attestor{
		solver: solver,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		log:    logger.WithComponent(logger.ComponentBotGuard),
	}
}

// Token returns a cached token for in, or attests a new one.
func (a *Attestor) Token(ctx context.Context, in Input) (string, error) {
	key := KeyFromInput(in)
	if a.cache != nil {
		if out, ok := a.cache.Get(key); ok && (out.ExpiresAt.IsZero() || out.ExpiresAt.After(a.now())) {
			a.log.Debug("Using cached attestation token", map[string]any{"client": in.ClientName})
			return out.Token, nil
		}
	}

	start := a.now()
	out, err := a.solver.Attest(ctx, in)
	if err != nil {
		a.log.Warn("Attestation failed", map[string]any{"client": in.ClientName, "error": err.Error()})
		return "", fmt.Errorf("botguard attest: %w", err)
	}
	if out.ExpiresAt.IsZero() && a.ttl > 0 {
		out.ExpiresAt = a.now().Add(a.ttl)
	}
	if a.cache != nil {
		a.cache.Set(key, out)
	}
	a.log.Debug("Attestation token obtained", map[string]any{
		"client":      in.ClientName,
		"duration_ms": a.now().Sub(start).Milliseconds(),
	})
	return out.Token, nil
}

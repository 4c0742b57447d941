package playerscript

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/ytget/ytdetails/errs"
)

type countingFetcher struct {
	calls atomic.Int32
	urls  []string
	mu    sync.Mutex
	body  string
	err   error
}

func (f *countingFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func embedPage(jsURL string) string {
	return `<html><script>ytcfg.set({"PLAYER_JS_URL":"x","jsUrl":"` + jsURL + `","cssUrl":"y"});</script></html>`
}

func TestReadIfFresh_TTLBoundary(t *testing.T) {
	const obtainedAt int64 = 1_700_000_000_000

	tests := []struct {
		name   string
		now    int64
		served bool
	}{
		{name: "just obtained", now: obtainedAt, served: true},
		{name: "one ms before expiry", now: obtainedAt + 599_999, served: true},
		{name: "at expiry", now: obtainedAt + 600_000, served: false},
		{name: "one ms after expiry", now: obtainedAt + 600_001, served: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache()
			c.Store(context.Background(), Snapshot{URL: "/s/player/a/base.js", ObtainedAt: obtainedAt})

			got, ok := c.ReadIfFresh(tt.now)
			if ok != tt.served {
				t.Fatalf("ReadIfFresh(%d) served = %v, want %v", tt.now, ok, tt.served)
			}
			if ok && got.URL != "/s/player/a/base.js" {
				t.Errorf("Unexpected URL %s", got.URL)
			}
		})
	}
}

func TestReadIfFresh_Empty(t *testing.T) {
	if _, ok := NewCache().ReadIfFresh(0); ok {
		t.Error("Expected empty cache to be stale")
	}
}

func TestRefresh_AfterExpiry(t *testing.T) {
	const obtainedAt int64 = 5_000_000
	fetcher := &countingFetcher{body: embedPage(`\/s\/player\/new\/base.js`)}
	c := NewCache()
	c.Store(context.Background(), Snapshot{URL: "/s/player/old/base.js", ObtainedAt: obtainedAt})

	now := obtainedAt + 600_001
	if _, ok := c.ReadIfFresh(now); ok {
		t.Fatal("Expected stale snapshot")
	}
	s, err := c.Refresh(context.Background(), fetcher, now)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if s.URL != "/s/player/new/base.js" || s.ObtainedAt != now {
		t.Errorf("Unexpected snapshot %+v", s)
	}
	if got, ok := c.ReadIfFresh(now); !ok || got != s {
		t.Errorf("Expected refreshed snapshot to be served, got %+v (%v)", got, ok)
	}
	if fetcher.calls.Load() != 1 || fetcher.urls[0] != DiscoveryURL {
		t.Errorf("Expected a single GET of %s, got %v", DiscoveryURL, fetcher.urls)
	}
}

func TestRefresh_Errors(t *testing.T) {
	transport := errors.New("connection reset")

	tests := []struct {
		name     string
		fetcher  *countingFetcher
		sentinel error
	}{
		{name: "transport error unchanged", fetcher: &countingFetcher{err: transport}, sentinel: transport},
		{name: "missing marker", fetcher: &countingFetcher{body: "<html>nothing here</html>"}, sentinel: errs.ErrScriptDiscovery},
		{name: "unterminated marker", fetcher: &countingFetcher{body: `"jsUrl":"/s/player`}, sentinel: errs.ErrScriptDiscovery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache()
			c.Store(context.Background(), Snapshot{URL: "/kept.js", ObtainedAt: 1})

			_, err := c.Refresh(context.Background(), tt.fetcher, 10)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Expected %v, got %v", tt.sentinel, err)
			}
			if cur, _ := c.Current(); cur.URL != "/kept.js" {
				t.Errorf("Expected failed refresh to leave the slot alone, got %+v", cur)
			}
		})
	}
}

func TestRefresh_MissingMarkerCarriesPage(t *testing.T) {
	page := "<html>consent wall</html>"
	_, err := NewCache().Refresh(context.Background(), &countingFetcher{body: page}, 0)
	e, ok := errs.As(err)
	if !ok || e.Code != errs.CodeScriptDiscovery {
		t.Fatalf("Expected script discovery error, got %v", err)
	}
	if e.Details != page {
		t.Errorf("Expected page body in details, got %v", e.Details)
	}
	if e.Severity != errs.SeverityFault {
		t.Errorf("Expected fault severity, got %v", e.Severity)
	}
}

func TestStore_IgnoresEmptyURL(t *testing.T) {
	c := NewCache()
	c.Store(context.Background(), Snapshot{URL: "", ObtainedAt: 10})
	if _, ok := c.Current(); ok {
		t.Error("Expected empty URL not to be stored")
	}
}

func TestCache_ConcurrentLastWriteWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCache()
	const writers = 32

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Store(context.Background(), Snapshot{URL: fmt.Sprintf("/s/player/%d/base.js", i), ObtainedAt: int64(i)})
			if s, ok := c.Current(); !ok || s.URL == "" {
				t.Errorf("Expected a complete snapshot to be visible, got %+v", s)
			}
		}(i)
	}
	wg.Wait()

	s, ok := c.Current()
	if !ok {
		t.Fatal("Expected a snapshot after concurrent writes")
	}
	if s.URL != fmt.Sprintf("/s/player/%d/base.js", s.ObtainedAt) {
		t.Errorf("Snapshot fields come from different writes: %+v", s)
	}
}

func TestCache_ConcurrentRefresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := &countingFetcher{body: embedPage("/s/player/c/base.js")}
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Refresh(context.Background(), fetcher, 100); err != nil {
				t.Errorf("Refresh error: %v", err)
			}
		}()
	}
	wg.Wait()

	if s, ok := c.ReadIfFresh(100); !ok || s.URL != "/s/player/c/base.js" {
		t.Errorf("Unexpected snapshot %+v", s)
	}
}

type staticStore struct {
	snapshot Snapshot
}

func (s *staticStore) Load(context.Context) (Snapshot, bool, error) {
	return s.snapshot, s.snapshot.URL != "", nil
}

func (s *staticStore) Save(_ context.Context, snap Snapshot) error {
	s.snapshot = snap
	return nil
}

func TestLookup_SharedSnapshotFromFuture(t *testing.T) {
	const now int64 = 1_700_000_000_000
	store := &staticStore{snapshot: Snapshot{URL: "/ahead.js", ObtainedAt: now + 5*60_000}}
	c := NewCache().WithSharedStore(store)

	s, ok := c.Lookup(context.Background(), now)
	if !ok || s.URL != "/ahead.js" {
		t.Fatalf("Expected shared snapshot to be adopted, got %+v ok=%v", s, ok)
	}
	if s.ObtainedAt != now {
		t.Errorf("Expected ObtainedAt clamped to %d, got %d", now, s.ObtainedAt)
	}

	tests := []struct {
		name     string
		at       int64
		expected bool
	}{
		{name: "just before expiry", at: now + TTLMillis - 1, expected: true},
		{name: "at expiry", at: now + TTLMillis, expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := c.ReadIfFresh(tt.at); ok != tt.expected {
				t.Errorf("ReadIfFresh(%d) = %v, want %v", tt.at, ok, tt.expected)
			}
		})
	}
}

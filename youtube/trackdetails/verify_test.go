package trackdetails

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/errs"
	"github.com/ytget/ytdetails/youtube/innertube"
)

const contentCheck = `{"playabilityStatus":{"status":"CONTENT_CHECK_REQUIRED","reason":"This video may be inappropriate for some users."}}`

func redirectTo(url string) func(string) (gjson.Result, error) {
	return func(string) (gjson.Result, error) {
		return gjson.Parse(`{"actions":[{"navigateAction":{"endpoint":{"urlEndpoint":{"url":"` + url + `"}}}}]}`), nil
	}
}

func TestVerifyContent_StripsWatchPrefix(t *testing.T) {
	clock := int64(1_700_000_000_000)
	api := &fakeAPI{
		player:    respond(contentCheck),
		verifyAge: redirectTo("/watch?v=abc123&foo=1"),
		watchPage: func(string) (gjson.Result, error) {
			return gjson.Parse(`[{"page":"watch"},{"playerResponse":` + okResponse + `},{"player":{"assets":{"js":"/s/player/verified/base.js"}}}]`), nil
		},
	}
	l, _ := newTestLoader(api, &clock)

	d, err := l.LoadDetails(context.Background(), "abc123", true)
	if err != nil {
		t.Fatalf("LoadDetails() error = %v", err)
	}
	if len(api.verifyCalls) != 1 || api.verifyCalls[0] != "abc123" {
		t.Errorf("Expected one verify_age call for abc123, got %v", api.verifyCalls)
	}
	if len(api.watchCalls) != 1 || api.watchCalls[0] != "abc123&foo=1" {
		t.Errorf("Expected watch page for abc123&foo=1, got %v", api.watchCalls)
	}
	if d.Title() != "Song" {
		t.Errorf("Expected verified player response, got title %q", d.Title())
	}
	if d.PlayerScriptURL != "https://www.youtube.com/s/player/verified/base.js" {
		t.Errorf("Expected script URL from the watch page, got %s", d.PlayerScriptURL)
	}
}

func TestVerifyContent_NoRedirect(t *testing.T) {
	clock := int64(1_700_000_000_000)
	verifyResp := `{"responseContext":{},"actions":[]}`
	api := &fakeAPI{
		player:    respond(contentCheck),
		verifyAge: func(string) (gjson.Result, error) { return gjson.Parse(verifyResp), nil },
	}
	l, _ := newTestLoader(api, &clock)

	d, err := l.LoadDetails(context.Background(), "abc123", true)
	if d != nil {
		t.Errorf("Expected nil details, got %+v", d)
	}
	if !errors.Is(err, errs.ErrAgeRestricted) {
		t.Fatalf("Expected content verification error, got %v", err)
	}
	e, _ := errs.As(err)
	if e.Severity != errs.SeveritySuspicious {
		t.Errorf("Expected suspicious severity, got %s", e.Severity)
	}
	if e.Message != "Track requires content verification." {
		t.Errorf("Unexpected message %q", e.Message)
	}
	if e.Details != verifyResp {
		t.Errorf("Expected verify response as details, got %v", e.Details)
	}
	if len(api.verifyCalls) != 1 {
		t.Errorf("Expected a single verification attempt, got %d", len(api.verifyCalls))
	}
	if len(api.watchCalls) != 0 {
		t.Errorf("Expected no watch page request, got %d", len(api.watchCalls))
	}
}

func TestVerifyContent_StillRequiresCheck(t *testing.T) {
	clock := int64(1_700_000_000_000)
	api := &fakeAPI{
		player:    respond(contentCheck),
		verifyAge: redirectTo("/watch?v=abc123"),
		watchPage: func(string) (gjson.Result, error) {
			return gjson.Parse(`[{"playerResponse":` + contentCheck + `}]`), nil
		},
	}
	l, _ := newTestLoader(api, &clock)

	_, err := l.LoadDetails(context.Background(), "abc123", true)
	if !errors.Is(err, errs.ErrAgeRestricted) {
		t.Fatalf("Expected content verification error, got %v", err)
	}
	if errs.SeverityOf(err) != errs.SeverityFault {
		t.Errorf("Expected fault severity, got %s", errs.SeverityOf(err))
	}
	if len(api.verifyCalls) != 1 || len(api.watchCalls) != 1 {
		t.Errorf("Expected exactly one retry, got verify=%d watch=%d", len(api.verifyCalls), len(api.watchCalls))
	}
}

func TestVerifyContent_RedirectedPageTakenAsIs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unavailable", doc: `{"playabilityStatus":{"status":"ERROR","reason":"Video unavailable"},"videoDetails":{"title":"Song"}}`},
		{name: "unplayable", doc: `{"playabilityStatus":{"status":"UNPLAYABLE","reason":"Nope"},"videoDetails":{"title":"Song"}}`},
		{name: "no status block", doc: `{"videoDetails":{"title":"Song"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := int64(1_700_000_000_000)
			api := &fakeAPI{
				player:    respond(contentCheck),
				verifyAge: redirectTo("/watch?v=abc123"),
				watchPage: func(string) (gjson.Result, error) {
					return gjson.Parse(`[{"playerResponse":` + tt.doc + `}]`), nil
				},
			}
			l, _ := newTestLoader(api, &clock)

			d, err := l.LoadDetails(context.Background(), "abc123", false)
			if err != nil {
				t.Fatalf("LoadDetails() error = %v", err)
			}
			if d == nil || d.Title() != "Song" {
				t.Errorf("Expected the redirected document, got %+v", d)
			}
			if len(api.watchCalls) != 1 {
				t.Errorf("Expected one watch page request, got %d", len(api.watchCalls))
			}
		})
	}
}

func TestVerifyContent_ShortRedirect(t *testing.T) {
	clock := int64(1_700_000_000_000)
	api := &fakeAPI{
		player:    respond(contentCheck),
		verifyAge: redirectTo("/x"),
	}
	l, _ := newTestLoader(api, &clock)

	_, err := l.LoadDetails(context.Background(), "abc123", true)
	if !errors.Is(err, errs.ErrProtocol) || !errors.Is(err, errs.ErrExtraction) {
		t.Errorf("Expected wrapped protocol error, got %v", err)
	}
	if len(api.watchCalls) != 0 {
		t.Errorf("Expected no watch page request, got %d", len(api.watchCalls))
	}
}

// End to end against an httptest server speaking the platform's endpoints.
func TestLoadDetails_HTTP(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	var watchQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		switch r.URL.Path {
		case "/embed":
			_, _ = w.Write([]byte(embedPage(`\/s\/player\/e2e\/base.js`)))
		case "/s/player/e2e/base.js":
			_, _ = w.Write([]byte(`var cfg={signatureTimestamp:20100};`))
		case "/youtubei/v1/player":
			body, _ := io.ReadAll(r.Body)
			if gjson.GetBytes(body, "playbackContext.contentPlaybackContext.signatureTimestamp").Int() != 20100 {
				http.Error(w, "missing timestamp", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(contentCheck))
		case "/youtubei/v1/verify_age":
			_, _ = w.Write([]byte(`{"actions":[{"navigateAction":{"endpoint":{"urlEndpoint":{"url":"/watch?v=abc123&foo=1"}}}}]}`))
		case "/watch":
			mu.Lock()
			watchQuery = r.URL.RawQuery
			mu.Unlock()
			_, _ = w.Write([]byte(`[{"page":"watch"},{"playerResponse":` + okResponse + `}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	api := innertube.New(srv.Client()).WithBaseURL(srv.URL)
	l := New(api)

	d, err := l.LoadDetails(context.Background(), "abc123", true)
	if err != nil {
		t.Fatalf("LoadDetails() error = %v", err)
	}
	if d.Title() != "Song" {
		t.Errorf("Expected title Song, got %q", d.Title())
	}
	if d.PlayerScriptURL != "/s/player/e2e/base.js" {
		t.Errorf("Expected discovered script URL, got %s", d.PlayerScriptURL)
	}

	mu.Lock()
	defer mu.Unlock()
	if watchQuery != "v=abc123&foo=1&pbj=1&hl=en" {
		t.Errorf("Unexpected watch query %q", watchQuery)
	}
	if hits["/embed"] != 1 || hits["/s/player/e2e/base.js"] != 1 {
		t.Errorf("Expected one discovery and one script download, got %v", hits)
	}
}

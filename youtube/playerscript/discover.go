package playerscript

import (
	"bytes"
	"context"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/errs"
)

// DiscoveryURL is the page whose inline config names the current player script.
const DiscoveryURL = "https://www.youtube.com/embed"

var (
	startMarker = []byte(`"jsUrl":"`)
	endMarker   = []byte(`"`)
)

// PageFetcher returns the decoded body of a successful GET.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, url string) ([]byte, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc) FetchPage(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Discover GETs DiscoveryURL and extracts the script URL from it.
func Discover(ctx context.Context, fetch PageFetcher) (string, error) {
	body, err := fetch.FetchPage(ctx, DiscoveryURL)
	if err != nil {
		return "", err
	}
	return ExtractScriptURL(body)
}

// ExtractScriptURL returns the JSON-decoded text between `"jsUrl":"` and the
// next quote. A missing marker is a ScriptDiscovery error carrying the page.
func ExtractScriptURL(page []byte) (string, error) {
	encoded, ok := extractBetween(page, startMarker, endMarker)
	if !ok {
		return "", errs.New(errs.CodeScriptDiscovery, errs.SeverityFault, "no jsUrl found", string(page))
	}
	wrapped := `{"url":"` + string(encoded) + `"}`
	if !gjson.Valid(wrapped) {
		return "", errs.New(errs.CodeScriptDiscovery, errs.SeverityFault, "jsUrl is not a valid string literal", string(encoded))
	}
	return gjson.Get(wrapped, "url").String(), nil
}

func extractBetween(data, start, end []byte) ([]byte, bool) {
	i := bytes.Index(data, start)
	if i < 0 {
		return nil, false
	}
	rest := data[i+len(start):]
	j := bytes.Index(rest, end)
	if j < 0 {
		return nil, false
	}
	return rest[:j], true
}

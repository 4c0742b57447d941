package innertube

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/errs"
)

const malformedMessage = "Received unexpected response from YouTube."

// ParseDocument validates body as a JSON object or array and returns it as a
// navigable document. Anything else is a MalformedResponse carrying the body.
func ParseDocument(body []byte) (gjson.Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') || !gjson.ValidBytes(trimmed) {
		return gjson.Result{}, errs.Wrap(
			fmt.Errorf("failed to parse %d byte body as a JSON document", len(body)),
			errs.CodeMalformedResponse, errs.SeveritySuspicious, malformedMessage, string(body),
		)
	}
	return gjson.ParseBytes(trimmed), nil
}

// readDocument checks the status, decodes the body and rejects empty content.
func readDocument(resp *http.Response, endpoint string) ([]byte, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp.Body)
		return nil, errs.New(errs.CodeBadStatus, errs.SeverityFault, statusMessage(endpoint, resp.StatusCode), resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errs.New(errs.CodeEmptyBody, errs.SeverityFault, fmt.Sprintf("Empty body in %s response", endpoint))
	}
	return body, nil
}

// decodeBody reads the body, undoing gzip, br or deflate content encoding.
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return inflate(raw)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
	return io.ReadAll(reader)
}

// inflate accepts both zlib-wrapped and raw DEFLATE streams.
func inflate(raw []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
		defer zr.Close()
		return io.ReadAll(zr)
	}
	fr := flate.NewReader(bytes.NewReader(raw))
	defer fr.Close()
	return io.ReadAll(fr)
}

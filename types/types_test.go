package types

import (
	"encoding/json"
	"testing"

	"github.com/tidwall/gjson"
)

const doc = `{
  "videoDetails": {
    "videoId": "dQw4w9WgXcQ",
    "title": "Never Gonna Give You Up",
    "author": "Rick Astley",
    "channelId": "UCuAXFkgsw1L7xaCfnd5JJOw",
    "lengthSeconds": "212",
    "viewCount": "1500000000",
    "isLive": false
  },
  "streamingData": {
    "adaptiveFormats": [
      {"itag": 251, "url": "https://rr1.example/251", "mimeType": "audio/webm; codecs=\"opus\"", "bitrate": 160000}
    ]
  }
}`

func TestTrackDetailsAccessors(t *testing.T) {
	d := &TrackDetails{VideoID: "dQw4w9WgXcQ", PlayerResponse: gjson.Parse(doc), PlayerScriptURL: "https://www.youtube.com/s/player/x/base.js"}

	if d.Title() != "Never Gonna Give You Up" {
		t.Errorf("Expected title, got %q", d.Title())
	}
	if d.Author() != "Rick Astley" {
		t.Errorf("Expected author, got %q", d.Author())
	}
	if d.LengthSeconds() != 212 {
		t.Errorf("Expected 212 seconds, got %d", d.LengthSeconds())
	}
	if d.IsLive() {
		t.Error("Expected IsLive to be false")
	}
	if f := d.Formats(); len(f) != 1 || f[0].Itag != 251 {
		t.Errorf("Expected one format with itag 251, got %+v", f)
	}
}

func TestTrackDetailsZeroValue(t *testing.T) {
	d := &TrackDetails{}
	if d.Title() != "" || d.Author() != "" || d.LengthSeconds() != 0 || d.IsLive() {
		t.Error("Expected zero values for an empty document")
	}
	if len(d.Formats()) != 0 {
		t.Error("Expected no formats for an empty document")
	}
}

func TestTrackDetailsLive(t *testing.T) {
	d := &TrackDetails{PlayerResponse: gjson.Parse(`{"videoDetails":{"isLive":true}}`)}
	if !d.IsLive() {
		t.Error("Expected IsLive to be true")
	}
}

func TestTrackDetailsMarshalJSON(t *testing.T) {
	d := &TrackDetails{VideoID: "dQw4w9WgXcQ", PlayerResponse: gjson.Parse(doc), PlayerScriptURL: "/s/player/x/base.js"}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	out := gjson.ParseBytes(b)
	tests := []struct {
		path     string
		expected string
	}{
		{path: "id", expected: "dQw4w9WgXcQ"},
		{path: "title", expected: "Never Gonna Give You Up"},
		{path: "channelId", expected: "UCuAXFkgsw1L7xaCfnd5JJOw"},
		{path: "lengthSeconds", expected: "212"},
		{path: "viewCount", expected: "1500000000"},
		{path: "playerScriptUrl", expected: "/s/player/x/base.js"},
		{path: "formats.0.itag", expected: "251"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := out.Get(tt.path).String(); got != tt.expected {
				t.Errorf("Expected %s = %s, got %s", tt.path, tt.expected, got)
			}
		})
	}
}

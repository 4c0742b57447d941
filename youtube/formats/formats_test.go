package formats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/internal/logger"
)

const playerResponse = `{
  "streamingData": {
    "formats": [
      {"itag": 18, "url": "https://rr1.example/18", "mimeType": "video/mp4; codecs=\"avc1.42001E, mp4a.40.2\"", "qualityLabel": "360p", "bitrate": 500000, "contentLength": "1000"},
      {"bitrate": 1}
    ],
    "adaptiveFormats": [
      {"itag": 251, "signatureCipher": "s=abc&sp=sig&url=https%3A%2F%2Frr1.example%2F251", "mimeType": "audio/webm; codecs=\"opus\"", "bitrate": 160000, "audioQuality": "AUDIO_QUALITY_MEDIUM", "audioChannels": 2},
      {"itag": 140, "url": "https://rr1.example/140", "mimeType": "audio/mp4; codecs=\"mp4a.40.2\"", "bitrate": 130000, "audioChannels": 2},
      {"itag": 137, "cipher": "s=def&url=x", "mimeType": "video/mp4; codecs=\"avc1.640028\"", "qualityLabel": "1080p", "bitrate": 4000000}
    ]
  }
}`

func TestParse(t *testing.T) {
	got := Parse(gjson.Parse(playerResponse))
	expected := []Format{
		{Itag: 18, URL: "https://rr1.example/18", MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Quality: "360p", Bitrate: 500000, Size: 1000},
		{Itag: 251, SignatureCipher: "s=abc&sp=sig&url=https%3A%2F%2Frr1.example%2F251", MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000, AudioQuality: "AUDIO_QUALITY_MEDIUM", AudioChannels: 2, Adaptive: true},
		{Itag: 140, URL: "https://rr1.example/140", MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130000, AudioChannels: 2, Adaptive: true},
		{Itag: 137, SignatureCipher: "s=def&url=x", MimeType: `video/mp4; codecs="avc1.640028"`, Quality: "1080p", Bitrate: 4000000, Adaptive: true},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNoStreamingData(t *testing.T) {
	if got := Parse(gjson.Parse(`{"videoDetails":{}}`)); len(got) != 0 {
		t.Errorf("Expected no formats, got %d", len(got))
	}
}

func TestBestAudio(t *testing.T) {
	list := Parse(gjson.Parse(playerResponse))
	f, ok := BestAudio(list)
	if !ok {
		t.Fatal("Expected an audio format")
	}
	if f.Itag != 251 {
		t.Errorf("Expected itag 251, got %d", f.Itag)
	}

	if _, ok := BestAudio([]Format{{Itag: 18, MimeType: "video/mp4"}}); ok {
		t.Error("Expected no audio format in video-only list")
	}
}

func TestSelectFormat_Ext_Itag(t *testing.T) {
	list := []Format{
		{Itag: 18, MimeType: "video/mp4", URL: "u1", Quality: "360p", Bitrate: 500000},
		{Itag: 22, MimeType: "video/mp4", URL: "u2", Quality: "720p", Bitrate: 2000000},
		{Itag: 100, MimeType: "video/webm", URL: "u3", Quality: "1080p", Bitrate: 3000000},
	}
	if f := SelectFormat(list, "", "webm"); f == nil || f.URL != "u3" {
		t.Fatalf("ext webm -> u3, got %+v", f)
	}
	if f := SelectFormat(list, "itag=18", ""); f == nil || f.URL != "u1" {
		t.Fatalf("itag=18 -> u1, got %+v", f)
	}
	if f := SelectFormat(list, "", ""); f == nil || f.Itag != 22 {
		t.Fatalf("default -> itag 22, got %+v", f)
	}
}

func TestSelectFormat_BestWorst_Height(t *testing.T) {
	list := []Format{
		{Itag: 18, MimeType: "video/mp4", URL: "u1", Quality: "360p", Bitrate: 500000},
		{Itag: 22, MimeType: "video/mp4", URL: "u2", Quality: "720p", Bitrate: 2000000},
		{Itag: 100, MimeType: "video/webm", URL: "u3", Quality: "1080p", Bitrate: 3000000},
	}
	if f := SelectFormat(list, "best", ""); f == nil || f.URL != "u3" {
		t.Fatalf("best -> u3, got %+v", f)
	}
	if f := SelectFormat(list, "worst", ""); f == nil || f.URL != "u1" {
		t.Fatalf("worst -> u1, got %+v", f)
	}
	if f := SelectFormat(list, "height<=720", ""); f == nil || (f.URL != "u2" && f.URL != "u1") {
		t.Fatalf("height<=720 -> u1/u2, got %+v", f)
	}
}

func TestSelectFormat_Audio(t *testing.T) {
	list := Parse(gjson.Parse(playerResponse))
	if f := SelectFormat(list, "audio", ""); f == nil || f.Itag != 251 {
		t.Fatalf("audio -> 251, got %+v", f)
	}
	if f := SelectFormat(list, "audio", "m4a"); f == nil || f.Itag != 140 {
		t.Fatalf("audio m4a -> 140, got %+v", f)
	}
	if f := SelectFormat(list, "audio", "flac"); f == nil || f.Itag != 251 {
		t.Fatalf("unknown ext falls back to all formats, got %+v", f)
	}
}

func TestSelectFormat_Empty(t *testing.T) {
	if f := SelectFormat(nil, "best", ""); f != nil {
		t.Errorf("Expected nil for empty list, got %+v", f)
	}
}

func TestParseLogsSkipped(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.GetGlobalLogger()
	logger.SetGlobalLogger(logger.New(&logger.Config{
		Level:      logger.DEBUG,
		Format:     logger.FormatJSON,
		Output:     &buf,
		Components: map[logger.Component]bool{logger.ComponentFormat: true},
	}))
	defer logger.SetGlobalLogger(prev)

	Parse(gjson.Parse(playerResponse))

	out := buf.String()
	if !strings.Contains(out, `"component":"format"`) || !strings.Contains(out, `"skipped":1`) {
		t.Errorf("Expected a format log entry with one skipped format, got %q", out)
	}

	buf.Reset()
	Parse(gjson.Parse(`{"streamingData":{"formats":[{"itag":18}]}}`))
	if buf.Len() != 0 {
		t.Errorf("Expected no log entry when nothing is skipped, got %q", buf.String())
	}
}

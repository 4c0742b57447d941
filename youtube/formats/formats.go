package formats

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/internal/logger"
)

var heightRe = regexp.MustCompile(`([0-9]{3,4})p`)

// Format describes one stream listed in a player response. Signed streams
// carry SignatureCipher instead of URL.
type Format struct {
	Itag            int    `json:"itag"`
	URL             string `json:"url,omitempty"`
	SignatureCipher string `json:"signatureCipher,omitempty"`
	MimeType        string `json:"mimeType"`
	Quality         string `json:"quality,omitempty"`
	Bitrate         int    `json:"bitrate"`
	Size            int64  `json:"contentLength,omitempty"`
	AudioQuality    string `json:"audioQuality,omitempty"`
	AudioChannels   int    `json:"audioChannels,omitempty"`
	Adaptive        bool   `json:"adaptive"`
}

func getSubtype(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(mime, "/")
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

func parseHeight(label string) int {
	m := heightRe.FindStringSubmatch(label)
	if len(m) >= 2 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v
		}
	}
	return 0
}

// Parse lists the progressive and adaptive formats of a player response, in
// that order. Entries without an itag are skipped.
func Parse(playerResponse gjson.Result) []Format {
	var out []Format
	skipped := 0
	collect := func(path string, adaptive bool) {
		playerResponse.Get(path).ForEach(func(_, v gjson.Result) bool {
			if f, ok := parseOne(v, adaptive); ok {
				out = append(out, f)
			} else {
				skipped++
			}
			return true
		})
	}
	collect("streamingData.formats", false)
	collect("streamingData.adaptiveFormats", true)

	if skipped > 0 {
		logger.WithComponent(logger.ComponentFormat).Debug("Skipped formats without itag", map[string]any{
			"skipped": skipped,
			"kept":    len(out),
		})
	}
	return out
}

func parseOne(v gjson.Result, adaptive bool) (Format, bool) {
	itag := v.Get("itag")
	if !v.IsObject() || !itag.Exists() {
		return Format{}, false
	}
	f := Format{
		Itag:          int(itag.Int()),
		URL:           v.Get("url").String(),
		MimeType:      v.Get("mimeType").String(),
		Quality:       v.Get("qualityLabel").String(),
		Bitrate:       int(v.Get("bitrate").Int()),
		Size:          v.Get("contentLength").Int(),
		AudioQuality:  v.Get("audioQuality").String(),
		AudioChannels: int(v.Get("audioChannels").Int()),
		Adaptive:      adaptive,
	}
	if f.URL == "" {
		f.SignatureCipher = v.Get("signatureCipher").String()
		if f.SignatureCipher == "" {
			f.SignatureCipher = v.Get("cipher").String()
		}
	}
	return f, true
}

// BestAudio returns the audio-only format with the highest bitrate.
func BestAudio(list []Format) (Format, bool) {
	audio := lo.Filter(list, func(f Format, _ int) bool { return isAudioOnly(f) })
	if len(audio) == 0 {
		return Format{}, false
	}
	return lo.MaxBy(audio, func(a, b Format) bool { return a.Bitrate > b.Bitrate }), true
}

// SelectFormat chooses the best format according to criteria.
// Supported selectors:
//   - ext: file extension ("mp4", "webm")
//   - itag=NN: specific format by itag (e.g., "itag=22" for 720p MP4)
//   - best: highest quality (height, then bitrate)
//   - worst: lowest quality
//   - height<=NNN: height no more than NNN (e.g., "height<=720")
//   - height>=NNN: height no less than NNN (e.g., "height>=480")
//   - audio: best audio-only format
//
// If selector is absent or no match found, heuristic is used:
// prefer itag 22 (720p MP4), then itag 18 (360p MP4),
// then progressive mp4 with avc1, else first available.
// Returns nil for an empty list.
func SelectFormat(formats []Format, quality, ext string) *Format {
	if len(formats) == 0 {
		return nil
	}

	filtered := lo.Filter(formats, func(f Format, _ int) bool { return mimeSubtypeEquals(f, ext) })
	if len(filtered) == 0 {
		filtered = append([]Format(nil), formats...)
	}

	q := strings.TrimSpace(strings.ToLower(quality))
	if strings.HasPrefix(q, "itag=") {
		if it, err := strconv.Atoi(strings.TrimPrefix(q, "itag=")); err == nil {
			if f, ok := lo.Find(filtered, func(f Format) bool { return itagEquals(f, it) }); ok {
				return &f
			}
		}
	}

	if q == "audio" {
		if f, ok := BestAudio(filtered); ok {
			return &f
		}
	}

	var minH, maxH int
	if strings.HasPrefix(q, "height<=") {
		if v, err := strconv.Atoi(strings.TrimPrefix(q, "height<=")); err == nil {
			maxH = v
		}
	}
	if strings.HasPrefix(q, "height>=") {
		if v, err := strconv.Atoi(strings.TrimPrefix(q, "height>=")); err == nil {
			minH = v
		}
	}
	if minH > 0 || maxH > 0 {
		if tmp := lo.Filter(filtered, func(f Format, _ int) bool { return withinHeight(f, minH, maxH) }); len(tmp) > 0 {
			filtered = tmp
		}
	}

	switch q {
	case "best":
		best := lo.MaxBy(filtered, betterByHeightThenBitrate)
		return &best
	case "worst":
		worst := lo.MinBy(filtered, func(a, b Format) bool { return betterByHeightThenBitrate(b, a) })
		return &worst
	}

	for _, itag := range []int{22, 18} {
		if f, ok := lo.Find(filtered, func(f Format) bool { return f.Itag == itag }); ok {
			return &f
		}
	}

	if f, ok := lo.Find(filtered, func(f Format) bool {
		return strings.Contains(f.MimeType, "video/mp4") && strings.Contains(f.MimeType, "avc1")
	}); ok {
		return &f
	}
	if f, ok := lo.Find(filtered, hasDirectURL); ok {
		return &f
	}
	return &filtered[0]
}

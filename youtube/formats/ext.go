package formats

import "strings"

const (
	// DefaultExt is the extension used when MIME is unknown or empty.
	DefaultExt = "mp4"

	extM4A  = "m4a"
	extWebM = "webm"

	mimeVideoMP4  = "video/mp4"
	mimeAudioMP4  = "audio/mp4"
	mimeVideoWebM = "video/webm"
	mimeAudioWebM = "audio/webm"
)

// ExtFromMime returns the file extension (without dot) for a mime type.
// Falls back to the subtype, or mp4 if there is none.
func ExtFromMime(mime string) string {
	base, _, _ := strings.Cut(strings.TrimSpace(mime), ";")
	base = strings.TrimSpace(base)
	switch base {
	case "":
		return DefaultExt
	case mimeVideoMP4:
		return DefaultExt
	case mimeAudioMP4:
		return extM4A
	case mimeVideoWebM, mimeAudioWebM:
		return extWebM
	}
	if _, sub, ok := strings.Cut(base, "/"); ok && sub != "" {
		return sub
	}
	return DefaultExt
}

// Ext returns the file extension matching the format's container.
func (f Format) Ext() string {
	return ExtFromMime(f.MimeType)
}

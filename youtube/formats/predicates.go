// Package formats lists the stream descriptors of a player response and picks
// among them. Signed streams are listed as is; resolving them is left to the caller.
package formats

import "strings"

// hasDirectURL returns true when the format already contains a resolvable URL.
// Formats without direct URLs need signature deciphering.
func hasDirectURL(format Format) bool {
	return strings.TrimSpace(format.URL) != ""
}

// isAudioOnly returns true for audio/* formats.
func isAudioOnly(format Format) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(format.MimeType)), "audio/")
}

// mimeSubtypeEquals checks that the MIME subtype (e.g., mp4, webm) or the
// file extension (e.g., m4a) equals desiredExt. The desiredExt is
// case-insensitive and may start with a dot.
// If desiredExt is empty, the function returns true (no filtering).
func mimeSubtypeEquals(format Format, desiredExt string) bool {
	desired := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(desiredExt)), ".")
	if desired == "" {
		return true
	}
	return getSubtype(format.MimeType) == desired || format.Ext() == desired
}

// itagEquals checks that format's itag matches the specified itag value.
// Returns false if itag is 0 or negative.
func itagEquals(format Format, itag int) bool {
	return itag > 0 && format.Itag == itag
}

// withinHeight checks whether the format's Quality label height is within [minHeight, maxHeight].
// A zero bound is ignored.
func withinHeight(format Format, minHeight int, maxHeight int) bool {
	if minHeight <= 0 && maxHeight <= 0 {
		return true
	}
	h := parseHeight(format.Quality)
	if minHeight > 0 && h < minHeight {
		return false
	}
	if maxHeight > 0 && h > maxHeight {
		return false
	}
	return true
}

// betterByHeightThenBitrate returns true when candidate is better than current
// using height as primary criterion and bitrate as a tiebreaker.
func betterByHeightThenBitrate(candidate Format, current Format) bool {
	candidateHeight := parseHeight(candidate.Quality)
	currentHeight := parseHeight(current.Quality)
	if candidateHeight != currentHeight {
		return candidateHeight > currentHeight
	}
	return candidate.Bitrate > current.Bitrate
}

package riva

import "strings"

// appendSegment adds transcript unless it repeats or is a prefix of the last segment;
// a segment that extends the last one replaces it.
func appendSegment(segments []string, transcript string) []string {
	transcript = cleanSegment(transcript)
	if transcript == "" {
		return segments
	}
	if len(segments) == 0 {
		return append(segments, transcript)
	}

	last := segments[len(segments)-1]
	switch {
	case strings.HasPrefix(last, transcript):
		return segments
	case strings.HasPrefix(transcript, last):
		segments[len(segments)-1] = transcript
		return segments
	default:
		return append(segments, transcript)
	}
}

// cleanSegment collapses whitespace.
func cleanSegment(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

package items

import (
	"strings"
	"unicode/utf8"
)

// MergeText reconciles a streamed text fragment with what is already held for
// an item. A resend that is a prefix of the current text is ignored, a payload
// that extends the current text replaces it, and otherwise only the part of
// incoming that does not overlap the tail of existing is appended.
func MergeText(existing, incoming string) string {
	if incoming == "" {
		return existing
	}
	if existing == "" {
		return incoming
	}
	if strings.HasPrefix(existing, incoming) {
		return existing
	}
	if strings.HasPrefix(incoming, existing) {
		return incoming
	}
	return existing + incoming[overlapLen(existing, incoming):]
}

// overlapLen returns the byte length of the longest suffix of existing that
// is also a prefix of incoming, cut on a rune boundary of incoming.
func overlapLen(existing, incoming string) int {
	for n := min(len(existing), len(incoming)); n > 0; n-- {
		if n < len(incoming) && !utf8.RuneStart(incoming[n]) {
			continue
		}
		if strings.HasSuffix(existing, incoming[:n]) {
			return n
		}
	}
	return 0
}

// completionWins reports whether a completion payload should replace the
// streamed text. A shorter final payload never erases a longer draft.
func completionWins(current, final string) bool {
	return utf8.RuneCountInString(final) >= utf8.RuneCountInString(current)
}

// richer picks the more complete of two renderings of the same text.
func richer(remote, local string) string {
	if strings.TrimSpace(remote) == "" {
		return local
	}
	if utf8.RuneCountInString(local) > utf8.RuneCountInString(remote) {
		return local
	}
	return remote
}

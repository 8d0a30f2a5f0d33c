package threads

import (
	"regexp"
	"strings"
	"unicode"

	xansi "github.com/charmbracelet/x/ansi"
)

const (
	DefaultThreadName   = "New Agent"
	DefaultNameMaxRunes = 38
	nameEllipsis        = "…"
)

var (
	hexLikeName        = regexp.MustCompile(`^[0-9a-fA-F-]{8,}$`)
	imageMarkerPattern = regexp.MustCompile(`(?i)\[\s*(?:\d+\s+)?images?(?:\s*(?:#\s*\d+|x\s*\d+))?\s*\]`)
	leadingSkillTokens = regexp.MustCompile(`^(?:\$[A-Za-z][A-Za-z0-9_-]*\s*)+`)
)

// IsAutoName reports whether name is a placeholder that automatic renaming
// may replace: blank, the default name, or an id-looking hex string.
func IsAutoName(name, defaultName string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == DefaultThreadName {
		return true
	}
	if defaultName != "" && trimmed == strings.TrimSpace(defaultName) {
		return true
	}
	return hexLikeName.MatchString(trimmed) && strings.ContainsAny(trimmed, "0123456789")
}

// SanitizeName turns message text into a single-line thread name.
func SanitizeName(text string) string {
	text = xansi.Strip(text)
	text = imageMarkerPattern.ReplaceAllString(text, " ")
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	text = strings.Join(strings.Fields(text), " ")
	text = leadingSkillTokens.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// TruncateName cuts name to maxRunes and marks the cut with an ellipsis.
func TruncateName(name string, maxRunes int) string {
	if maxRunes <= 0 {
		return name
	}
	runes := []rune(name)
	if len(runes) <= maxRunes {
		return name
	}
	return strings.TrimRightFunc(string(runes[:maxRunes]), unicode.IsSpace) + nameEllipsis
}

func (r *Reducer) autoName(text string) string {
	return TruncateName(SanitizeName(text), r.opts.NameMaxRunes)
}

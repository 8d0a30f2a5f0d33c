package view

import (
	"regexp"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

const outputTabWidth = 4

// mouse reports that lost their ESC prefix survive ansi stripping
var orphanedMouseReport = regexp.MustCompile(`\[<[0-9]+;[0-9]+;[0-9]+[Mm]`)

// SanitizeOutput makes command output safe to place inside a transcript:
// escape sequences and control characters are dropped, tabs are expanded,
// and carriage-return redraws keep only what was drawn last.
func SanitizeOutput(input string) string {
	if input == "" {
		return input
	}
	input = xansi.Strip(input)
	input = orphanedMouseReport.ReplaceAllString(input, "")
	input = strings.ReplaceAll(input, "\r\n", "\n")

	lines := strings.Split(input, "\n")
	for i, line := range lines {
		if index := strings.LastIndexByte(strings.TrimRight(line, "\r"), '\r'); index >= 0 {
			line = line[index+1:]
		}
		lines[i] = dropControl(line)
	}
	return strings.Join(lines, "\n")
}

func dropControl(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		switch {
		case r == '\t':
			b.WriteString(strings.Repeat(" ", outputTabWidth))
		case r < 32 || r == 127:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

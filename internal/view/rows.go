package view

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"threadstate/internal/aggregate"
	"threadstate/internal/threads"
)

const ellipsis = "…"

// FitWidth truncates s to width terminal cells, marking the cut with an
// ellipsis.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}

// PadWidth truncates or right-pads s to exactly width cells.
func PadWidth(s string, width int) string {
	s = FitWidth(s, width)
	return runewidth.FillRight(s, width)
}

// RowLabel is the unstyled text of one thread row: indent, attention marker
// and name, fitted to width.
func RowLabel(row aggregate.ThreadRow, width int) string {
	label := strings.Repeat("  ", row.Depth) + attentionMarker(row.Attention) + " " + row.Thread.Name
	return FitWidth(label, width)
}

// Workspaces returns the ids of every workspace that has visible threads,
// sorted.
func Workspaces(s *threads.State) []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.ThreadsByWorkspace))
	for id, list := range s.ThreadsByWorkspace {
		if len(list) > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ThreadList renders every workspace's thread tree with attention styling.
func ThreadList(s *threads.State, key aggregate.SortKey, width int) string {
	var lines []string
	for _, workspaceID := range Workspaces(s) {
		header := workspaceID
		if unread := aggregate.UnreadCount(s, workspaceID); unread > 0 {
			header += " (" + strconv.Itoa(unread) + ")"
		}
		lines = append(lines, workspaceStyle.Render(FitWidth(header, width)))
		for _, row := range aggregate.ThreadRows(s, workspaceID, key) {
			label := PadWidth(RowLabel(row, width), width)
			style := attentionStyle(row.Attention)
			if row.Active {
				style = activeStyle
			}
			lines = append(lines, style.Render(label))
		}
	}
	if len(lines) == 0 {
		return metaStyle.Render("no threads")
	}
	return strings.Join(lines, "\n")
}

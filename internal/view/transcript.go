package view

import (
	"fmt"
	"strings"

	"threadstate/internal/normalize"
	"threadstate/internal/types"
)

// Transcript lays out a thread's items as one markdown document. Runs of
// explore items are folded first.
func Transcript(items []types.ConversationItem) string {
	items = normalize.FoldExplorations(items)
	blocks := make([]string, 0, len(items))
	for _, item := range items {
		if block := transcriptBlock(item); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func transcriptBlock(item types.ConversationItem) string {
	switch item.Kind {
	case types.ItemKindMessage:
		return messageBlock(item)
	case types.ItemKindReasoning:
		return reasoningBlock(item)
	case types.ItemKindExplore:
		return exploreBlock(item)
	case types.ItemKindDiff:
		if strings.TrimSpace(item.Diff) == "" {
			return ""
		}
		return "**" + item.Title + "**\n\n" + fence("diff", SanitizeOutput(item.Diff))
	case types.ItemKindReview:
		heading := "**Review started**"
		if item.ReviewState == types.ReviewCompleted {
			heading = "**Review completed**"
		}
		if strings.TrimSpace(item.Text) == "" {
			return heading
		}
		return heading + "\n\n" + item.Text
	case types.ItemKindTool:
		return toolBlock(item)
	default:
		return ""
	}
}

func messageBlock(item types.ConversationItem) string {
	var b strings.Builder
	if item.IsUserMessage() {
		b.WriteString("**You**")
		if text := strings.TrimSpace(item.Text); text != "" {
			b.WriteString("\n\n")
			b.WriteString(EscapeMarkdown(text))
		}
		for _, image := range item.Images {
			b.WriteString("\n\n_image: ")
			b.WriteString(image)
			b.WriteString("_")
		}
		return b.String()
	}
	b.WriteString("**Agent**")
	if item.Model != "" {
		b.WriteString(" _(" + item.Model + ")_")
	}
	if text := strings.TrimSpace(item.Text); text != "" {
		b.WriteString("\n\n")
		b.WriteString(text)
	}
	return b.String()
}

func reasoningBlock(item types.ConversationItem) string {
	text := strings.TrimSpace(item.Summary)
	if text == "" {
		text = strings.TrimSpace(item.Content)
	}
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

func exploreBlock(item types.ConversationItem) string {
	heading := "**Explored**"
	if item.Status == types.ExploreStatusExploring {
		heading = "**Exploring**"
	}
	lines := []string{heading, ""}
	for _, entry := range item.Entries {
		line := "- " + exploreVerb(entry.Kind) + " `" + entry.Label + "`"
		if entry.Detail != "" {
			line += " in " + entry.Detail
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func exploreVerb(kind types.ExploreKind) string {
	switch kind {
	case types.ExploreRead:
		return "Read"
	case types.ExploreSearch:
		return "Search"
	case types.ExploreList:
		return "List"
	default:
		return "Run"
	}
}

func toolBlock(item types.ConversationItem) string {
	var b strings.Builder
	b.WriteString("**" + item.Title + "**")
	if item.Status != "" {
		b.WriteString(" _" + item.Status + "_")
	}
	if item.DurationMs != nil {
		fmt.Fprintf(&b, " %s", formatDuration(*item.DurationMs))
	}
	if item.Detail != "" {
		b.WriteString("\n\n")
		b.WriteString(EscapeMarkdown(item.Detail))
	}
	for _, change := range item.Changes {
		if change.Diff == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(fence("diff", SanitizeOutput(change.Diff)))
	}
	if output := strings.TrimRight(SanitizeOutput(item.Output), "\n"); output != "" {
		b.WriteString("\n\n")
		b.WriteString(fence("", output))
	}
	return b.String()
}

func fence(lang, body string) string {
	marker := "```"
	for strings.Contains(body, marker) {
		marker += "`"
	}
	return marker + lang + "\n" + strings.TrimRight(body, "\n") + "\n" + marker
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

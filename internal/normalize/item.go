package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"

	"threadstate/internal/types"
)

const (
	ToolTypeCommand    = "commandExecution"
	ToolTypeFileChange = "fileChange"
	ToolTypeMcp        = "mcpToolCall"
	ToolTypeCollab     = "collabToolCall"
	ToolTypeWebSearch  = "webSearch"
	ToolTypeImageView  = "imageView"
	ToolTypePlan       = "plan"
)

// Item converts one protocol item payload into a ConversationItem. It never
// panics; unrecognized or malformed payloads report false and are dropped by
// the caller.
func Item(raw map[string]any) (item types.ConversationItem, ok bool) {
	defer func() {
		if recover() != nil {
			item, ok = types.ConversationItem{}, false
		}
	}()
	if raw == nil {
		return types.ConversationItem{}, false
	}
	id := strings.TrimSpace(asString(raw["id"]))
	if id == "" {
		return types.ConversationItem{}, false
	}
	switch asString(raw["type"]) {
	case "userMessage":
		return userMessage(id, raw)
	case "agentMessage":
		text := asString(raw["text"])
		if text == "" {
			text = extractContentText(raw["content"])
		}
		return types.ConversationItem{
			ID:   id,
			Kind: types.ItemKindMessage,
			Role: types.RoleAssistant,
			Text: text,
		}, true
	case "reasoning":
		return types.ConversationItem{
			ID:      id,
			Kind:    types.ItemKindReasoning,
			Summary: joinTextList(raw["summary"], "\n\n"),
			Content: joinTextList(raw["content"], "\n"),
		}, true
	case "commandExecution":
		return commandItem(id, raw), true
	case "fileChange":
		return fileChangeItem(id, raw), true
	case "mcpToolCall":
		return mcpToolItem(id, raw), true
	case "collabAgentToolCall", "collabToolCall":
		return collabToolItem(id, raw), true
	case "webSearch":
		return types.ConversationItem{
			ID:       id,
			Kind:     types.ItemKindTool,
			ToolType: ToolTypeWebSearch,
			Title:    "Web search",
			Detail:   asString(raw["query"]),
			Status:   string(itemStatus(raw, types.ItemCompleted)),
		}, true
	case "imageView":
		return types.ConversationItem{
			ID:       id,
			Kind:     types.ItemKindTool,
			ToolType: ToolTypeImageView,
			Title:    "Image view",
			Detail:   asString(raw["path"]),
			Status:   string(itemStatus(raw, types.ItemCompleted)),
		}, true
	case "plan":
		return types.ConversationItem{
			ID:       id,
			Kind:     types.ItemKindTool,
			ToolType: ToolTypePlan,
			Title:    "Plan",
			Output:   asString(raw["text"]),
			Status:   string(itemStatus(raw, types.ItemCompleted)),
		}, true
	case "enteredReviewMode":
		return types.ConversationItem{
			ID:          id,
			Kind:        types.ItemKindReview,
			ReviewState: types.ReviewStarted,
			Text:        asString(raw["review"]),
		}, true
	case "exitedReviewMode":
		return types.ConversationItem{
			ID:          id,
			Kind:        types.ItemKindReview,
			ReviewState: types.ReviewCompleted,
			Text:        asString(raw["review"]),
		}, true
	default:
		return types.ConversationItem{}, false
	}
}

// DiffItem builds the aggregated per-turn diff entry.
func DiffItem(turnID, diff string, status types.ItemStatus) types.ConversationItem {
	return types.ConversationItem{
		ID:     "diff-" + strings.TrimSpace(turnID),
		Kind:   types.ItemKindDiff,
		Title:  "Turn diff",
		Diff:   diff,
		Status: string(status),
	}
}

func userMessage(id string, raw map[string]any) (types.ConversationItem, bool) {
	item := types.ConversationItem{
		ID:   id,
		Kind: types.ItemKindMessage,
		Role: types.RoleUser,
	}
	var texts []string
	if entries, ok := raw["content"].([]any); ok {
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			switch asString(m["type"]) {
			case "text":
				if text := asString(m["text"]); text != "" {
					texts = append(texts, text)
				}
			case "image":
				if url := asString(m["url"]); url != "" {
					item.Images = append(item.Images, url)
				}
			case "localImage":
				if p := asString(m["path"]); p != "" {
					item.Images = append(item.Images, p)
				}
			}
		}
	}
	item.Text = strings.Join(texts, "\n")
	if item.Text == "" {
		item.Text = asString(raw["text"])
	}
	return item, true
}

func commandItem(id string, raw map[string]any) types.ConversationItem {
	command := extractCommand(raw["command"])
	status := itemStatus(raw, "")
	exitCode, hasExit := asInt64(raw["exitCode"])
	failed := status == types.ItemFailed || status == types.ItemDeclined || (hasExit && exitCode != 0)
	if !failed {
		if entries, ok := SummarizeCommand(command); ok {
			exploreStatus := types.ExploreStatusExplored
			if status == types.ItemInProgress || (status == "" && !hasExit) {
				exploreStatus = types.ExploreStatusExploring
			}
			return types.ConversationItem{
				ID:      id,
				Kind:    types.ItemKindExplore,
				Status:  exploreStatus,
				Entries: entries,
			}
		}
	}
	item := types.ConversationItem{
		ID:       id,
		Kind:     types.ItemKindTool,
		ToolType: ToolTypeCommand,
		Title:    "Command: " + cleanTitle(command),
		Detail:   asString(raw["cwd"]),
		Status:   string(status),
		Output:   asString(raw["aggregatedOutput"]),
	}
	if duration, ok := asInt64(raw["durationMs"]); ok {
		item.DurationMs = types.Int64Ptr(duration)
	}
	return item
}

func fileChangeItem(id string, raw map[string]any) types.ConversationItem {
	item := types.ConversationItem{
		ID:       id,
		Kind:     types.ItemKindTool,
		ToolType: ToolTypeFileChange,
		Title:    "File changes",
		Status:   string(itemStatus(raw, "")),
	}
	entries, _ := raw["changes"].([]any)
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		change := types.FileChange{
			Path: asString(m["path"]),
			Diff: asString(m["diff"]),
		}
		switch kind := m["kind"].(type) {
		case string:
			change.Kind = kind
		case map[string]any:
			change.Kind = asString(kind["type"])
		}
		if change.Path == "" {
			continue
		}
		paths = append(paths, change.Path)
		item.Changes = append(item.Changes, change)
	}
	item.Detail = strings.Join(paths, ", ")
	return item
}

func mcpToolItem(id string, raw map[string]any) types.ConversationItem {
	server := asString(raw["server"])
	tool := asString(raw["tool"])
	title := "Tool: " + tool
	if server != "" {
		title = "Tool: " + server + " / " + tool
	}
	item := types.ConversationItem{
		ID:       id,
		Kind:     types.ItemKindTool,
		ToolType: ToolTypeMcp,
		Title:    cleanTitle(title),
		Detail:   compactJSON(raw["arguments"]),
		Status:   string(itemStatus(raw, "")),
	}
	if errPayload, ok := raw["error"].(map[string]any); ok {
		item.Output = asString(errPayload["message"])
	} else if result, ok := raw["result"].(map[string]any); ok {
		item.Output = extractContentText(result["content"])
		if item.Output == "" {
			item.Output = compactJSON(result["structuredContent"])
		}
	}
	if duration, ok := asInt64(raw["durationMs"]); ok {
		item.DurationMs = types.Int64Ptr(duration)
	}
	return item
}

func collabToolItem(id string, raw map[string]any) types.ConversationItem {
	receivers := ReceiverThreadIDs(raw)
	return types.ConversationItem{
		ID:       id,
		Kind:     types.ItemKindTool,
		ToolType: ToolTypeCollab,
		Title:    cleanTitle("Collab: " + asString(raw["tool"])),
		Detail:   asString(raw["prompt"]),
		Status:   string(itemStatus(raw, "")),
		Output:   strings.Join(receivers, ", "),
	}
}

// ReceiverThreadIDs lists the sub-agent threads a collab tool call targets.
func ReceiverThreadIDs(raw map[string]any) []string {
	var out []string
	if list, ok := raw["receiverThreadIds"].([]any); ok {
		for _, entry := range list {
			if id := strings.TrimSpace(asString(entry)); id != "" {
				out = append(out, id)
			}
		}
	}
	if id := strings.TrimSpace(asString(raw["receiverThreadId"])); id != "" {
		out = append(out, id)
	}
	return out
}

// SenderThreadID returns the thread that issued a collab tool call.
func SenderThreadID(raw map[string]any) string {
	return strings.TrimSpace(asString(raw["senderThreadId"]))
}

func itemStatus(raw map[string]any, fallback types.ItemStatus) types.ItemStatus {
	if status, ok := Status(asString(raw["status"])); ok {
		return status
	}
	return fallback
}

func cleanTitle(title string) string {
	title = xansi.Strip(title)
	title = strings.Join(strings.Fields(title), " ")
	return strings.TrimSpace(title)
}

func joinTextList(raw any, sep string) string {
	switch value := raw.(type) {
	case string:
		return value
	case []any:
		parts := make([]string, 0, len(value))
		for _, entry := range value {
			switch v := entry.(type) {
			case string:
				if v != "" {
					parts = append(parts, v)
				}
			case map[string]any:
				if text := asString(v["text"]); text != "" {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, sep)
	default:
		return ""
	}
}

func extractContentText(raw any) string {
	items, ok := raw.([]any)
	if !ok {
		return ""
	}
	var parts []string
	for _, entry := range items {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if typ := asString(m["type"]); typ == "text" || typ == "output_text" || typ == "" {
			if text := asString(m["text"]); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func extractCommand(raw any) string {
	switch value := raw.(type) {
	case string:
		return value
	case []any:
		parts := make([]string, 0, len(value))
		for _, entry := range value {
			if text := asString(entry); text != "" {
				parts = append(parts, quoteArg(text))
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n'\"|&;<>()$`\\*?") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

func compactJSON(raw any) string {
	if raw == nil {
		return ""
	}
	if text, ok := raw.(string); ok {
		return text
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(data)
}

func asString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

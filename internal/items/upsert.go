package items

import (
	"reflect"
	"strconv"
	"strings"

	"threadstate/internal/types"
)

// Field names a streamed text field that deltas append to.
type Field string

const (
	FieldMessageText      Field = "message_text"
	FieldReasoningSummary Field = "reasoning_summary"
	FieldReasoningContent Field = "reasoning_content"
	FieldToolOutput       Field = "tool_output"
)

// Delta is one streamed fragment for an item. TurnID tags assistant messages
// created or still untagged by the fragment.
type Delta struct {
	ID     string
	Field  Field
	Text   string
	TurnID string
}

// Index returns the position of the item with id, or -1.
func Index(list []types.ConversationItem, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Equal reports whether two item lists render identically.
func Equal(a, b []types.ConversationItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !itemEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func itemEqual(a, b types.ConversationItem) bool {
	return reflect.DeepEqual(a, b)
}

// Upsert reconciles incoming against list. changed is false, and list is
// returned as is, when the result would be identical.
func Upsert(list []types.ConversationItem, incoming types.ConversationItem) ([]types.ConversationItem, bool) {
	if strings.TrimSpace(incoming.ID) == "" {
		return list, false
	}
	if incoming.Kind == types.ItemKindReview {
		return upsertReview(list, incoming)
	}
	if incoming.IsAssistantMessage() && matchesCompletedReview(list, incoming.Text) {
		return list, false
	}
	index := Index(list, incoming.ID)
	if index < 0 {
		return appendItem(list, incoming.Clone()), true
	}
	merged := mergeItem(list[index], incoming)
	if itemEqual(merged, list[index]) {
		return list, false
	}
	return replaceAt(list, index, merged), true
}

func upsertReview(list []types.ConversationItem, incoming types.ConversationItem) ([]types.ConversationItem, bool) {
	sameID := false
	for _, item := range list {
		if item.Kind != types.ItemKindReview {
			if item.ID == incoming.ID {
				sameID = true
			}
			continue
		}
		if item.ReviewState == incoming.ReviewState && item.Text == incoming.Text {
			// identical content under any id is a duplicate
			return list, false
		}
		if item.ID == incoming.ID {
			sameID = true
		}
	}
	review := incoming.Clone()
	if sameID {
		review.ID = suffixedID(list, incoming.ID)
	}
	next := appendItem(list, review)
	if review.ReviewState == types.ReviewCompleted {
		next = dropAssistantCopies(next, review.Text)
	}
	return next, true
}

func suffixedID(list []types.ConversationItem, base string) string {
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if Index(list, candidate) < 0 {
			return candidate
		}
	}
}

func matchesCompletedReview(list []types.ConversationItem, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, item := range list {
		if item.Kind == types.ItemKindReview && item.ReviewState == types.ReviewCompleted &&
			strings.TrimSpace(item.Text) == text {
			return true
		}
	}
	return false
}

func dropAssistantCopies(list []types.ConversationItem, text string) []types.ConversationItem {
	text = strings.TrimSpace(text)
	if text == "" {
		return list
	}
	out := list[:0:0]
	for _, item := range list {
		if item.IsAssistantMessage() && strings.TrimSpace(item.Text) == text {
			continue
		}
		out = append(out, item)
	}
	return out
}

// mergeItem folds incoming into existing. A kind change replaces the item.
// Streamed text fields merge with overlap detection; other fields take the
// incoming value when it is set.
func mergeItem(existing, incoming types.ConversationItem) types.ConversationItem {
	if existing.Kind != incoming.Kind {
		return incoming.Clone()
	}
	out := existing.Clone()
	incoming = incoming.Clone()
	switch incoming.Kind {
	case types.ItemKindMessage:
		out.Text = MergeText(existing.Text, incoming.Text)
	case types.ItemKindReasoning:
		out.Summary = MergeText(existing.Summary, incoming.Summary)
		out.Content = MergeText(existing.Content, incoming.Content)
	case types.ItemKindTool:
		out.Output = MergeText(existing.Output, incoming.Output)
	default:
		if incoming.Text != "" {
			out.Text = incoming.Text
		}
	}
	if incoming.Role != "" {
		out.Role = incoming.Role
	}
	if incoming.Images != nil {
		out.Images = incoming.Images
	}
	if incoming.TurnID != "" {
		out.TurnID = incoming.TurnID
	}
	if incoming.Model != "" {
		out.Model = incoming.Model
	}
	if incoming.ContextWindow != nil {
		out.ContextWindow = incoming.ContextWindow
	}
	if incoming.Title != "" {
		out.Title = incoming.Title
	}
	if incoming.Diff != "" {
		out.Diff = incoming.Diff
	}
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if incoming.ReviewState != "" {
		out.ReviewState = incoming.ReviewState
	}
	if incoming.Entries != nil {
		out.Entries = incoming.Entries
	}
	if incoming.ToolType != "" {
		out.ToolType = incoming.ToolType
	}
	if incoming.Detail != "" {
		out.Detail = incoming.Detail
	}
	if incoming.DurationMs != nil {
		out.DurationMs = incoming.DurationMs
	}
	if incoming.Changes != nil {
		out.Changes = incoming.Changes
	}
	return out
}

// CompleteMessage applies the final payload of an assistant message. The
// final text replaces the streamed text only when it is at least as long.
func CompleteMessage(list []types.ConversationItem, final types.ConversationItem) ([]types.ConversationItem, bool) {
	if strings.TrimSpace(final.ID) == "" {
		return list, false
	}
	final.Kind = types.ItemKindMessage
	final.Role = types.RoleAssistant
	if matchesCompletedReview(list, final.Text) {
		if index := Index(list, final.ID); index >= 0 && list[index].IsAssistantMessage() {
			return removeAt(list, index), true
		}
		return list, false
	}
	index := Index(list, final.ID)
	if index < 0 {
		return appendItem(list, final.Clone()), true
	}
	current := list[index]
	if current.Kind != types.ItemKindMessage {
		return replaceAt(list, index, final.Clone()), true
	}
	next := current.Clone()
	next.Role = types.RoleAssistant
	if completionWins(current.Text, final.Text) {
		next.Text = final.Text
	}
	if final.TurnID != "" {
		next.TurnID = final.TurnID
	}
	if final.Model != "" {
		next.Model = final.Model
	}
	if final.ContextWindow != nil {
		next.ContextWindow = types.IntPtr(*final.ContextWindow)
	}
	if itemEqual(next, current) {
		return list, false
	}
	return replaceAt(list, index, next), true
}

// AppendDelta appends a streamed fragment. Messages and reasoning items are
// created on first delta; tool output requires an existing tool item.
func AppendDelta(list []types.ConversationItem, delta Delta) ([]types.ConversationItem, bool) {
	if strings.TrimSpace(delta.ID) == "" || delta.Text == "" {
		return list, false
	}
	index := Index(list, delta.ID)
	if index < 0 {
		created, ok := seedItem(delta)
		if !ok {
			return list, false
		}
		return appendItem(list, created), true
	}
	current := list[index]
	next := current.Clone()
	switch delta.Field {
	case FieldMessageText:
		if current.Kind != types.ItemKindMessage {
			return list, false
		}
		next.Text = MergeText(current.Text, delta.Text)
		if next.TurnID == "" {
			next.TurnID = delta.TurnID
		}
	case FieldReasoningSummary:
		if current.Kind != types.ItemKindReasoning {
			return list, false
		}
		next.Summary = MergeText(current.Summary, delta.Text)
	case FieldReasoningContent:
		if current.Kind != types.ItemKindReasoning {
			return list, false
		}
		next.Content = MergeText(current.Content, delta.Text)
	case FieldToolOutput:
		if current.Kind != types.ItemKindTool {
			return list, false
		}
		next.Output = MergeText(current.Output, delta.Text)
	default:
		return list, false
	}
	if itemEqual(next, current) {
		return list, false
	}
	return replaceAt(list, index, next), true
}

func seedItem(delta Delta) (types.ConversationItem, bool) {
	switch delta.Field {
	case FieldMessageText:
		return types.ConversationItem{
			ID:     delta.ID,
			Kind:   types.ItemKindMessage,
			Role:   types.RoleAssistant,
			Text:   delta.Text,
			TurnID: delta.TurnID,
		}, true
	case FieldReasoningSummary:
		return types.ConversationItem{ID: delta.ID, Kind: types.ItemKindReasoning, Summary: delta.Text}, true
	case FieldReasoningContent:
		return types.ConversationItem{ID: delta.ID, Kind: types.ItemKindReasoning, Content: delta.Text}, true
	default:
		return types.ConversationItem{}, false
	}
}

// AppendReasoningBoundary starts a new summary paragraph on a reasoning item.
func AppendReasoningBoundary(list []types.ConversationItem, id string) ([]types.ConversationItem, bool) {
	index := Index(list, id)
	if index < 0 || list[index].Kind != types.ItemKindReasoning {
		return list, false
	}
	summary := list[index].Summary
	if strings.TrimSpace(summary) == "" || strings.HasSuffix(summary, "\n\n") {
		return list, false
	}
	next := list[index].Clone()
	next.Summary = strings.TrimRight(summary, "\n") + "\n\n"
	return replaceAt(list, index, next), true
}

// BackfillTurnMeta copies a turn's model and context window onto the latest
// assistant message when that message belongs to the turn, or is the
// trailing item and carries no turn id. Nil arguments leave the field alone;
// a contextWindow pointing at nil clears it.
func BackfillTurnMeta(list []types.ConversationItem, turnID string, model *string, contextWindow **int) ([]types.ConversationItem, bool) {
	index := -1
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].IsAssistantMessage() {
			index = i
			break
		}
	}
	if index < 0 {
		return list, false
	}
	message := list[index]
	switch {
	case message.TurnID == turnID:
	case message.TurnID == "" && index == len(list)-1:
	default:
		return list, false
	}
	next := message.Clone()
	if model != nil {
		next.Model = *model
	}
	if contextWindow != nil {
		next.ContextWindow = nil
		if *contextWindow != nil {
			next.ContextWindow = types.IntPtr(**contextWindow)
		}
	}
	if itemEqual(next, message) {
		return list, false
	}
	return replaceAt(list, index, next), true
}

func appendItem(list []types.ConversationItem, item types.ConversationItem) []types.ConversationItem {
	out := make([]types.ConversationItem, len(list), len(list)+1)
	copy(out, list)
	return append(out, item)
}

func replaceAt(list []types.ConversationItem, index int, item types.ConversationItem) []types.ConversationItem {
	out := make([]types.ConversationItem, len(list))
	copy(out, list)
	out[index] = item
	return out
}

func removeAt(list []types.ConversationItem, index int) []types.ConversationItem {
	out := make([]types.ConversationItem, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...)
}

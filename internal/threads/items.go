package threads

import (
	"strings"

	"threadstate/internal/items"
	"threadstate/internal/types"
)

func (r *Reducer) upsertItem(s *State, a UpsertItem) *State {
	threadID := strings.TrimSpace(a.ThreadID)
	if threadID == "" {
		return s
	}
	current := s.ItemsByThread[threadID]
	hadUserMessage := hasUserText(current, a.Item.ID)
	list, changed := items.Upsert(current, a.Item)
	if !changed {
		return s
	}
	next := r.setItems(s, threadID, list)
	switch {
	case a.Item.IsUserMessage():
		if !hadUserMessage && !a.HasCustomName {
			next = r.nameFromUser(next, a.WorkspaceID, threadID, a.Item.Text, a.At)
		}
	case a.Item.IsAssistantMessage():
		index := items.Index(list, a.Item.ID)
		if index >= 0 {
			next = r.afterAssistantText(next, a.WorkspaceID, threadID, list[index], a.HasCustomName, a.At)
		}
	}
	return next
}

func (r *Reducer) setThreadItems(s *State, a SetThreadItems) *State {
	threadID := strings.TrimSpace(a.ThreadID)
	if threadID == "" || items.Equal(s.ItemsByThread[threadID], a.Items) {
		return s
	}
	return r.setItems(s, threadID, a.Items)
}

func (r *Reducer) mergeThreadItems(s *State, a MergeThreadItems) *State {
	threadID := strings.TrimSpace(a.ThreadID)
	if threadID == "" {
		return s
	}
	current := s.ItemsByThread[threadID]
	merged := items.MergeThreadItems(a.Items, current)
	if items.Equal(current, merged) {
		return s
	}
	return r.setItems(s, threadID, merged)
}

func (r *Reducer) appendAgentDelta(s *State, a AppendAgentDelta) *State {
	threadID := strings.TrimSpace(a.ThreadID)
	if threadID == "" {
		return s
	}
	list, changed := items.AppendDelta(s.ItemsByThread[threadID], items.Delta{
		ID:     a.ItemID,
		Field:  items.FieldMessageText,
		Text:   a.Delta,
		TurnID: a.TurnID,
	})
	if !changed {
		return s
	}
	if meta, ok := s.TurnMetaByTurnID[a.TurnID]; ok && a.TurnID != "" {
		list, _ = items.BackfillTurnMeta(list, a.TurnID, modelRef(meta.Model), contextWindowRef(meta.ContextWindow))
	}
	next := r.setItems(s, threadID, list)
	next = r.updateStatus(next, threadID, func(status *types.ThreadStatus) {
		status.MessagePhase = types.MessagePhaseStreaming
	})
	message := list[items.Index(list, a.ItemID)]
	return r.afterAssistantText(next, a.WorkspaceID, threadID, message, a.HasCustomName, a.At)
}

func (r *Reducer) completeAgentMessage(s *State, a CompleteAgentMessage) *State {
	threadID := strings.TrimSpace(a.ThreadID)
	if threadID == "" {
		return s
	}
	final := types.ConversationItem{
		ID:     a.ItemID,
		Kind:   types.ItemKindMessage,
		Role:   types.RoleAssistant,
		Text:   a.Text,
		TurnID: a.TurnID,
	}
	if meta, ok := s.TurnMetaByTurnID[a.TurnID]; ok && a.TurnID != "" {
		final.Model = meta.Model
		final.ContextWindow = meta.ContextWindow
	}
	list, changed := items.CompleteMessage(s.ItemsByThread[threadID], final)
	next := s
	if changed {
		next = r.setItems(s, threadID, list)
	}
	next = r.updateStatus(next, threadID, func(status *types.ThreadStatus) {
		status.MessagePhase = types.MessagePhaseCompleted
	})
	if index := items.Index(list, a.ItemID); index >= 0 && list[index].IsAssistantMessage() {
		next = r.afterAssistantText(next, a.WorkspaceID, threadID, list[index], a.HasCustomName, a.At)
	}
	return next
}

func (r *Reducer) appendReasoning(s *State, threadID, itemID, delta string, content bool) *State {
	field := items.FieldReasoningSummary
	if content {
		field = items.FieldReasoningContent
	}
	list, changed := items.AppendDelta(s.ItemsByThread[threadID], items.Delta{ID: itemID, Field: field, Text: delta})
	if !changed || strings.TrimSpace(threadID) == "" {
		return s
	}
	return r.setItems(s, threadID, list)
}

func (r *Reducer) appendReasoningBoundary(s *State, a AppendReasoningSummaryBoundary) *State {
	list, changed := items.AppendReasoningBoundary(s.ItemsByThread[a.ThreadID], a.ItemID)
	if !changed {
		return s
	}
	return r.setItems(s, a.ThreadID, list)
}

func (r *Reducer) appendToolOutput(s *State, a AppendToolOutput) *State {
	list, changed := items.AppendDelta(s.ItemsByThread[a.ThreadID], items.Delta{ID: a.ItemID, Field: items.FieldToolOutput, Text: a.Delta})
	if !changed {
		return s
	}
	return r.setItems(s, a.ThreadID, list)
}

// afterAssistantText records the latest assistant text for previews and may
// name the thread from it while no user message has done so.
func (r *Reducer) afterAssistantText(s *State, workspaceID, threadID string, message types.ConversationItem, hasCustomName bool, at int64) *State {
	next := s
	if at > 0 && strings.TrimSpace(message.Text) != "" {
		last := types.LastAgentMessage{Text: message.Text, At: at}
		if s.LastAgentMessageByThread[threadID] != last {
			out := *s
			out.LastAgentMessageByThread = withEntry(s.LastAgentMessageByThread, threadID, last)
			next = &out
		}
		next = r.touchThread(next, workspaceID, threadID, at)
	}
	if hasCustomName || hasUserText(next.ItemsByThread[threadID], "") {
		return next
	}
	return r.nameFromAssistant(next, workspaceID, threadID, message.Text)
}

func (r *Reducer) nameFromUser(s *State, workspaceID, threadID, text string, at int64) *State {
	name := r.autoName(text)
	if name == "" || !r.renameable(s, workspaceID, threadID) {
		return s
	}
	return r.renameThread(s, workspaceID, threadID, name, types.NameSourceUser, at)
}

func (r *Reducer) nameFromAssistant(s *State, workspaceID, threadID, text string) *State {
	name := r.autoName(text)
	if name == "" || !r.renameable(s, workspaceID, threadID) {
		return s
	}
	return r.renameThread(s, workspaceID, threadID, name, types.NameSourceAssistant, 0)
}

// renameable reports whether an automatic rename may replace the current
// name. Names derived from assistant output stay replaceable until a
// user message or an explicit rename supplies one.
func (r *Reducer) renameable(s *State, workspaceID, threadID string) bool {
	if workspaceID == "" {
		var ok bool
		if workspaceID, ok = s.WorkspaceOf(threadID); !ok {
			return false
		}
	}
	list := s.ThreadsByWorkspace[workspaceID]
	index := threadIndex(list, threadID)
	if index < 0 {
		return false
	}
	switch s.ThreadNameSourceByID[threadID] {
	case types.NameSourceUser, types.NameSourceCustom:
		return false
	case types.NameSourceAssistant:
		return true
	}
	return IsAutoName(list[index].Name, r.opts.DefaultName)
}

// hasUserText reports whether list holds a non-empty user message other
// than the one with excludeID.
func hasUserText(list []types.ConversationItem, excludeID string) bool {
	for _, item := range list {
		if item.ID == excludeID && excludeID != "" {
			continue
		}
		if item.IsUserMessage() && strings.TrimSpace(item.Text) != "" {
			return true
		}
	}
	return false
}

func modelRef(model string) *string {
	if model == "" {
		return nil
	}
	return &model
}

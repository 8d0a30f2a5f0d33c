package threads

import (
	"reflect"
	"strings"

	"threadstate/internal/items"
	"threadstate/internal/types"
)

func (r *Reducer) setActiveTurn(s *State, a SetActiveTurn) *State {
	threadID, turnID := strings.TrimSpace(a.ThreadID), strings.TrimSpace(a.TurnID)
	if threadID == "" || s.ActiveTurnIDByThread[threadID] == turnID {
		return s
	}
	out := *s
	if turnID == "" {
		out.ActiveTurnIDByThread = withoutEntries(s.ActiveTurnIDByThread, threadID)
	} else {
		out.ActiveTurnIDByThread = withEntry(s.ActiveTurnIDByThread, threadID, turnID)
	}
	return &out
}

func (r *Reducer) setThreadTurnMeta(s *State, a SetThreadTurnMeta) *State {
	var contextWindow **int
	if a.ContextWindow != nil {
		normalized := positiveOrNil(*a.ContextWindow)
		contextWindow = &normalized
	}
	return r.applyTurnMeta(s, a.ThreadID, a.TurnID, modelRef(strings.TrimSpace(a.Model)), contextWindow)
}

func (r *Reducer) setThreadTurnContextWindow(s *State, a SetThreadTurnContextWindow) *State {
	normalized := positiveOrNil(a.ContextWindow)
	return r.applyTurnMeta(s, a.ThreadID, a.TurnID, nil, &normalized)
}

// applyTurnMeta updates both turn metadata indexes and backfills the latest
// assistant message of the turn. A nil model or contextWindow leaves that
// field unchanged; a non-nil contextWindow holding nil clears it.
func (r *Reducer) applyTurnMeta(s *State, threadID, turnID string, model *string, contextWindow **int) *State {
	threadID, turnID = strings.TrimSpace(threadID), strings.TrimSpace(turnID)
	if threadID == "" || turnID == "" {
		return s
	}
	previous, hadPrevious := s.TurnMetaByThreadID[threadID]
	meta, ok := s.TurnMetaByTurnID[turnID]
	if !ok || meta.ThreadID != threadID {
		meta = types.TurnMeta{ThreadID: threadID, TurnID: turnID}
		if hadPrevious && previous.TurnID == turnID {
			meta = previous
		}
	}
	next := meta
	if model != nil {
		next.Model = *model
	}
	if contextWindow != nil {
		next.ContextWindow = *contextWindow
	}

	out := *s
	changed := false
	if !hadPrevious || !previous.Equal(next) {
		out.TurnMetaByThreadID = withEntry(s.TurnMetaByThreadID, threadID, next)
		changed = true
	}
	if stored, ok := s.TurnMetaByTurnID[turnID]; !ok || !stored.Equal(next) {
		out.TurnMetaByTurnID = withEntry(s.TurnMetaByTurnID, turnID, next)
		changed = true
	}
	if hadPrevious && previous.TurnID != "" && previous.TurnID != turnID {
		if _, ok := out.TurnMetaByTurnID[previous.TurnID]; ok {
			out.TurnMetaByTurnID = withoutEntries(out.TurnMetaByTurnID, previous.TurnID)
			changed = true
		}
	}
	backfillWindow := contextWindow
	if backfillWindow == nil {
		backfillWindow = contextWindowRef(next.ContextWindow)
	}
	list, backfilled := items.BackfillTurnMeta(s.ItemsByThread[threadID], turnID, modelRef(next.Model), backfillWindow)
	if backfilled {
		out.ItemsByThread = withEntry(s.ItemsByThread, threadID, list)
		changed = true
	}
	if !changed {
		return s
	}
	return &out
}

func (r *Reducer) setThreadTurnDiff(s *State, a SetThreadTurnDiff) *State {
	threadID := strings.TrimSpace(a.ThreadID)
	if threadID == "" {
		return s
	}
	current, ok := s.TurnDiffByThread[threadID]
	out := *s
	switch {
	case a.Diff == "" && !ok:
		return s
	case a.Diff == "":
		out.TurnDiffByThread = withoutEntries(s.TurnDiffByThread, threadID)
	case ok && current == a.Diff:
		return s
	default:
		out.TurnDiffByThread = withEntry(s.TurnDiffByThread, threadID, a.Diff)
	}
	return &out
}

func (r *Reducer) setThreadPlan(s *State, a SetThreadPlan) *State {
	threadID := strings.TrimSpace(a.ThreadID)
	if threadID == "" {
		return s
	}
	current, ok := s.PlanByThread[threadID]
	out := *s
	if a.Plan == nil {
		if !ok {
			return s
		}
		out.PlanByThread = withoutEntries(s.PlanByThread, threadID)
		return &out
	}
	if ok && reflect.DeepEqual(current, *a.Plan) {
		return s
	}
	out.PlanByThread = withEntry(s.PlanByThread, threadID, *a.Plan)
	return &out
}

func (r *Reducer) setThreadTokenUsage(s *State, a SetThreadTokenUsage) *State {
	threadID := strings.TrimSpace(a.ThreadID)
	if threadID == "" {
		return s
	}
	usage := a.Usage
	if usage.ContextWindow != nil {
		usage.ContextWindow = positiveOrNil(*usage.ContextWindow)
	}
	if current, ok := s.TokenUsageByThread[threadID]; ok && reflect.DeepEqual(current, usage) {
		return s
	}
	out := *s
	out.TokenUsageByThread = withEntry(s.TokenUsageByThread, threadID, usage)
	return &out
}

// contextWindowRef wraps a known context window for backfill; nil means
// there is nothing to copy.
func contextWindowRef(window *int) **int {
	if window == nil {
		return nil
	}
	return &window
}

func positiveOrNil(value int) *int {
	if value <= 0 {
		return nil
	}
	return types.IntPtr(value)
}

package threads

import (
	"strings"

	"threadstate/internal/types"
)

func (r *Reducer) ensureThread(s *State, a EnsureThread) *State {
	workspaceID, threadID := strings.TrimSpace(a.WorkspaceID), strings.TrimSpace(a.ThreadID)
	if workspaceID == "" || threadID == "" || s.IsHidden(workspaceID, threadID) {
		return s
	}
	list := s.ThreadsByWorkspace[workspaceID]
	if threadIndex(list, threadID) >= 0 {
		return s
	}
	summary := types.ThreadSummary{ID: threadID, Name: r.opts.DefaultName}
	next := make([]types.ThreadSummary, 0, len(list)+1)
	next = append(append(next, summary), list...)
	out := *s
	out.ThreadsByWorkspace = withEntry(s.ThreadsByWorkspace, workspaceID, next)
	if !a.Background || s.ActiveThreadIDByWorkspace[workspaceID] == "" {
		out.ActiveThreadIDByWorkspace = withEntry(s.ActiveThreadIDByWorkspace, workspaceID, threadID)
	}
	return &out
}

// setThreads installs the server's thread list. Hidden threads are dropped
// and the active thread is kept even when the server has not caught up.
func (r *Reducer) setThreads(s *State, a SetThreads) *State {
	workspaceID := strings.TrimSpace(a.WorkspaceID)
	if workspaceID == "" {
		return s
	}
	current := s.ThreadsByWorkspace[workspaceID]
	next := make([]types.ThreadSummary, 0, len(a.Threads)+1)
	seen := make(map[string]struct{}, len(a.Threads))
	for _, thread := range a.Threads {
		thread.ID = strings.TrimSpace(thread.ID)
		if thread.ID == "" || s.IsHidden(workspaceID, thread.ID) {
			continue
		}
		if _, dup := seen[thread.ID]; dup {
			continue
		}
		seen[thread.ID] = struct{}{}
		if s.ThreadNameSourceByID[thread.ID] == types.NameSourceCustom {
			if index := threadIndex(current, thread.ID); index >= 0 {
				thread.Name = current[index].Name
			}
		}
		if strings.TrimSpace(thread.Name) == "" {
			thread.Name = r.opts.DefaultName
		}
		next = append(next, thread)
	}
	activeID := s.ActiveThreadIDByWorkspace[workspaceID]
	if activeID != "" && !s.IsHidden(workspaceID, activeID) {
		if _, ok := seen[activeID]; !ok {
			anchor := types.ThreadSummary{ID: activeID, Name: r.opts.DefaultName}
			if index := threadIndex(current, activeID); index >= 0 {
				anchor = current[index]
			}
			next = append([]types.ThreadSummary{anchor}, next...)
		}
	}
	if summariesEqual(current, next) {
		return s
	}
	out := *s
	out.ThreadsByWorkspace = withEntry(s.ThreadsByWorkspace, workspaceID, next)
	return &out
}

func (r *Reducer) setActiveThread(s *State, a SetActiveThread) *State {
	workspaceID, threadID := strings.TrimSpace(a.WorkspaceID), strings.TrimSpace(a.ThreadID)
	if workspaceID == "" {
		return s
	}
	if threadID == "" {
		if _, ok := s.ActiveThreadIDByWorkspace[workspaceID]; !ok {
			return s
		}
		out := *s
		out.ActiveThreadIDByWorkspace = withoutEntries(s.ActiveThreadIDByWorkspace, workspaceID)
		return &out
	}
	if s.IsHidden(workspaceID, threadID) {
		return s
	}
	next := s
	if s.ActiveThreadIDByWorkspace[workspaceID] != threadID {
		out := *s
		out.ActiveThreadIDByWorkspace = withEntry(s.ActiveThreadIDByWorkspace, workspaceID, threadID)
		next = &out
	}
	// selecting a thread reads it
	return r.updateStatus(next, threadID, func(status *types.ThreadStatus) {
		status.HasUnread = false
	})
}

func (r *Reducer) hideThread(s *State, a HideThread) *State {
	workspaceID, threadID := strings.TrimSpace(a.WorkspaceID), strings.TrimSpace(a.ThreadID)
	if workspaceID == "" || threadID == "" || s.IsHidden(workspaceID, threadID) {
		return s
	}
	out := *s
	out.HiddenThreadIDsByWorkspace = withEntry(s.HiddenThreadIDsByWorkspace, workspaceID,
		withEntry(s.HiddenThreadIDsByWorkspace[workspaceID], threadID, true))
	list := s.ThreadsByWorkspace[workspaceID]
	if index := threadIndex(list, threadID); index >= 0 {
		remaining := removeSummary(list, index)
		out.ThreadsByWorkspace = withEntry(s.ThreadsByWorkspace, workspaceID, remaining)
		if s.ActiveThreadIDByWorkspace[workspaceID] == threadID {
			out.ActiveThreadIDByWorkspace = nextActive(s.ActiveThreadIDByWorkspace, workspaceID, remaining, index)
		}
	} else if s.ActiveThreadIDByWorkspace[workspaceID] == threadID {
		out.ActiveThreadIDByWorkspace = nextActive(s.ActiveThreadIDByWorkspace, workspaceID, list, 0)
	}
	return &out
}

func (r *Reducer) unhideThread(s *State, a UnhideThread) *State {
	workspaceID, threadID := strings.TrimSpace(a.WorkspaceID), strings.TrimSpace(a.ThreadID)
	if !s.IsHidden(workspaceID, threadID) {
		return s
	}
	out := *s
	hidden := withoutEntries(s.HiddenThreadIDsByWorkspace[workspaceID], threadID)
	if len(hidden) == 0 {
		out.HiddenThreadIDsByWorkspace = withoutEntries(s.HiddenThreadIDsByWorkspace, workspaceID)
	} else {
		out.HiddenThreadIDsByWorkspace = withEntry(s.HiddenThreadIDsByWorkspace, workspaceID, hidden)
	}
	return &out
}

// removeThread drops a thread and everything keyed by it, including the
// parent links of its children.
func (r *Reducer) removeThread(s *State, a RemoveThread) *State {
	workspaceID, threadID := strings.TrimSpace(a.WorkspaceID), strings.TrimSpace(a.ThreadID)
	if threadID == "" {
		return s
	}
	out := *s
	changed := false
	list := s.ThreadsByWorkspace[workspaceID]
	index := threadIndex(list, threadID)
	if index >= 0 {
		list = removeSummary(list, index)
		out.ThreadsByWorkspace = withEntry(s.ThreadsByWorkspace, workspaceID, list)
		changed = true
	}
	if workspaceID != "" && s.ActiveThreadIDByWorkspace[workspaceID] == threadID {
		out.ActiveThreadIDByWorkspace = nextActive(s.ActiveThreadIDByWorkspace, workspaceID, list, max(index, 0))
		changed = true
	}

	var staleTurns []string
	for turnID, meta := range s.TurnMetaByTurnID {
		if meta.ThreadID == threadID {
			staleTurns = append(staleTurns, turnID)
		}
	}
	if meta, ok := s.TurnMetaByThreadID[threadID]; ok && meta.TurnID != "" {
		staleTurns = append(staleTurns, meta.TurnID)
	}
	orphaned := []string{threadID}
	for childID, parentID := range s.ThreadParentByID {
		if parentID == threadID {
			orphaned = append(orphaned, childID)
		}
	}

	before := cascadeSize(&out)
	out.TurnMetaByTurnID = withoutEntries(s.TurnMetaByTurnID, staleTurns...)
	out.ItemsByThread = withoutEntries(s.ItemsByThread, threadID)
	out.ThreadStatusByID = withoutEntries(s.ThreadStatusByID, threadID)
	out.TurnDiffByThread = withoutEntries(s.TurnDiffByThread, threadID)
	out.TurnMetaByThreadID = withoutEntries(s.TurnMetaByThreadID, threadID)
	out.ActiveTurnIDByThread = withoutEntries(s.ActiveTurnIDByThread, threadID)
	out.PlanByThread = withoutEntries(s.PlanByThread, threadID)
	out.TokenUsageByThread = withoutEntries(s.TokenUsageByThread, threadID)
	out.LastAgentMessageByThread = withoutEntries(s.LastAgentMessageByThread, threadID)
	out.ThreadNameSourceByID = withoutEntries(s.ThreadNameSourceByID, threadID)
	out.ThreadParentByID = withoutEntries(s.ThreadParentByID, orphaned...)
	out.ThreadParentRankByID = withoutEntries(s.ThreadParentRankByID, orphaned...)
	if !changed && cascadeSize(&out) == before {
		return s
	}
	return &out
}

// cascadeSize counts the entries removeThread may delete. withoutEntries
// only ever shrinks a map, so an unchanged count means nothing was removed.
func cascadeSize(s *State) int {
	return len(s.TurnMetaByTurnID) + len(s.ItemsByThread) + len(s.ThreadStatusByID) +
		len(s.TurnDiffByThread) + len(s.TurnMetaByThreadID) + len(s.ActiveTurnIDByThread) +
		len(s.PlanByThread) + len(s.TokenUsageByThread) + len(s.LastAgentMessageByThread) +
		len(s.ThreadNameSourceByID) + len(s.ThreadParentByID) + len(s.ThreadParentRankByID)
}

func (r *Reducer) setThreadName(s *State, a SetThreadName) *State {
	source := a.Source
	if source == "" {
		source = types.NameSourceCustom
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return s
	}
	return r.renameThread(s, a.WorkspaceID, a.ThreadID, name, source, a.At)
}

// renameThread writes a thread's name and name source. A zero at leaves
// UpdatedAt alone.
func (r *Reducer) renameThread(s *State, workspaceID, threadID, name string, source types.NameSource, at int64) *State {
	if workspaceID == "" {
		var ok bool
		if workspaceID, ok = s.WorkspaceOf(threadID); !ok {
			return s
		}
	}
	list := s.ThreadsByWorkspace[workspaceID]
	index := threadIndex(list, threadID)
	if index < 0 {
		return s
	}
	summary := list[index]
	summary.Name = name
	if at > summary.UpdatedAt {
		summary.UpdatedAt = at
	}
	if summary == list[index] && s.ThreadNameSourceByID[threadID] == source {
		return s
	}
	out := *s
	if summary != list[index] {
		out.ThreadsByWorkspace = withEntry(s.ThreadsByWorkspace, workspaceID, replaceSummary(list, index, summary))
	}
	if s.ThreadNameSourceByID[threadID] != source {
		out.ThreadNameSourceByID = withEntry(s.ThreadNameSourceByID, threadID, source)
	}
	return &out
}

// touchThread moves a thread's UpdatedAt forward.
func (r *Reducer) touchThread(s *State, workspaceID, threadID string, at int64) *State {
	if at <= 0 {
		return s
	}
	if workspaceID == "" {
		var ok bool
		if workspaceID, ok = s.WorkspaceOf(threadID); !ok {
			return s
		}
	}
	list := s.ThreadsByWorkspace[workspaceID]
	index := threadIndex(list, threadID)
	if index < 0 || list[index].UpdatedAt >= at {
		return s
	}
	summary := list[index]
	summary.UpdatedAt = at
	out := *s
	out.ThreadsByWorkspace = withEntry(s.ThreadsByWorkspace, workspaceID, replaceSummary(list, index, summary))
	return &out
}

// nextActive selects the thread that moved into the removed thread's slot,
// or the new last thread when the removed one was last.
func nextActive(active map[string]string, workspaceID string, remaining []types.ThreadSummary, removedIndex int) map[string]string {
	if len(remaining) == 0 {
		return withoutEntries(active, workspaceID)
	}
	return withEntry(active, workspaceID, remaining[min(removedIndex, len(remaining)-1)].ID)
}

func removeSummary(list []types.ThreadSummary, index int) []types.ThreadSummary {
	out := make([]types.ThreadSummary, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...)
}

func replaceSummary(list []types.ThreadSummary, index int, summary types.ThreadSummary) []types.ThreadSummary {
	out := make([]types.ThreadSummary, len(list))
	copy(out, list)
	out[index] = summary
	return out
}

func summariesEqual(a, b []types.ThreadSummary) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

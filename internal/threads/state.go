package threads

import "threadstate/internal/types"

// State is the immutable snapshot produced by the reducer. Maps and slices
// reachable from a State returned by Reduce must never be written to; the
// reducer copies any map it changes.
type State struct {
	ActiveThreadIDByWorkspace  map[string]string                   `json:"active_thread_id_by_workspace,omitempty"`
	ThreadsByWorkspace         map[string][]types.ThreadSummary    `json:"threads_by_workspace,omitempty"`
	HiddenThreadIDsByWorkspace map[string]map[string]bool          `json:"hidden_thread_ids_by_workspace,omitempty"`
	ItemsByThread              map[string][]types.ConversationItem `json:"items_by_thread,omitempty"`
	ThreadStatusByID           map[string]types.ThreadStatus       `json:"thread_status_by_id,omitempty"`
	ThreadParentByID           map[string]string                   `json:"thread_parent_by_id,omitempty"`
	ThreadParentRankByID       map[string]float64                  `json:"thread_parent_rank_by_id,omitempty"`
	TurnMetaByThreadID         map[string]types.TurnMeta           `json:"turn_meta_by_thread_id,omitempty"`
	TurnMetaByTurnID           map[string]types.TurnMeta           `json:"turn_meta_by_turn_id,omitempty"`
	ActiveTurnIDByThread       map[string]string                   `json:"active_turn_id_by_thread,omitempty"`
	TurnDiffByThread           map[string]string                   `json:"turn_diff_by_thread,omitempty"`
	PlanByThread               map[string]types.TurnPlan           `json:"plan_by_thread,omitempty"`
	TokenUsageByThread         map[string]types.TokenUsage         `json:"token_usage_by_thread,omitempty"`
	LastAgentMessageByThread   map[string]types.LastAgentMessage   `json:"last_agent_message_by_thread,omitempty"`
	ThreadNameSourceByID       map[string]types.NameSource         `json:"thread_name_source_by_id,omitempty"`
	Approvals                  []types.Approval                    `json:"approvals,omitempty"`
	UserInputRequests          []types.UserInputRequest            `json:"user_input_requests,omitempty"`
}

func NewState() *State {
	return &State{}
}

// Threads returns the visible thread list of a workspace.
func (s *State) Threads(workspaceID string) []types.ThreadSummary {
	if s == nil {
		return nil
	}
	return s.ThreadsByWorkspace[workspaceID]
}

func (s *State) ActiveThreadID(workspaceID string) string {
	if s == nil {
		return ""
	}
	return s.ActiveThreadIDByWorkspace[workspaceID]
}

func (s *State) Items(threadID string) []types.ConversationItem {
	if s == nil {
		return nil
	}
	return s.ItemsByThread[threadID]
}

// Status returns the thread status, or the zero status for unknown threads.
func (s *State) Status(threadID string) types.ThreadStatus {
	if s == nil {
		return types.ThreadStatus{}
	}
	return s.ThreadStatusByID[threadID]
}

func (s *State) IsHidden(workspaceID, threadID string) bool {
	if s == nil {
		return false
	}
	return s.HiddenThreadIDsByWorkspace[workspaceID][threadID]
}

func (s *State) Parent(threadID string) string {
	if s == nil {
		return ""
	}
	return s.ThreadParentByID[threadID]
}

// WorkspaceOf finds the workspace whose visible list holds threadID.
func (s *State) WorkspaceOf(threadID string) (string, bool) {
	if s == nil {
		return "", false
	}
	for workspaceID, list := range s.ThreadsByWorkspace {
		if threadIndex(list, threadID) >= 0 {
			return workspaceID, true
		}
	}
	return "", false
}

// PendingApprovals lists approvals resolved to threadID, in arrival order.
func (s *State) PendingApprovals(threadID string) []types.Approval {
	if s == nil {
		return nil
	}
	var out []types.Approval
	for _, approval := range s.Approvals {
		if approval.ResolvedThreadID() == threadID {
			out = append(out, approval)
		}
	}
	return out
}

// PendingUserInputs lists user-input requests resolved to threadID.
func (s *State) PendingUserInputs(threadID string) []types.UserInputRequest {
	if s == nil {
		return nil
	}
	var out []types.UserInputRequest
	for _, request := range s.UserInputRequests {
		if request.ResolvedThreadID() == threadID {
			out = append(out, request)
		}
	}
	return out
}

func threadIndex(list []types.ThreadSummary, threadID string) int {
	for i := range list {
		if list[i].ID == threadID {
			return i
		}
	}
	return -1
}

func withEntry[K comparable, V any](m map[K]V, key K, value V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

func withoutEntries[K comparable, V any](m map[K]V, keys ...K) map[K]V {
	present := false
	for _, key := range keys {
		if _, ok := m[key]; ok {
			present = true
			break
		}
	}
	if !present {
		return m
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}

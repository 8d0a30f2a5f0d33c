package types

type ThreadSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UpdatedAt int64  `json:"updated_at"`
}

type ThreadPhase string

const (
	PhaseStarting       ThreadPhase = "starting"
	PhaseToolRunning    ThreadPhase = "tool_running"
	PhaseStreaming      ThreadPhase = "streaming"
	PhaseCompleted      ThreadPhase = "completed"
	PhaseFailed         ThreadPhase = "failed"
	PhaseInterrupted    ThreadPhase = "interrupted"
	PhaseStaleRecovered ThreadPhase = "stale_recovered"
	PhaseWaitingUser    ThreadPhase = "waiting_user"
)

// IsTerminal reports whether the phase ends a turn. Terminal phases survive
// a later processing=false transition.
func (p ThreadPhase) IsTerminal() bool {
	switch p {
	case PhaseCompleted, PhaseFailed, PhaseInterrupted, PhaseStaleRecovered:
		return true
	default:
		return false
	}
}

type TurnStatus string

const (
	TurnInProgress  TurnStatus = "inProgress"
	TurnCompleted   TurnStatus = "completed"
	TurnInterrupted TurnStatus = "interrupted"
	TurnFailed      TurnStatus = "failed"
)

func (s TurnStatus) IsTerminal() bool {
	switch s {
	case TurnCompleted, TurnInterrupted, TurnFailed:
		return true
	default:
		return false
	}
}

type WaitReason string

const (
	WaitNone      WaitReason = "none"
	WaitApproval  WaitReason = "approval"
	WaitUserInput WaitReason = "user_input"
	WaitToolWait  WaitReason = "tool_wait"
	WaitRetry     WaitReason = "retry"
)

type RetryState string

const (
	RetryNone     RetryState = "none"
	RetryRetrying RetryState = "retrying"
)

type ItemStatus string

const (
	ItemInProgress ItemStatus = "inProgress"
	ItemCompleted  ItemStatus = "completed"
	ItemDeclined   ItemStatus = "declined"
	ItemFailed     ItemStatus = "failed"
)

func (s ItemStatus) IsTerminal() bool {
	return s == ItemCompleted || s == ItemDeclined || s == ItemFailed
}

type MessagePhase string

const (
	MessagePhaseNone      MessagePhase = ""
	MessagePhaseStreaming MessagePhase = "streaming"
	MessagePhaseCompleted MessagePhase = "completed"
)

// ThreadStatus is the UI-facing runtime status of one thread. Timestamps are
// unix milliseconds supplied by the caller; the reducer never reads a clock.
type ThreadStatus struct {
	IsProcessing           bool                  `json:"is_processing"`
	HasUnread              bool                  `json:"has_unread"`
	IsReviewing            bool                  `json:"is_reviewing"`
	Phase                  ThreadPhase           `json:"phase,omitempty"`
	ProcessingStartedAt    *int64                `json:"processing_started_at,omitempty"`
	LastDurationMs         *int64                `json:"last_duration_ms,omitempty"`
	TurnStatus             TurnStatus            `json:"turn_status,omitempty"`
	WaitReason             WaitReason            `json:"wait_reason,omitempty"`
	RetryState             RetryState            `json:"retry_state,omitempty"`
	ActiveItemStatuses     map[string]ItemStatus `json:"active_item_statuses,omitempty"`
	MessagePhase           MessagePhase          `json:"message_phase,omitempty"`
	LastActivityAt         *int64                `json:"last_activity_at,omitempty"`
	LastErrorAt            *int64                `json:"last_error_at,omitempty"`
	LastErrorMessage       *string               `json:"last_error_message,omitempty"`
	LastMcpProgressMessage *string               `json:"last_mcp_progress_message,omitempty"`
}

// Wait returns the effective wait reason, treating the zero value as none.
func (s ThreadStatus) Wait() WaitReason {
	if s.WaitReason == "" {
		return WaitNone
	}
	return s.WaitReason
}

func (s ThreadStatus) Retry() RetryState {
	if s.RetryState == "" {
		return RetryNone
	}
	return s.RetryState
}

func (s ThreadStatus) Clone() ThreadStatus {
	out := s
	if s.ActiveItemStatuses != nil {
		out.ActiveItemStatuses = make(map[string]ItemStatus, len(s.ActiveItemStatuses))
		for key, value := range s.ActiveItemStatuses {
			out.ActiveItemStatuses[key] = value
		}
	}
	return out
}

// Equal compares every observable field, including pointer targets.
func (s ThreadStatus) Equal(other ThreadStatus) bool {
	if s.IsProcessing != other.IsProcessing ||
		s.HasUnread != other.HasUnread ||
		s.IsReviewing != other.IsReviewing ||
		s.Phase != other.Phase ||
		s.TurnStatus != other.TurnStatus ||
		s.WaitReason != other.WaitReason ||
		s.RetryState != other.RetryState ||
		s.MessagePhase != other.MessagePhase {
		return false
	}
	if !Int64PtrEqual(s.ProcessingStartedAt, other.ProcessingStartedAt) ||
		!Int64PtrEqual(s.LastDurationMs, other.LastDurationMs) ||
		!Int64PtrEqual(s.LastActivityAt, other.LastActivityAt) ||
		!Int64PtrEqual(s.LastErrorAt, other.LastErrorAt) {
		return false
	}
	if !StringPtrEqual(s.LastErrorMessage, other.LastErrorMessage) ||
		!StringPtrEqual(s.LastMcpProgressMessage, other.LastMcpProgressMessage) {
		return false
	}
	if len(s.ActiveItemStatuses) != len(other.ActiveItemStatuses) {
		return false
	}
	for key, value := range s.ActiveItemStatuses {
		if otherValue, ok := other.ActiveItemStatuses[key]; !ok || otherValue != value {
			return false
		}
	}
	return true
}

type TurnMeta struct {
	ThreadID      string `json:"thread_id"`
	TurnID        string `json:"turn_id"`
	Model         string `json:"model,omitempty"`
	ContextWindow *int   `json:"context_window,omitempty"`
}

func (m TurnMeta) Equal(other TurnMeta) bool {
	return m.ThreadID == other.ThreadID &&
		m.TurnID == other.TurnID &&
		m.Model == other.Model &&
		IntPtrEqual(m.ContextWindow, other.ContextWindow)
}

// ParentOrdering is the logical clock carried by a parent assignment.
// Timestamp wins when finite; Version is the fallback.
type ParentOrdering struct {
	Timestamp *float64 `json:"timestamp,omitempty"`
	Version   *float64 `json:"version,omitempty"`
}

type PlanStep struct {
	Step   string `json:"step"`
	Status string `json:"status"`
}

type TurnPlan struct {
	TurnID      string     `json:"turn_id"`
	Explanation string     `json:"explanation,omitempty"`
	Steps       []PlanStep `json:"steps"`
}

type TokenUsage struct {
	TotalTokens           int64 `json:"total_tokens"`
	InputTokens           int64 `json:"input_tokens"`
	CachedInputTokens     int64 `json:"cached_input_tokens"`
	OutputTokens          int64 `json:"output_tokens"`
	ReasoningOutputTokens int64 `json:"reasoning_output_tokens"`
	ContextWindow         *int  `json:"context_window,omitempty"`
}

type LastAgentMessage struct {
	Text string `json:"text"`
	At   int64  `json:"at"`
}

type NameSource string

const (
	NameSourceAuto      NameSource = "auto"
	NameSourceAssistant NameSource = "assistant"
	NameSourceUser      NameSource = "user"
	NameSourceCustom    NameSource = "custom"
)

package threads

import "threadstate/internal/types"

// Action is the closed set of state transitions. Only types declared in this
// package implement it.
type Action interface {
	action()
}

// EnsureThread adds a thread to its workspace on first reference. A new
// thread becomes the active one; Background only activates it when the
// workspace has no active thread yet.
type EnsureThread struct {
	WorkspaceID string
	ThreadID    string
	Background  bool
}

// SetThreads replaces a workspace's thread list with the server's view.
type SetThreads struct {
	WorkspaceID string
	Threads     []types.ThreadSummary
}

// SetActiveThread selects a thread; an empty ThreadID clears the selection.
type SetActiveThread struct {
	WorkspaceID string
	ThreadID    string
}

type HideThread struct {
	WorkspaceID string
	ThreadID    string
}

type UnhideThread struct {
	WorkspaceID string
	ThreadID    string
}

type RemoveThread struct {
	WorkspaceID string
	ThreadID    string
}

// SetThreadName renames a thread. Source defaults to custom.
type SetThreadName struct {
	WorkspaceID string
	ThreadID    string
	Name        string
	Source      types.NameSource
	At          int64
}

type SetThreadParent struct {
	ThreadID string
	ParentID string
	Ordering *types.ParentOrdering
}

type SetThreadPhase struct {
	ThreadID string
	Phase    types.ThreadPhase
	At       int64
}

type MarkProcessing struct {
	ThreadID     string
	IsProcessing bool
	At           int64
}

type MarkReviewing struct {
	ThreadID    string
	IsReviewing bool
}

type MarkUnread struct {
	ThreadID  string
	HasUnread bool
}

type SetThreadTurnStatus struct {
	ThreadID   string
	TurnStatus types.TurnStatus
	At         int64
}

type SetThreadRetryState struct {
	ThreadID   string
	RetryState types.RetryState
}

type MarkThreadError struct {
	ThreadID string
	Message  string
	At       int64
}

// SetActiveItemStatus tracks an in-flight item. Terminal statuses drop the
// item from the active set.
type SetActiveItemStatus struct {
	ThreadID string
	ItemID   string
	Status   types.ItemStatus
}

type SetMcpProgress struct {
	ThreadID string
	Message  string
}

// UpsertItem merges a normalized item into a thread. HasCustomName blocks
// automatic renaming.
type UpsertItem struct {
	WorkspaceID   string
	ThreadID      string
	Item          types.ConversationItem
	HasCustomName bool
	At            int64
}

// SetThreadItems replaces a thread's items outright.
type SetThreadItems struct {
	ThreadID string
	Items    []types.ConversationItem
}

// MergeThreadItems folds a server-side item list into the local one.
type MergeThreadItems struct {
	ThreadID string
	Items    []types.ConversationItem
}

type AppendAgentDelta struct {
	WorkspaceID   string
	ThreadID      string
	ItemID        string
	TurnID        string
	Delta         string
	HasCustomName bool
	At            int64
}

type CompleteAgentMessage struct {
	WorkspaceID   string
	ThreadID      string
	ItemID        string
	TurnID        string
	Text          string
	HasCustomName bool
	At            int64
}

type AppendReasoningSummary struct {
	ThreadID string
	ItemID   string
	Delta    string
}

type AppendReasoningSummaryBoundary struct {
	ThreadID string
	ItemID   string
}

type AppendReasoningContent struct {
	ThreadID string
	ItemID   string
	Delta    string
}

type AppendToolOutput struct {
	ThreadID string
	ItemID   string
	Delta    string
}

// SetActiveTurn records the turn currently running on a thread. An empty
// TurnID clears it.
type SetActiveTurn struct {
	ThreadID string
	TurnID   string
}

// SetThreadTurnMeta records turn metadata. An empty Model or nil
// ContextWindow keeps the stored value.
type SetThreadTurnMeta struct {
	ThreadID      string
	TurnID        string
	Model         string
	ContextWindow *int
}

// SetThreadTurnContextWindow records a turn's context window. Non-positive
// values clear it.
type SetThreadTurnContextWindow struct {
	ThreadID      string
	TurnID        string
	ContextWindow int
}

type SetThreadTurnDiff struct {
	ThreadID string
	Diff     string
}

// SetThreadPlan stores the latest plan; nil clears it.
type SetThreadPlan struct {
	ThreadID string
	Plan     *types.TurnPlan
}

type SetThreadTokenUsage struct {
	ThreadID string
	Usage    types.TokenUsage
}

type AddApproval struct {
	Approval types.Approval
}

type RemoveApproval struct {
	WorkspaceID string
	RequestID   string
}

type AddUserInputRequest struct {
	Request types.UserInputRequest
}

type RemoveUserInputRequest struct {
	WorkspaceID string
	RequestID   string
}

// Batch applies Actions in order.
type Batch struct {
	Actions []Action
}

func (EnsureThread) action()                   {}
func (SetThreads) action()                     {}
func (SetActiveThread) action()                {}
func (HideThread) action()                     {}
func (UnhideThread) action()                   {}
func (RemoveThread) action()                   {}
func (SetThreadName) action()                  {}
func (SetThreadParent) action()                {}
func (SetThreadPhase) action()                 {}
func (MarkProcessing) action()                 {}
func (MarkReviewing) action()                  {}
func (MarkUnread) action()                     {}
func (SetThreadTurnStatus) action()            {}
func (SetThreadRetryState) action()            {}
func (MarkThreadError) action()                {}
func (SetActiveItemStatus) action()            {}
func (SetMcpProgress) action()                 {}
func (UpsertItem) action()                     {}
func (SetThreadItems) action()                 {}
func (MergeThreadItems) action()               {}
func (AppendAgentDelta) action()               {}
func (CompleteAgentMessage) action()           {}
func (AppendReasoningSummary) action()         {}
func (AppendReasoningSummaryBoundary) action() {}
func (AppendReasoningContent) action()         {}
func (AppendToolOutput) action()               {}
func (SetActiveTurn) action()                  {}
func (SetThreadTurnMeta) action()              {}
func (SetThreadTurnContextWindow) action()     {}
func (SetThreadTurnDiff) action()              {}
func (SetThreadPlan) action()                  {}
func (SetThreadTokenUsage) action()            {}
func (AddApproval) action()                    {}
func (RemoveApproval) action()                 {}
func (AddUserInputRequest) action()            {}
func (RemoveUserInputRequest) action()         {}
func (Batch) action()                          {}

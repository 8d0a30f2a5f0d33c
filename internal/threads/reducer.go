package threads

import (
	"strings"

	"threadstate/internal/types"
)

type Options struct {
	DefaultName  string
	NameMaxRunes int
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.DefaultName) == "" {
		o.DefaultName = DefaultThreadName
	}
	if o.NameMaxRunes <= 0 {
		o.NameMaxRunes = DefaultNameMaxRunes
	}
	return o
}

// Reducer folds actions into State. It holds configuration only; all state
// lives in the values passed through Reduce.
type Reducer struct {
	opts Options
}

func NewReducer(opts Options) *Reducer {
	return &Reducer{opts: opts.withDefaults()}
}

var defaultReducer = NewReducer(Options{})

// Reduce applies action with the default options.
func Reduce(s *State, action Action) *State {
	return defaultReducer.Reduce(s, action)
}

// Reduce returns the state after action. The result is s itself when the
// action changes nothing observable, including for nil and unknown actions.
func (r *Reducer) Reduce(s *State, action Action) *State {
	if s == nil {
		s = NewState()
	}
	switch a := action.(type) {
	case EnsureThread:
		return r.ensureThread(s, a)
	case SetThreads:
		return r.setThreads(s, a)
	case SetActiveThread:
		return r.setActiveThread(s, a)
	case HideThread:
		return r.hideThread(s, a)
	case UnhideThread:
		return r.unhideThread(s, a)
	case RemoveThread:
		return r.removeThread(s, a)
	case SetThreadName:
		return r.setThreadName(s, a)
	case SetThreadParent:
		return r.setThreadParent(s, a)
	case SetThreadPhase:
		return r.setThreadPhase(s, a)
	case MarkProcessing:
		return r.markProcessing(s, a)
	case MarkReviewing:
		return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
			status.IsReviewing = a.IsReviewing
		})
	case MarkUnread:
		return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
			status.HasUnread = a.HasUnread
		})
	case SetThreadTurnStatus:
		return r.setThreadTurnStatus(s, a)
	case SetThreadRetryState:
		return r.setThreadRetryState(s, a)
	case MarkThreadError:
		return r.markThreadError(s, a)
	case SetActiveItemStatus:
		return r.setActiveItemStatus(s, a)
	case SetMcpProgress:
		return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
			status.LastMcpProgressMessage = trimmedOrNil(a.Message)
		})
	case UpsertItem:
		return r.upsertItem(s, a)
	case SetThreadItems:
		return r.setThreadItems(s, a)
	case MergeThreadItems:
		return r.mergeThreadItems(s, a)
	case AppendAgentDelta:
		return r.appendAgentDelta(s, a)
	case CompleteAgentMessage:
		return r.completeAgentMessage(s, a)
	case AppendReasoningSummary:
		return r.appendReasoning(s, a.ThreadID, a.ItemID, a.Delta, false)
	case AppendReasoningSummaryBoundary:
		return r.appendReasoningBoundary(s, a)
	case AppendReasoningContent:
		return r.appendReasoning(s, a.ThreadID, a.ItemID, a.Delta, true)
	case AppendToolOutput:
		return r.appendToolOutput(s, a)
	case SetActiveTurn:
		return r.setActiveTurn(s, a)
	case SetThreadTurnMeta:
		return r.setThreadTurnMeta(s, a)
	case SetThreadTurnContextWindow:
		return r.setThreadTurnContextWindow(s, a)
	case SetThreadTurnDiff:
		return r.setThreadTurnDiff(s, a)
	case SetThreadPlan:
		return r.setThreadPlan(s, a)
	case SetThreadTokenUsage:
		return r.setThreadTokenUsage(s, a)
	case AddApproval:
		return r.addApproval(s, a)
	case RemoveApproval:
		return r.removeApproval(s, a)
	case AddUserInputRequest:
		return r.addUserInputRequest(s, a)
	case RemoveUserInputRequest:
		return r.removeUserInputRequest(s, a)
	case Batch:
		return r.Batch(s, a.Actions)
	default:
		return s
	}
}

// Batch applies actions strictly in order. An empty batch returns s.
func (r *Reducer) Batch(s *State, actions []Action) *State {
	if s == nil {
		s = NewState()
	}
	next := s
	for _, action := range actions {
		next = r.Reduce(next, action)
	}
	return next
}

// updateStatus applies fn to a copy of the thread's status and stores it
// only when something changed.
func (r *Reducer) updateStatus(s *State, threadID string, fn func(*types.ThreadStatus)) *State {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return s
	}
	current := s.ThreadStatusByID[threadID]
	next := current.Clone()
	fn(&next)
	if next.Equal(current) {
		return s
	}
	out := *s
	out.ThreadStatusByID = withEntry(s.ThreadStatusByID, threadID, next)
	return &out
}

func (r *Reducer) setItems(s *State, threadID string, list []types.ConversationItem) *State {
	out := *s
	out.ItemsByThread = withEntry(s.ItemsByThread, threadID, list)
	return &out
}

func trimmedOrNil(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

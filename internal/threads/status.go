package threads

import (
	"threadstate/internal/types"
)

func (r *Reducer) setThreadPhase(s *State, a SetThreadPhase) *State {
	if a.Phase == "" {
		return s
	}
	return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
		status.Phase = a.Phase
		if a.At > 0 {
			status.LastActivityAt = types.Int64Ptr(a.At)
		}
		switch {
		case a.Phase == types.PhaseToolRunning:
			status.IsProcessing = true
			if status.ProcessingStartedAt == nil && a.At > 0 {
				status.ProcessingStartedAt = types.Int64Ptr(a.At)
			}
			status.WaitReason = types.WaitToolWait
			status.RetryState = types.RetryNone
		case a.Phase == types.PhaseStreaming:
			status.WaitReason = types.WaitNone
		case a.Phase == types.PhaseCompleted:
			status.IsProcessing = false
			status.ProcessingStartedAt = nil
			status.ActiveItemStatuses = nil
		}
	})
}

func (r *Reducer) markProcessing(s *State, a MarkProcessing) *State {
	current := s.ThreadStatusByID[a.ThreadID]
	// a tool phase can mark the thread processing before the turn start
	// arrives; that start still records the missing start time
	backfillStart := a.IsProcessing && current.IsProcessing && current.ProcessingStartedAt == nil && a.At > 0
	if current.IsProcessing == a.IsProcessing && !backfillStart {
		return s
	}
	waiting := pendingWait(s, a.ThreadID)
	return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
		if a.At > 0 {
			status.LastActivityAt = types.Int64Ptr(a.At)
		}
		if backfillStart {
			status.ProcessingStartedAt = types.Int64Ptr(a.At)
			return
		}
		if a.IsProcessing {
			status.IsProcessing = true
			status.ProcessingStartedAt = types.Int64Ptr(a.At)
			status.Phase = types.PhaseStarting
			if waiting != types.WaitNone {
				status.Phase = types.PhaseWaitingUser
			}
			return
		}
		status.IsProcessing = false
		if status.ProcessingStartedAt != nil {
			duration := a.At - *status.ProcessingStartedAt
			if duration < 0 {
				duration = 0
			}
			status.LastDurationMs = types.Int64Ptr(duration)
		}
		status.ProcessingStartedAt = nil
		if status.Wait() == types.WaitRetry {
			status.RetryState = types.RetryNone
		} else {
			status.WaitReason = waiting
		}
		status.LastMcpProgressMessage = nil
		status.ActiveItemStatuses = nil
		if !status.Phase.IsTerminal() && waiting == types.WaitNone {
			status.Phase = types.PhaseCompleted
		}
	})
}

func (r *Reducer) setThreadTurnStatus(s *State, a SetThreadTurnStatus) *State {
	if a.TurnStatus == "" {
		return s
	}
	return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
		status.TurnStatus = a.TurnStatus
		if !a.TurnStatus.IsTerminal() {
			return
		}
		status.WaitReason = types.WaitNone
		status.RetryState = types.RetryNone
		status.ActiveItemStatuses = nil
		status.LastMcpProgressMessage = nil
		if a.At > 0 {
			status.LastActivityAt = types.Int64Ptr(a.At)
		}
	})
}

// setThreadRetryState records a caller-reported retry. A pending approval
// or user-input request keeps its wait reason; the retry is restored once
// those requests are resolved.
func (r *Reducer) setThreadRetryState(s *State, a SetThreadRetryState) *State {
	waiting := pendingWait(s, a.ThreadID)
	return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
		switch a.RetryState {
		case types.RetryRetrying:
			status.RetryState = types.RetryRetrying
			if waiting == types.WaitNone {
				status.WaitReason = types.WaitRetry
			}
		case types.RetryNone, "":
			status.RetryState = types.RetryNone
			if status.Wait() == types.WaitRetry {
				status.WaitReason = types.WaitNone
			}
		}
	})
}

func (r *Reducer) markThreadError(s *State, a MarkThreadError) *State {
	return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
		status.LastErrorMessage = trimmedOrNil(a.Message)
		status.LastErrorAt = types.Int64Ptr(a.At)
		status.Phase = types.PhaseFailed
	})
}

func (r *Reducer) setActiveItemStatus(s *State, a SetActiveItemStatus) *State {
	if a.ItemID == "" || a.Status == "" {
		return s
	}
	return r.updateStatus(s, a.ThreadID, func(status *types.ThreadStatus) {
		if a.Status.IsTerminal() {
			if _, ok := status.ActiveItemStatuses[a.ItemID]; !ok {
				return
			}
			delete(status.ActiveItemStatuses, a.ItemID)
			if len(status.ActiveItemStatuses) == 0 {
				status.ActiveItemStatuses = nil
			}
			return
		}
		if status.ActiveItemStatuses == nil {
			status.ActiveItemStatuses = map[string]types.ItemStatus{}
		}
		status.ActiveItemStatuses[a.ItemID] = a.Status
	})
}

package threads

import (
	"strings"

	"threadstate/internal/types"
)

// pendingWait is the wait reason implied by the requests queued for a thread
// when a new one arrives. User input outranks approval.
func pendingWait(s *State, threadID string) types.WaitReason {
	if strings.TrimSpace(threadID) == "" {
		return types.WaitNone
	}
	if len(s.PendingUserInputs(threadID)) > 0 {
		return types.WaitUserInput
	}
	if len(s.PendingApprovals(threadID)) > 0 {
		return types.WaitApproval
	}
	return types.WaitNone
}

// remainingWait is the wait reason left once a request is resolved. Approval
// is checked first, so resolving a user input with an approval still queued
// falls back to the approval.
func remainingWait(s *State, threadID string) types.WaitReason {
	if strings.TrimSpace(threadID) == "" {
		return types.WaitNone
	}
	if len(s.PendingApprovals(threadID)) > 0 {
		return types.WaitApproval
	}
	if len(s.PendingUserInputs(threadID)) > 0 {
		return types.WaitUserInput
	}
	return types.WaitNone
}

func (r *Reducer) addApproval(s *State, a AddApproval) *State {
	approval := a.Approval
	if strings.TrimSpace(approval.RequestID) == "" {
		return s
	}
	for _, existing := range s.Approvals {
		if existing.Key() == approval.Key() {
			return s
		}
	}
	out := *s
	out.Approvals = append(append(make([]types.Approval, 0, len(s.Approvals)+1), s.Approvals...), approval)
	return r.enterWait(&out, approval.ResolvedThreadID())
}

func (r *Reducer) addUserInputRequest(s *State, a AddUserInputRequest) *State {
	request := a.Request
	if strings.TrimSpace(request.RequestID) == "" {
		return s
	}
	for _, existing := range s.UserInputRequests {
		if existing.Key() == request.Key() {
			return s
		}
	}
	out := *s
	out.UserInputRequests = append(append(make([]types.UserInputRequest, 0, len(s.UserInputRequests)+1), s.UserInputRequests...), request)
	return r.enterWait(&out, request.ResolvedThreadID())
}

func (r *Reducer) removeApproval(s *State, a RemoveApproval) *State {
	key := types.RequestKey{WorkspaceID: a.WorkspaceID, RequestID: a.RequestID}
	index := -1
	for i, existing := range s.Approvals {
		if existing.Key() == key {
			index = i
			break
		}
	}
	if index < 0 {
		return s
	}
	threadID := s.Approvals[index].ResolvedThreadID()
	out := *s
	out.Approvals = append(append(make([]types.Approval, 0, len(s.Approvals)-1), s.Approvals[:index]...), s.Approvals[index+1:]...)
	return r.leaveWait(&out, threadID)
}

func (r *Reducer) removeUserInputRequest(s *State, a RemoveUserInputRequest) *State {
	key := types.RequestKey{WorkspaceID: a.WorkspaceID, RequestID: a.RequestID}
	index := -1
	for i, existing := range s.UserInputRequests {
		if existing.Key() == key {
			index = i
			break
		}
	}
	if index < 0 {
		return s
	}
	threadID := s.UserInputRequests[index].ResolvedThreadID()
	out := *s
	out.UserInputRequests = append(append(make([]types.UserInputRequest, 0, len(s.UserInputRequests)-1), s.UserInputRequests[:index]...), s.UserInputRequests[index+1:]...)
	return r.leaveWait(&out, threadID)
}

// enterWait points the thread's wait reason at its pending requests. s has
// already been copied by the caller.
func (r *Reducer) enterWait(s *State, threadID string) *State {
	if threadID == "" {
		return s
	}
	waiting := pendingWait(s, threadID)
	return r.updateStatus(s, threadID, func(status *types.ThreadStatus) {
		status.WaitReason = waiting
		status.Phase = types.PhaseWaitingUser
	})
}

// leaveWait recomputes the wait reason after a request was resolved. A retry
// that was in flight before the request arrived is restored.
func (r *Reducer) leaveWait(s *State, threadID string) *State {
	if threadID == "" {
		return s
	}
	waiting := remainingWait(s, threadID)
	return r.updateStatus(s, threadID, func(status *types.ThreadStatus) {
		switch {
		case waiting != types.WaitNone:
			status.WaitReason = waiting
		case status.Retry() == types.RetryRetrying || status.Wait() == types.WaitRetry:
			status.WaitReason = types.WaitRetry
		default:
			status.WaitReason = types.WaitNone
		}
		if waiting == types.WaitNone && status.Phase == types.PhaseWaitingUser {
			if status.IsProcessing {
				status.Phase = types.PhaseStreaming
			} else {
				status.Phase = types.PhaseCompleted
			}
		}
	})
}

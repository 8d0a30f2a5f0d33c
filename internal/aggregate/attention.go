package aggregate

import (
	"threadstate/internal/threads"
	"threadstate/internal/types"
)

type Attention string

const (
	AttentionNone      Attention = "none"
	AttentionRunning   Attention = "running"
	AttentionUnread    Attention = "unread"
	AttentionError     Attention = "error"
	AttentionApproval  Attention = "approval"
	AttentionUserInput Attention = "user_input"
)

// ThreadAttention ranks what a thread most needs from the user.
func ThreadAttention(s *threads.State, threadID string) Attention {
	status := s.Status(threadID)
	switch {
	case status.Wait() == types.WaitUserInput || len(s.PendingUserInputs(threadID)) > 0:
		return AttentionUserInput
	case status.Wait() == types.WaitApproval || len(s.PendingApprovals(threadID)) > 0:
		return AttentionApproval
	case status.Phase == types.PhaseFailed || status.TurnStatus == types.TurnFailed:
		return AttentionError
	case status.IsProcessing:
		return AttentionRunning
	case status.HasUnread:
		return AttentionUnread
	default:
		return AttentionNone
	}
}

// UnreadCount counts visible threads of a workspace with unread output.
func UnreadCount(s *threads.State, workspaceID string) int {
	count := 0
	for _, thread := range s.Threads(workspaceID) {
		if s.Status(thread.ID).HasUnread {
			count++
		}
	}
	return count
}

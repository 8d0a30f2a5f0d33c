package aggregate

import (
	"threadstate/internal/threads"
	"threadstate/internal/types"
)

// SubAgentFunc reports whether a thread was spawned by another agent.
type SubAgentFunc func(s *threads.State, threadID string) bool

// HasParent is the default sub-agent predicate.
func HasParent(s *threads.State, threadID string) bool {
	return s.Parent(threadID) != ""
}

// BadgeCount counts threads that finished a turn and sit idle, plus pending
// requests that could not be tied to a thread. Sub-agent threads are left
// out; a nil isSubAgent uses HasParent.
func BadgeCount(s *threads.State, isSubAgent SubAgentFunc) int {
	if s == nil {
		return 0
	}
	if isSubAgent == nil {
		isSubAgent = HasParent
	}
	type pair struct{ workspaceID, threadID string }
	counted := map[pair]struct{}{}
	for workspaceID, list := range s.ThreadsByWorkspace {
		for _, thread := range list {
			if !completedAndIdle(s.Status(thread.ID)) || isSubAgent(s, thread.ID) {
				continue
			}
			counted[pair{workspaceID, thread.ID}] = struct{}{}
		}
	}
	requests := map[types.RequestKey]struct{}{}
	for _, approval := range s.Approvals {
		if approval.ResolvedThreadID() == "" {
			requests[approval.Key()] = struct{}{}
		}
	}
	for _, request := range s.UserInputRequests {
		if request.ResolvedThreadID() == "" {
			requests[request.Key()] = struct{}{}
		}
	}
	return len(counted) + len(requests)
}

func completedAndIdle(status types.ThreadStatus) bool {
	return status.TurnStatus == types.TurnCompleted &&
		!status.IsProcessing &&
		(status.WaitReason == "" || status.WaitReason == types.WaitNone)
}

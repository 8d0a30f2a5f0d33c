package threads

import (
	"math"
	"strings"

	"threadstate/internal/types"
)

// OrderingRank flattens a parent ordering to its logical clock value: the
// timestamp when finite, else the version, else zero.
func OrderingRank(ordering *types.ParentOrdering) float64 {
	if ordering == nil {
		return 0
	}
	if ordering.Timestamp != nil && isFinite(*ordering.Timestamp) {
		return *ordering.Timestamp
	}
	if ordering.Version != nil && isFinite(*ordering.Version) {
		return *ordering.Version
	}
	return 0
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// setThreadParent links a thread to its parent. Assignments with a lower
// rank than the stored one are stale and ignored, as are links that would
// make a thread its own ancestor.
func (r *Reducer) setThreadParent(s *State, a SetThreadParent) *State {
	threadID, parentID := strings.TrimSpace(a.ThreadID), strings.TrimSpace(a.ParentID)
	if threadID == "" || parentID == "" || threadID == parentID {
		return s
	}
	rank := OrderingRank(a.Ordering)
	storedRank, ranked := s.ThreadParentRankByID[threadID]
	if ranked && rank < storedRank {
		return s
	}
	if isAncestor(s, threadID, parentID) {
		return s
	}
	currentParent := s.ThreadParentByID[threadID]
	if currentParent == parentID && ranked && rank == storedRank {
		return s
	}
	out := *s
	if currentParent != parentID {
		out.ThreadParentByID = withEntry(s.ThreadParentByID, threadID, parentID)
	}
	if !ranked || rank != storedRank {
		out.ThreadParentRankByID = withEntry(s.ThreadParentRankByID, threadID, rank)
	}
	return &out
}

// isAncestor reports whether candidate appears on the parent chain of
// threadID's would-be parent.
func isAncestor(s *State, candidate, parentID string) bool {
	seen := map[string]struct{}{}
	for id := parentID; id != ""; id = s.ThreadParentByID[id] {
		if id == candidate {
			return true
		}
		if _, ok := seen[id]; ok {
			return false
		}
		seen[id] = struct{}{}
	}
	return false
}

// Children lists the direct children of threadID, in no particular order.
func (s *State) Children(threadID string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for childID, parentID := range s.ThreadParentByID {
		if parentID == threadID {
			out = append(out, childID)
		}
	}
	return out
}

package threads

import (
	"math"
	"testing"

	"threadstate/internal/types"
)

func ts(value float64) *types.ParentOrdering {
	return &types.ParentOrdering{Timestamp: &value}
}

func TestSetThreadParentRankMonotonic(t *testing.T) {
	s := NewState()
	s = Reduce(s, SetThreadParent{ThreadID: "t", ParentID: "p1", Ordering: ts(200)})
	s = Reduce(s, SetThreadParent{ThreadID: "t", ParentID: "p2", Ordering: ts(100)})
	if got := s.Parent("t"); got != "p1" {
		t.Fatalf("expected higher rank to win, got %q", got)
	}
	tie := Reduce(s, SetThreadParent{ThreadID: "t", ParentID: "p3", Ordering: ts(200)})
	if got := tie.Parent("t"); got != "p3" {
		t.Fatalf("expected tie to update the parent, got %q", got)
	}
	if again := Reduce(tie, SetThreadParent{ThreadID: "t", ParentID: "p3", Ordering: ts(200)}); again != tie {
		t.Fatalf("expected repeated assignment to return the same state")
	}
}

func TestSetThreadParentRejectsInvalid(t *testing.T) {
	s := NewState()
	for _, action := range []SetThreadParent{
		{ThreadID: "t", ParentID: "t"},
		{ThreadID: "t", ParentID: "  "},
		{ThreadID: "", ParentID: "p"},
	} {
		if got := Reduce(s, action); got != s {
			t.Fatalf("expected %#v to be rejected", action)
		}
	}
	s = Reduce(s, SetThreadParent{ThreadID: "child", ParentID: "root"})
	if got := Reduce(s, SetThreadParent{ThreadID: "root", ParentID: "child", Ordering: ts(5)}); got != s {
		t.Fatalf("expected cycle to be rejected")
	}
}

func TestOrderingRank(t *testing.T) {
	nan := math.NaN()
	version := 7.0
	if got := OrderingRank(&types.ParentOrdering{Timestamp: &nan, Version: &version}); got != 7 {
		t.Fatalf("expected version fallback for NaN timestamp, got %v", got)
	}
	if got := OrderingRank(nil); got != 0 {
		t.Fatalf("expected zero rank without ordering, got %v", got)
	}
	s := Reduce(NewState(), SetThreadParent{ThreadID: "t", ParentID: "p1", Ordering: &types.ParentOrdering{Version: &version}})
	s = Reduce(s, SetThreadParent{ThreadID: "t", ParentID: "p2"})
	if got := s.Parent("t"); got != "p1" {
		t.Fatalf("expected rankless update to lose against version 7, got %q", got)
	}
}

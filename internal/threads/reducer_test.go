package threads

import (
	"testing"

	"threadstate/internal/types"
)

type unknownAction struct{ Action }

func ensured(t *testing.T, workspaceID string, threadIDs ...string) *State {
	t.Helper()
	s := NewState()
	for _, id := range threadIDs {
		s = Reduce(s, EnsureThread{WorkspaceID: workspaceID, ThreadID: id})
	}
	return s
}

func TestReduceUnknownAndNilActionsReturnSameState(t *testing.T) {
	s := ensured(t, "ws", "t1")
	if got := Reduce(s, nil); got != s {
		t.Fatalf("expected nil action to return the same state")
	}
	if got := Reduce(s, unknownAction{}); got != s {
		t.Fatalf("expected unknown action to return the same state")
	}
	if got := Reduce(s, Batch{}); got != s {
		t.Fatalf("expected empty batch to return the same state")
	}
}

func TestBatchAppliesInOrder(t *testing.T) {
	s := Reduce(NewState(), Batch{Actions: []Action{
		EnsureThread{WorkspaceID: "ws", ThreadID: "t1"},
		SetThreadName{WorkspaceID: "ws", ThreadID: "t1", Name: "First"},
		SetThreadName{WorkspaceID: "ws", ThreadID: "t1", Name: "Second"},
	}})
	if got := s.Threads("ws")[0].Name; got != "Second" {
		t.Fatalf("expected last rename to win, got %q", got)
	}
}

func TestMarkProcessingTracksDuration(t *testing.T) {
	s := ensured(t, "ws", "t1")
	s = Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: true, At: 1000})
	again := Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: true, At: 1200})
	if again != s {
		t.Fatalf("expected repeated markProcessing(true) to return the same state")
	}
	s = Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: false, At: 1600})
	status := s.Status("t1")
	if status.IsProcessing || status.LastDurationMs == nil || *status.LastDurationMs != 600 {
		t.Fatalf("expected lastDurationMs=600, got %#v", status)
	}
	if status.ProcessingStartedAt != nil || status.Phase != types.PhaseCompleted {
		t.Fatalf("unexpected status after processing ended: %#v", status)
	}
}

func TestProcessingDurationWhenToolPhaseArrivesFirst(t *testing.T) {
	cases := []struct {
		name      string
		toolAt    int64
		wantStart int64
	}{
		{name: "tool phase records start", toolAt: 1000, wantStart: 1000},
		{name: "turn start fills missing start", toolAt: 0, wantStart: 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ensured(t, "ws", "t1")
			s = Reduce(s, SetThreadPhase{ThreadID: "t1", Phase: types.PhaseToolRunning, At: tc.toolAt})
			s = Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: true, At: 1000})
			status := s.Status("t1")
			if status.ProcessingStartedAt == nil || *status.ProcessingStartedAt != tc.wantStart {
				t.Fatalf("expected processing start %d, got %#v", tc.wantStart, status.ProcessingStartedAt)
			}
			if status.Phase != types.PhaseToolRunning {
				t.Fatalf("expected tool phase kept, got %q", status.Phase)
			}
			if again := Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: true, At: 1200}); again != s {
				t.Fatalf("expected a recorded start to make markProcessing(true) a no-op")
			}
			s = Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: false, At: 1600})
			if got := s.Status("t1").LastDurationMs; got == nil || *got != 600 {
				t.Fatalf("expected lastDurationMs=600, got %#v", got)
			}
		})
	}
}

func TestMarkProcessingFalseKeepsRetryAndTerminalPhase(t *testing.T) {
	s := ensured(t, "ws", "t1")
	s = Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: true, At: 10})
	s = Reduce(s, SetThreadRetryState{ThreadID: "t1", RetryState: types.RetryRetrying})
	s = Reduce(s, SetMcpProgress{ThreadID: "t1", Message: "fetching"})
	s = Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: false, At: 30})
	status := s.Status("t1")
	if status.Wait() != types.WaitRetry || status.Retry() != types.RetryNone {
		t.Fatalf("expected retry wait kept with retry state reset, got %#v", status)
	}
	if status.LastMcpProgressMessage != nil {
		t.Fatalf("expected mcp progress cleared")
	}

	s = Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: true, At: 40})
	s = Reduce(s, SetThreadPhase{ThreadID: "t1", Phase: types.PhaseStaleRecovered})
	s = Reduce(s, MarkProcessing{ThreadID: "t1", IsProcessing: false, At: 50})
	if got := s.Status("t1").Phase; got != types.PhaseStaleRecovered {
		t.Fatalf("expected terminal phase preserved, got %q", got)
	}
}

func TestSetThreadPhaseTransitions(t *testing.T) {
	s := ensured(t, "ws", "t1")
	s = Reduce(s, SetThreadRetryState{ThreadID: "t1", RetryState: types.RetryRetrying})
	s = Reduce(s, SetThreadPhase{ThreadID: "t1", Phase: types.PhaseToolRunning})
	status := s.Status("t1")
	if !status.IsProcessing || status.Wait() != types.WaitToolWait || status.Retry() != types.RetryNone {
		t.Fatalf("unexpected tool_running status: %#v", status)
	}
	s = Reduce(s, SetActiveItemStatus{ThreadID: "t1", ItemID: "c1", Status: types.ItemInProgress})
	s = Reduce(s, SetThreadPhase{ThreadID: "t1", Phase: types.PhaseStreaming})
	if got := s.Status("t1").Wait(); got != types.WaitNone {
		t.Fatalf("expected streaming to clear wait, got %q", got)
	}
	s = Reduce(s, SetThreadPhase{ThreadID: "t1", Phase: types.PhaseCompleted})
	status = s.Status("t1")
	if status.IsProcessing || status.ProcessingStartedAt != nil || len(status.ActiveItemStatuses) != 0 {
		t.Fatalf("unexpected completed status: %#v", status)
	}
}

func TestSetThreadTurnStatus(t *testing.T) {
	s := ensured(t, "ws", "t1")
	s = Reduce(s, SetThreadPhase{ThreadID: "t1", Phase: types.PhaseToolRunning})
	s = Reduce(s, SetActiveItemStatus{ThreadID: "t1", ItemID: "c1", Status: types.ItemInProgress})
	s = Reduce(s, SetMcpProgress{ThreadID: "t1", Message: "step 1"})
	s = Reduce(s, SetThreadTurnStatus{ThreadID: "t1", TurnStatus: types.TurnInProgress})
	status := s.Status("t1")
	if status.Wait() != types.WaitToolWait || len(status.ActiveItemStatuses) != 1 || status.LastMcpProgressMessage == nil {
		t.Fatalf("expected non-terminal turn status to leave wait state alone, got %#v", status)
	}
	for _, terminal := range []types.TurnStatus{types.TurnCompleted, types.TurnInterrupted, types.TurnFailed} {
		next := Reduce(s, SetThreadTurnStatus{ThreadID: "t1", TurnStatus: terminal})
		status := next.Status("t1")
		if status.TurnStatus != terminal || status.Wait() != types.WaitNone || status.Retry() != types.RetryNone ||
			len(status.ActiveItemStatuses) != 0 || status.LastMcpProgressMessage != nil {
			t.Fatalf("expected %s to clear wait state, got %#v", terminal, status)
		}
	}
}

func TestSetActiveItemStatus(t *testing.T) {
	s := ensured(t, "ws", "t1")
	s = Reduce(s, SetActiveItemStatus{ThreadID: "t1", ItemID: "c1", Status: types.ItemInProgress})
	if got := s.Status("t1").ActiveItemStatuses["c1"]; got != types.ItemInProgress {
		t.Fatalf("expected c1 in progress, got %q", got)
	}
	s = Reduce(s, SetActiveItemStatus{ThreadID: "t1", ItemID: "c1", Status: types.ItemCompleted})
	if len(s.Status("t1").ActiveItemStatuses) != 0 {
		t.Fatalf("expected completed item to leave the active set")
	}
	if again := Reduce(s, SetActiveItemStatus{ThreadID: "t1", ItemID: "c1", Status: types.ItemCompleted}); again != s {
		t.Fatalf("expected repeated completion to be a no-op")
	}
}

func TestMarkThreadError(t *testing.T) {
	s := ensured(t, "ws", "t1")
	s = Reduce(s, MarkThreadError{ThreadID: "t1", Message: "  boom \n", At: 5})
	status := s.Status("t1")
	if status.Phase != types.PhaseFailed || status.LastErrorMessage == nil || *status.LastErrorMessage != "boom" || *status.LastErrorAt != 5 {
		t.Fatalf("unexpected error status: %#v", status)
	}
	s = Reduce(s, MarkThreadError{ThreadID: "t1", Message: "   ", At: 9})
	status = s.Status("t1")
	if status.LastErrorMessage != nil || status.LastErrorAt == nil || *status.LastErrorAt != 9 {
		t.Fatalf("expected blank message to normalize to nil with timestamp, got %#v", status)
	}
}

func TestStatusActionsDoNotShareMaps(t *testing.T) {
	s := ensured(t, "ws", "t1")
	before := Reduce(s, SetActiveItemStatus{ThreadID: "t1", ItemID: "a", Status: types.ItemInProgress})
	after := Reduce(before, SetActiveItemStatus{ThreadID: "t1", ItemID: "b", Status: types.ItemInProgress})
	if len(before.Status("t1").ActiveItemStatuses) != 1 || len(after.Status("t1").ActiveItemStatuses) != 2 {
		t.Fatalf("expected earlier snapshot to be unaffected")
	}
}

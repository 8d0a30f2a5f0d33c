package normalize

import (
	"testing"

	"threadstate/internal/types"
)

func TestStatusSynonyms(t *testing.T) {
	tests := []struct {
		input string
		want  types.ItemStatus
		ok    bool
	}{
		{"started", types.ItemInProgress, true},
		{"Running", types.ItemInProgress, true},
		{"in_progress", types.ItemInProgress, true},
		{"In Progress", types.ItemInProgress, true},
		{"success", types.ItemCompleted, true},
		{"SUCCEEDED", types.ItemCompleted, true},
		{"declined", types.ItemDeclined, true},
		{"rejected", types.ItemDeclined, true},
		{"cancelled", types.ItemDeclined, true},
		{"skipped", types.ItemDeclined, true},
		{"error", types.ItemFailed, true},
		{"errored", types.ItemFailed, true},
		{" Failed ", types.ItemFailed, true},
		{"mystery", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := Status(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Status(%q) = (%q,%v), want (%q,%v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTurnStatus(t *testing.T) {
	tests := []struct {
		input string
		want  types.TurnStatus
	}{
		{"inProgress", types.TurnInProgress},
		{"completed", types.TurnCompleted},
		{"interrupted", types.TurnInterrupted},
		{"canceled", types.TurnInterrupted},
		{"failed", types.TurnFailed},
	}
	for _, tc := range tests {
		got, ok := TurnStatus(tc.input)
		if !ok || got != tc.want {
			t.Fatalf("TurnStatus(%q) = (%q,%v), want %q", tc.input, got, ok, tc.want)
		}
	}
	if _, ok := TurnStatus("whatever"); ok {
		t.Fatalf("expected unknown turn status to be rejected")
	}
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"threadstate/internal/threads"
)

func TestCaptureAndRestoreViewState(t *testing.T) {
	s := threads.NewState()
	for _, id := range []string{"a", "b", "c"} {
		s = threads.Reduce(s, threads.EnsureThread{WorkspaceID: "ws", ThreadID: id})
	}
	s = threads.Reduce(s, threads.HideThread{WorkspaceID: "ws", ThreadID: "c"})
	s = threads.Reduce(s, threads.SetActiveThread{WorkspaceID: "ws", ThreadID: "a"})

	view := CaptureViewState(s)
	if view.ActiveThreadIDs["ws"] != "a" || len(view.HiddenThreadIDs["ws"]) != 1 {
		t.Fatalf("unexpected captured view %#v", view)
	}

	replayed := threads.NewState()
	for _, id := range []string{"a", "b", "c"} {
		replayed = threads.Reduce(replayed, threads.EnsureThread{WorkspaceID: "ws", ThreadID: id})
	}
	for _, action := range view.Actions() {
		replayed = threads.Reduce(replayed, action)
	}
	if replayed.ActiveThreadID("ws") != "a" {
		t.Fatalf("expected restored selection, got %q", replayed.ActiveThreadID("ws"))
	}
	if !replayed.IsHidden("ws", "c") || len(replayed.Threads("ws")) != 2 {
		t.Fatalf("expected c hidden, got %#v", replayed.Threads("ws"))
	}
}

func TestFileViewStateStoreMissingFile(t *testing.T) {
	store := NewFileViewStateStore(filepath.Join(t.TempDir(), "view.json"))
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !state.IsZero() {
		t.Fatalf("expected zero state, got %#v", state)
	}
	if (&ViewState{}).Actions() != nil {
		t.Fatalf("expected no actions for empty view state")
	}
}

func TestFileViewStateStoreTreatsBlankFileAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view_state.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewFileViewStateStore(path)
	state, err := store.Load(context.Background())
	if err != nil || !state.IsZero() {
		t.Fatalf("expected empty view state, got %#v err=%v", state, err)
	}

	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "view_state.json") {
		t.Fatalf("expected decode error naming the file, got %v", err)
	}
}

func TestSaveJSONFileLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "state.json")
	for i := 0; i < 2; i++ {
		if err := saveJSONFile(path, map[string]int{"n": i}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	var out map[string]int
	if found, err := loadJSONFile(path, &out); err != nil || !found || out["n"] != 1 {
		t.Fatalf("unexpected load: found=%v out=%v err=%v", found, out, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the saved file, got %d entries", len(entries))
	}
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"threadstate/internal/types"
)

func testEntry(workspaceID, method, params string) JournalEntry {
	return JournalEntry{
		WorkspaceID: workspaceID,
		Event:       types.CodexEvent{Method: method, Params: json.RawMessage(params)},
	}
}

func TestBboltJournalAppendReplay(t *testing.T) {
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()

	for _, method := range []string{"thread/started", "turn/started", "turn/completed"} {
		if _, err := repo.Journal().Append(ctx, testEntry("ws", method, `{"threadId":"t1"}`)); err != nil {
			t.Fatalf("append %s: %v", method, err)
		}
	}
	last, err := repo.Journal().LastSeq(ctx)
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if last != 3 {
		t.Fatalf("expected last seq 3, got %d", last)
	}

	var methods []string
	err = repo.Journal().Replay(ctx, 1, func(entry JournalEntry) error {
		methods = append(methods, entry.Event.Method)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(methods) != 2 || methods[0] != "turn/started" || methods[1] != "turn/completed" {
		t.Fatalf("unexpected replay order: %v", methods)
	}
}

func TestBboltJournalReplayStopsOnCallbackError(t *testing.T) {
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := repo.Journal().Append(ctx, testEntry("ws", "turn/started", `{}`)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	stop := errors.New("stop")
	calls := 0
	err = repo.Journal().Replay(ctx, 0, func(JournalEntry) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected replay to stop after first entry, got err=%v calls=%d", err, calls)
	}
}

func TestBboltJournalTruncateKeepsSequence(t *testing.T) {
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()
	if _, err := repo.Journal().Append(ctx, testEntry("ws", "turn/started", `{}`)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.Journal().Truncate(ctx); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	last, err := repo.Journal().LastSeq(ctx)
	if err != nil || last != 0 {
		t.Fatalf("expected empty journal, got %d err=%v", last, err)
	}
	entry, err := repo.Journal().Append(ctx, testEntry("ws", "turn/started", `{}`))
	if err != nil {
		t.Fatalf("append after truncate: %v", err)
	}
	if entry.Seq != 2 {
		t.Fatalf("expected seq 2 after truncate, got %d", entry.Seq)
	}
}

func TestBboltJournalClosed(t *testing.T) {
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := repo.Journal().Append(context.Background(), testEntry("ws", "turn/started", `{}`)); !errors.Is(err, ErrJournalClosed) {
		t.Fatalf("expected ErrJournalClosed, got %v", err)
	}
}

func TestBboltViewStateRoundTrip(t *testing.T) {
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()

	empty, err := repo.ViewState().Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if !empty.IsZero() {
		t.Fatalf("expected zero view state, got %#v", empty)
	}
	saved := &ViewState{
		ActiveThreadIDs: map[string]string{"ws": "t2"},
		HiddenThreadIDs: map[string][]string{"ws": {"t1"}},
	}
	if err := repo.ViewState().Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := repo.ViewState().Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ActiveThreadIDs["ws"] != "t2" || len(loaded.HiddenThreadIDs["ws"]) != 1 || loaded.UpdatedAt.IsZero() {
		t.Fatalf("unexpected view state: %#v", loaded)
	}
}

func TestSeedRepositoryFromFiles(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	paths := RepositoryPaths{
		JournalPath:   filepath.Join(base, "events.jsonl"),
		ViewStatePath: filepath.Join(base, "view.json"),
		DBPath:        filepath.Join(base, "storage.db"),
	}
	src := NewFileRepository(paths)
	if _, err := src.Journal().Append(ctx, testEntry("ws", "thread/started", `{"thread":{"id":"t1"}}`)); err != nil {
		t.Fatalf("seed journal: %v", err)
	}
	if err := src.ViewState().Save(ctx, &ViewState{ActiveThreadIDs: map[string]string{"ws": "t1"}}); err != nil {
		t.Fatalf("seed view state: %v", err)
	}
	_ = src.Close()

	dst, err := OpenRepository(paths, RepositoryBackendBbolt)
	if err != nil {
		t.Fatalf("open bbolt repo: %v", err)
	}
	defer dst.Close()
	if err := SeedRepositoryFromFiles(ctx, dst, paths); err != nil {
		t.Fatalf("seed repository: %v", err)
	}
	last, err := dst.Journal().LastSeq(ctx)
	if err != nil || last != 1 {
		t.Fatalf("expected seeded journal, got %d err=%v", last, err)
	}
	view, err := dst.ViewState().Load(ctx)
	if err != nil {
		t.Fatalf("load view state: %v", err)
	}
	if view.ActiveThreadIDs["ws"] != "t1" {
		t.Fatalf("expected seeded view state, got %#v", view)
	}

	// a second seed must not duplicate entries
	if err := SeedRepositoryFromFiles(ctx, dst, paths); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if last, _ := dst.Journal().LastSeq(ctx); last != 1 {
		t.Fatalf("expected reseed to be a no-op, got %d", last)
	}
}

func TestOpenRepositoryValidatesBackend(t *testing.T) {
	if _, err := OpenRepository(RepositoryPaths{}, "bbolt"); err == nil {
		t.Fatalf("expected db path error")
	}
	if _, err := OpenRepository(RepositoryPaths{}, "file"); err == nil {
		t.Fatalf("expected journal path error")
	}
	if _, err := OpenRepository(RepositoryPaths{DBPath: "x"}, "redis"); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}

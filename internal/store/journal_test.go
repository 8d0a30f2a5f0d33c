package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileJournalAppendReplay(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	journal := NewFileJournalStore(path)
	for _, method := range []string{"thread/started", "turn/started"} {
		if _, err := journal.Append(ctx, testEntry("ws", method, `{}`)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	reopened := NewFileJournalStore(path)
	last, err := reopened.LastSeq(ctx)
	if err != nil || last != 2 {
		t.Fatalf("expected last seq 2 after reopen, got %d err=%v", last, err)
	}
	entry, err := reopened.Append(ctx, testEntry("ws", "turn/completed", `{}`))
	if err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if entry.Seq != 3 {
		t.Fatalf("expected seq 3, got %d", entry.Seq)
	}

	var seqs []uint64
	if err := reopened.Replay(ctx, 0, func(e JournalEntry) error {
		seqs = append(seqs, e.Seq)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(seqs) != 3 || seqs[2] != 3 {
		t.Fatalf("unexpected seqs %v", seqs)
	}
}

func TestFileJournalReplayHandWrittenLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	data := strings.Join([]string{
		`{"workspace_id":"ws","event":{"method":"thread/started","params":{"thread":{"id":"t1"}}}}`,
		``,
		`{"workspace_id":"ws","event":{"method":"turn/started","params":{"threadId":"t1"}}}`,
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	var seqs []uint64
	err := NewFileJournalStore(path).Replay(context.Background(), 0, func(e JournalEntry) error {
		seqs = append(seqs, e.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("expected positional seqs, got %v", seqs)
	}
}

func TestFileJournalRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte("{\"event\":{}}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := NewFileJournalStore(path).Replay(context.Background(), 0, func(JournalEntry) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line error, got %v", err)
	}
}

func TestFileJournalClosed(t *testing.T) {
	journal := NewFileJournalStore(filepath.Join(t.TempDir(), "events.jsonl"))
	_ = journal.Close()
	if _, err := journal.Append(context.Background(), testEntry("ws", "turn/started", `{}`)); !errors.Is(err, ErrJournalClosed) {
		t.Fatalf("expected ErrJournalClosed, got %v", err)
	}
}

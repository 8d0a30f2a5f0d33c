package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const followTimeout = 5 * time.Second

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString(line); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func startFollow(t *testing.T, path string) (<-chan JournalEntry, <-chan error, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	entries := make(chan JournalEntry, 16)
	done := make(chan error, 1)
	go func() {
		done <- FollowEntries(ctx, path, func(entry JournalEntry) error {
			entries <- entry
			return nil
		})
	}()
	t.Cleanup(cancel)
	return entries, done, cancel
}

func nextEntry(t *testing.T, entries <-chan JournalEntry) JournalEntry {
	t.Helper()
	select {
	case entry := <-entries:
		return entry
	case <-time.After(followTimeout):
		t.Fatalf("timed out waiting for a followed entry")
		return JournalEntry{}
	}
}

func TestFollowEntriesReadsExistingAndAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendLine(t, path, `{"workspace_id":"ws","event":{"method":"thread/started"}}`+"\n")

	entries, done, cancel := startFollow(t, path)
	first := nextEntry(t, entries)
	if first.Seq != 1 || first.Event.Method != "thread/started" {
		t.Fatalf("unexpected first entry %#v", first)
	}

	// a partial line is held until its newline arrives
	appendLine(t, path, `{"workspace_id":"ws","event":{"method":"turn/`)
	appendLine(t, path, `started"}}`+"\n")
	second := nextEntry(t, entries)
	if second.Seq != 2 || second.Event.Method != "turn/started" {
		t.Fatalf("unexpected second entry %#v", second)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(followTimeout):
		t.Fatalf("follow did not stop after cancel")
	}
}

func TestFollowEntriesWaitsForMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	entries, _, _ := startFollow(t, path)

	// give the watcher a moment to register before the file appears
	time.Sleep(50 * time.Millisecond)
	appendLine(t, path, `{"seq":7,"workspace_id":"ws","event":{"method":"turn/completed"}}`+"\n")
	entry := nextEntry(t, entries)
	if entry.Seq != 7 || entry.WorkspaceID != "ws" {
		t.Fatalf("unexpected entry %#v", entry)
	}
}

func TestFollowEntriesStopsOnMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendLine(t, path, "{not json}\n")
	_, done, _ := startFollow(t, path)
	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected decode error")
		}
	case <-time.After(followTimeout):
		t.Fatalf("expected follow to fail fast on a malformed line")
	}
}

package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"threadstate/internal/types"
)

var ErrJournalClosed = errors.New("journal is closed")

// JournalEntry is one recorded inbound event. Seq is assigned by the store
// on append and increases monotonically.
type JournalEntry struct {
	Seq         uint64           `json:"seq,omitempty"`
	RunID       string           `json:"run_id,omitempty"`
	WorkspaceID string           `json:"workspace_id"`
	Event       types.CodexEvent `json:"event"`
	RecordedAt  time.Time        `json:"recorded_at,omitempty"`
}

type JournalStore interface {
	Append(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	// Replay calls fn for every entry with Seq > afterSeq, in order. An error
	// returned by fn stops the replay and is returned as is.
	Replay(ctx context.Context, afterSeq uint64, fn func(JournalEntry) error) error
	LastSeq(ctx context.Context) (uint64, error)
	Truncate(ctx context.Context) error
}

// DecodeEntry parses one JSONL journal line.
func DecodeEntry(line []byte) (JournalEntry, error) {
	var entry JournalEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		return JournalEntry{}, fmt.Errorf("decode journal entry: %w", err)
	}
	if strings.TrimSpace(entry.Event.Method) == "" {
		return JournalEntry{}, errors.New("journal entry has no event method")
	}
	return entry, nil
}

// FileJournalStore keeps the journal as one JSON document per line.
type FileJournalStore struct {
	path    string
	mu      sync.Mutex
	lastSeq uint64
	loaded  bool
	closed  bool
}

func NewFileJournalStore(path string) *FileJournalStore {
	return &FileJournalStore{path: path}
}

func (s *FileJournalStore) Append(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return JournalEntry{}, ErrJournalClosed
	}
	if err := ctx.Err(); err != nil {
		return JournalEntry{}, err
	}
	if err := s.loadLocked(ctx); err != nil {
		return JournalEntry{}, err
	}
	entry.Seq = s.lastSeq + 1
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	if err := appendJSONLine(s.path, entry); err != nil {
		return JournalEntry{}, err
	}
	s.lastSeq = entry.Seq
	return entry, nil
}

func (s *FileJournalStore) Replay(ctx context.Context, afterSeq uint64, fn func(JournalEntry) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrJournalClosed
	}
	s.mu.Unlock()
	return s.scan(ctx, func(entry JournalEntry) error {
		if entry.Seq <= afterSeq {
			return nil
		}
		return fn(entry)
	})
}

func (s *FileJournalStore) LastSeq(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrJournalClosed
	}
	if err := s.loadLocked(ctx); err != nil {
		return 0, err
	}
	return s.lastSeq, nil
}

func (s *FileJournalStore) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrJournalClosed
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.lastSeq = 0
	s.loaded = true
	return nil
}

func (s *FileJournalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileJournalStore) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	var last uint64
	err := s.scan(ctx, func(entry JournalEntry) error {
		if entry.Seq > last {
			last = entry.Seq
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.lastSeq = last
	s.loaded = true
	return nil
}

// scan walks the journal file. Lines without a seq are numbered by position
// so hand-written event files replay too.
func (s *FileJournalStore) scan(ctx context.Context, fn func(JournalEntry) error) error {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()
	return ScanEntries(ctx, file, fn)
}

// ScanEntries decodes JSONL journal entries from r. Blank lines are skipped.
func ScanEntries(ctx context.Context, r io.Reader, fn func(JournalEntry) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var (
		lineNo  int
		lastSeq uint64
	)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		entry, err := DecodeEntry(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if entry.Seq == 0 {
			entry.Seq = lastSeq + 1
		}
		lastSeq = entry.Seq
		if err := fn(entry); err != nil {
			return err
		}
	}
	return scanner.Err()
}

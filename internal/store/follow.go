package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const followReadSize = 32 * 1024

// FollowEntries calls fn for every entry of the JSONL journal at path and
// keeps reading as lines are appended, until ctx is done. The file does not
// need to exist yet. A partial trailing line is held until its newline
// arrives. If the file is removed or renamed, following restarts from the
// beginning of whatever file appears at path next.
func FollowEntries(ctx context.Context, path string, fn func(JournalEntry) error) error {
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	f := &follower{path: path, fn: fn}
	defer f.close()
	if err := f.drain(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				f.close()
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := f.drain(ctx); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

type follower struct {
	path    string
	fn      func(JournalEntry) error
	file    *os.File
	pending []byte
	lineNo  int
	lastSeq uint64
}

func (f *follower) drain(ctx context.Context) error {
	if f.file == nil {
		file, err := os.Open(f.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		f.file = file
	}
	buf := make([]byte, followReadSize)
	for {
		n, err := f.file.Read(buf)
		if n > 0 {
			f.pending = append(f.pending, buf[:n]...)
			if err := f.emitLines(ctx); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (f *follower) emitLines(ctx context.Context) error {
	for {
		index := bytes.IndexByte(f.pending, '\n')
		if index < 0 {
			return nil
		}
		line := bytes.TrimSpace(f.pending[:index])
		f.pending = f.pending[index+1:]
		f.lineNo++
		if len(line) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := DecodeEntry(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", f.lineNo, err)
		}
		if entry.Seq == 0 {
			entry.Seq = f.lastSeq + 1
		}
		f.lastSeq = entry.Seq
		if err := f.fn(entry); err != nil {
			return err
		}
	}
}

func (f *follower) close() {
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
	f.pending = nil
	f.lineNo = 0
	f.lastSeq = 0
}

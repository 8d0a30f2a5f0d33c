package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"threadstate/internal/aggregate"
	"threadstate/internal/config"
	"threadstate/internal/engine"
	"threadstate/internal/logging"
	"threadstate/internal/store"
	"threadstate/internal/threads"
)

const version = "dev"

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}
	return version
}

func newLogger(cfg config.CoreConfig, out io.Writer) logging.Logger {
	return logging.New(out, logging.ParseLevel(cfg.LogLevel()))
}

func newEngine(cfg config.CoreConfig, logger logging.Logger, journal store.JournalStore, now func() time.Time) *engine.Engine {
	notifications := cfg.NotificationSettings()
	return engine.New(engine.Options{
		Reducer: threads.NewReducer(threads.Options{
			DefaultName:  cfg.DefaultThreadName(),
			NameMaxRunes: cfg.NameMaxRunes(),
		}),
		Journal:       journal,
		Logger:        logger,
		CommandBuffer: cfg.CommandBuffer(),
		IsSubAgent:    aggregate.HasParent,
		Notifications: &notifications,
		Now:           now,
	})
}

// collectCommands drains e's command channel in the background. The returned
// func stops draining and reports everything received, in order.
func collectCommands(e *engine.Engine) func() []engine.Command {
	done := make(chan struct{})
	result := make(chan []engine.Command, 1)
	go func() {
		var out []engine.Command
		for {
			select {
			case cmd := <-e.Commands():
				out = append(out, cmd)
			case <-done:
				for {
					select {
					case cmd := <-e.Commands():
						out = append(out, cmd)
					default:
						result <- out
						return
					}
				}
			}
		}
	}()
	return func() []engine.Command {
		close(done)
		return <-result
	}
}

type foldOptions struct {
	// input is a JSONL event file, "-" for stdin, or empty for the stored
	// journal.
	input     string
	workspace string
	save      bool
}

type foldResult struct {
	engine   *engine.Engine
	commands []engine.Command
	applied  int
	lastSeq  uint64
}

// foldEvents builds an engine from cfg and folds the selected events into it.
// Reading the stored journal also restores the saved view state; --save
// style runs journal every applied event and persist the final view state.
func foldEvents(ctx context.Context, w commandWiring, cfg config.CoreConfig, opts foldOptions) (*foldResult, error) {
	logger := newLogger(cfg, w.stderr)
	var repo store.Repository
	if opts.input == "" || opts.save {
		opened, err := w.openRepository(cfg)
		if err != nil {
			return nil, fmt.Errorf("open repository: %w", err)
		}
		defer opened.Close()
		repo = opened
	}
	var journal store.JournalStore
	if opts.save {
		if cfg.JournalEnabled() {
			journal = repo.Journal()
		} else {
			logger.Warn("journal_disabled", logging.F("reason", "engine.journal is false"))
		}
	}

	eng := newEngine(cfg, logger, journal, w.now)
	stop := collectCommands(eng)
	result := &foldResult{engine: eng}

	var err error
	if opts.input == "" {
		result.lastSeq, err = eng.Replay(ctx, repo.Journal(), 0)
		if err == nil {
			err = restoreViewState(ctx, eng, repo)
		}
	} else {
		err = applyInput(ctx, w.stdin, eng, opts, func(entry store.JournalEntry) {
			result.applied++
			result.lastSeq = entry.Seq
		})
	}
	if err == nil && opts.save && repo != nil {
		err = repo.ViewState().Save(ctx, store.CaptureViewState(eng.Snapshot()))
	}
	result.commands = stop()
	if err != nil {
		return nil, err
	}
	return result, nil
}

func applyInput(ctx context.Context, stdin io.Reader, eng *engine.Engine, opts foldOptions, applied func(store.JournalEntry)) error {
	reader, closeInput, err := openInput(stdin, opts.input)
	if err != nil {
		return err
	}
	defer closeInput()
	return store.ScanEntries(ctx, reader, func(entry store.JournalEntry) error {
		if err := eng.Apply(ctx, envelopeFor(entry, opts.workspace)); err != nil {
			return err
		}
		applied(entry)
		return nil
	})
}

func envelopeFor(entry store.JournalEntry, defaultWorkspace string) engine.Envelope {
	workspaceID := strings.TrimSpace(entry.WorkspaceID)
	if workspaceID == "" {
		workspaceID = strings.TrimSpace(defaultWorkspace)
	}
	return engine.Envelope{WorkspaceID: workspaceID, Event: entry.Event}
}

func restoreViewState(ctx context.Context, eng *engine.Engine, repo store.Repository) error {
	saved, err := repo.ViewState().Load(ctx)
	if err != nil {
		return fmt.Errorf("load view state: %w", err)
	}
	if saved != nil && !saved.IsZero() {
		eng.Restore(saved)
	}
	return nil
}

func openInput(stdin io.Reader, input string) (io.Reader, func(), error) {
	if input == "-" {
		return stdin, func() {}, nil
	}
	file, err := os.Open(input)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

// notices filters the notification commands out of cmds.
func notices(cmds []engine.Command) []engine.CommandNotify {
	var out []engine.CommandNotify
	for _, cmd := range cmds {
		if notice, ok := cmd.(engine.CommandNotify); ok {
			out = append(out, notice)
		}
	}
	return out
}

func writeLine(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, format+"\n", args...)
}

package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"

	"threadstate/internal/aggregate"
	"threadstate/internal/engine"
	"threadstate/internal/logging"
	"threadstate/internal/store"
	"threadstate/internal/threads"
	"threadstate/internal/view"
)

type WatchCommand struct {
	wiring commandWiring
}

func NewWatchCommand(wiring commandWiring) *WatchCommand {
	return &WatchCommand{wiring: wiring}
}

func (c *WatchCommand) Run(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	input := fs.String("input", "", "JSONL event file to follow")
	workspace := fs.String("workspace", "default", "workspace for events that carry none")
	sortKey := fs.String("sort", "", "thread order: activity|listed (defaults to config)")
	save := fs.Bool("save", false, "append followed events to the stored journal")
	light := fs.Bool("light", false, "render for a light terminal background")
	logPath := fs.String("log", "", "write logs to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := strings.TrimSpace(*input)
	if path == "" || path == "-" {
		return errors.New("watch requires --input <file>")
	}
	cfg, err := c.wiring.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.Nop()
	if strings.TrimSpace(*logPath) != "" {
		file, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		defer file.Close()
		logger = newLogger(cfg, file)
	}

	var repo store.Repository
	var journal store.JournalStore
	if *save {
		repo, err = c.wiring.openRepository(cfg)
		if err != nil {
			return err
		}
		defer repo.Close()
		if cfg.JournalEnabled() {
			journal = repo.Journal()
		}
	}

	eng := newEngine(cfg, logger, journal, c.wiring.now)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go logCommands(ctx, logger, eng)

	updates := make(chan *threads.State, 1)
	followErr := make(chan error, 1)
	go func() {
		defer close(updates)
		followErr <- store.FollowEntries(ctx, path, func(entry store.JournalEntry) error {
			if err := eng.Apply(ctx, envelopeFor(entry, *workspace)); err != nil {
				logger.Warn("watch_journal_failed", logging.Err(err))
			}
			publishLatest(updates, eng.Snapshot())
			return nil
		})
	}()

	key := aggregate.ParseSortKey(cfg.SortKey())
	if *sortKey != "" {
		key = aggregate.ParseSortKey(*sortKey)
	}
	model := view.NewWatchModel(updates, view.WatchOptions{
		SortKey: key,
		Dark:    !*light,
		Copy:    c.wiring.copyText,
	})
	runErr := c.wiring.runProgram(model)
	cancel()
	err = <-followErr

	if repo != nil {
		if saveErr := repo.ViewState().Save(context.Background(), store.CaptureViewState(eng.Snapshot())); saveErr != nil {
			logger.Warn("watch_view_state_save_failed", logging.Err(saveErr))
		}
	}
	if runErr != nil {
		return runErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// publishLatest hands s to the view, replacing a snapshot it has not picked
// up yet.
func publishLatest(updates chan *threads.State, s *threads.State) {
	for {
		select {
		case updates <- s:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
	}
}

func logCommands(ctx context.Context, logger logging.Logger, eng *engine.Engine) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-eng.Commands():
			switch c := cmd.(type) {
			case engine.CommandSetBadge:
				logger.Info("badge_changed", logging.F("count", c.Count))
			case engine.CommandNotify:
				logger.Info("notify",
					logging.F("trigger", string(c.Trigger)),
					logging.F("workspace_id", c.WorkspaceID),
					logging.F("thread_id", c.ThreadID),
					logging.F("message", c.Message),
				)
			}
		}
	}
}

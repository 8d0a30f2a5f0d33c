package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"threadstate/internal/config"
	"threadstate/internal/store"
	"threadstate/internal/view"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdin          io.Reader
	stdout         io.Writer
	stderr         io.Writer
	loadConfig     func() (config.CoreConfig, error)
	openRepository func(config.CoreConfig) (store.Repository, error)
	copyText       func(string) (view.ClipboardMethod, error)
	runProgram     func(tea.Model) error
	now            func() time.Time
	version        string
}

func defaultCommandWiring(stdin io.Reader, stdout, stderr io.Writer) commandWiring {
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdin:          stdin,
		stdout:         stdout,
		stderr:         stderr,
		loadConfig:     config.LoadCoreConfig,
		openRepository: openConfiguredRepository,
		copyText:       view.CopyText,
		runProgram:     runTeaProgram,
		now:            time.Now,
		version:        buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"replay":  NewReplayCommand(wiring),
		"show":    NewShowCommand(wiring),
		"badge":   NewBadgeCommand(wiring),
		"watch":   NewWatchCommand(wiring),
		"journal": NewJournalCommand(wiring),
		"config":  NewConfigCommand(wiring.stdout, wiring.stderr, wiring.loadConfig),
		"version": NewVersionCommand(wiring.stdout, wiring.version),
	}
}

// openConfiguredRepository opens the journal store selected by cfg, creating
// its directory on first use.
func openConfiguredRepository(cfg config.CoreConfig) (store.Repository, error) {
	storePath, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	journalPath, err := config.JournalPath()
	if err != nil {
		return nil, err
	}
	viewStatePath, err := config.ViewStatePath()
	if err != nil {
		return nil, err
	}
	paths := store.RepositoryPaths{
		JournalPath:   journalPath,
		ViewStatePath: viewStatePath,
		DBPath:        storePath,
	}
	if cfg.StoreBackend() == store.RepositoryBackendFile {
		paths.JournalPath = storePath
	}
	if err := os.MkdirAll(filepath.Dir(storePath), 0o700); err != nil {
		return nil, err
	}
	return store.OpenRepository(paths, cfg.StoreBackend())
}

func runTeaProgram(model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

package store

import (
	"context"
	"errors"
	"strings"
)

const (
	RepositoryBackendFile  = "file"
	RepositoryBackendBbolt = "bbolt"
)

type Repository interface {
	Journal() JournalStore
	ViewState() ViewStateStore
	Backend() string
	Close() error
}

type RepositoryPaths struct {
	JournalPath   string
	ViewStatePath string
	DBPath        string
}

type fileRepository struct {
	journal   *FileJournalStore
	viewState ViewStateStore
}

func NewFileRepository(paths RepositoryPaths) Repository {
	return &fileRepository{
		journal:   NewFileJournalStore(paths.JournalPath),
		viewState: NewFileViewStateStore(paths.ViewStatePath),
	}
}

func (r *fileRepository) Journal() JournalStore {
	return r.journal
}

func (r *fileRepository) ViewState() ViewStateStore {
	return r.viewState
}

func (r *fileRepository) Backend() string {
	return RepositoryBackendFile
}

func (r *fileRepository) Close() error {
	return r.journal.Close()
}

func OpenRepository(paths RepositoryPaths, backend string) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", RepositoryBackendBbolt:
		if strings.TrimSpace(paths.DBPath) == "" {
			return nil, errors.New("db path is required for bbolt repository")
		}
		return NewBboltRepository(paths.DBPath)
	case RepositoryBackendFile:
		if strings.TrimSpace(paths.JournalPath) == "" {
			return nil, errors.New("journal path is required for file repository")
		}
		return NewFileRepository(paths), nil
	default:
		return nil, errors.New("unsupported repository backend: " + backend)
	}
}

// SeedRepositoryFromFiles imports a JSONL journal and view state file into
// dst when dst has no journal entries yet.
func SeedRepositoryFromFiles(ctx context.Context, dst Repository, paths RepositoryPaths) error {
	if dst == nil || dst.Backend() == RepositoryBackendFile {
		return nil
	}
	src := NewFileRepository(paths)
	defer src.Close()

	if err := seedJournal(ctx, dst.Journal(), src.Journal()); err != nil {
		return err
	}
	return seedViewState(ctx, dst.ViewState(), src.ViewState())
}

func seedJournal(ctx context.Context, dst JournalStore, src JournalStore) error {
	if dst == nil || src == nil {
		return nil
	}
	last, err := dst.LastSeq(ctx)
	if err != nil {
		return err
	}
	if last > 0 {
		return nil
	}
	return src.Replay(ctx, 0, func(entry JournalEntry) error {
		_, err := dst.Append(ctx, entry)
		return err
	})
}

func seedViewState(ctx context.Context, dst ViewStateStore, src ViewStateStore) error {
	if dst == nil || src == nil {
		return nil
	}
	current, err := dst.Load(ctx)
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return nil
	}
	legacy, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if legacy.IsZero() {
		return nil
	}
	return dst.Save(ctx, legacy)
}

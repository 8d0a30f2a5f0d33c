package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketJournal   = []byte("journal")
	bucketViewState = []byte("view_state")
	keyViewState    = []byte("state")
)

type bboltRepository struct {
	db        *bolt.DB
	journal   *bboltJournalStore
	viewState *bboltViewStateStore
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, dataFileMode, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo := &bboltRepository{db: db}
	repo.journal = &bboltJournalStore{db: db}
	repo.viewState = &bboltViewStateStore{db: db}
	return repo, nil
}

func (r *bboltRepository) Journal() JournalStore {
	return r.journal
}

func (r *bboltRepository) ViewState() ViewStateStore {
	return r.viewState
}

func (r *bboltRepository) Backend() string {
	return RepositoryBackendBbolt
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	r.journal.markClosed()
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketJournal); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketViewState); err != nil {
			return err
		}
		return nil
	})
}

type bboltJournalStore struct {
	db     *bolt.DB
	mu     sync.Mutex
	closed bool
}

func (s *bboltJournalStore) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *bboltJournalStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *bboltJournalStore) Append(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return JournalEntry{}, ErrJournalClosed
	}
	if err := ctx.Err(); err != nil {
		return JournalEntry{}, err
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJournal)
		if b == nil {
			return errors.New("journal bucket missing")
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		entry.Seq = seq
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put(journalKey(seq), data)
	})
	if err != nil {
		return JournalEntry{}, mapClosed(err)
	}
	return entry, nil
}

func (s *bboltJournalStore) Replay(ctx context.Context, afterSeq uint64, fn func(JournalEntry) error) error {
	if s.isClosed() {
		return ErrJournalClosed
	}
	// Entries are collected first so fn may append to the journal.
	var entries []JournalEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJournal)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(journalKey(afterSeq + 1)); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry JournalEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return mapClosed(err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *bboltJournalStore) LastSeq(ctx context.Context) (uint64, error) {
	if s.isClosed() {
		return 0, ErrJournalClosed
	}
	var last uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJournal)
		if b == nil {
			return nil
		}
		if k, _ := b.Cursor().Last(); k != nil {
			last = binary.BigEndian.Uint64(k)
		}
		return nil
	})
	return last, mapClosed(err)
}

// Truncate drops every entry. Sequence numbers keep increasing afterwards.
func (s *bboltJournalStore) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrJournalClosed
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJournal)
		if b == nil {
			return errors.New("journal bucket missing")
		}
		seq := b.Sequence()
		if err := tx.DeleteBucket(bucketJournal); err != nil {
			return err
		}
		fresh, err := tx.CreateBucket(bucketJournal)
		if err != nil {
			return err
		}
		return fresh.SetSequence(seq)
	})
	return mapClosed(err)
}

func journalKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func mapClosed(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrJournalClosed
	}
	return err
}

type bboltViewStateStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func (s *bboltViewStateStore) Load(ctx context.Context) (*ViewState, error) {
	state := &ViewState{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketViewState)
		if b == nil {
			return nil
		}
		raw := b.Get(keyViewState)
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, state)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *bboltViewStateStore) Save(ctx context.Context, state *ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == nil {
		return errors.New("view state is required")
	}
	saved := *state
	saved.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketViewState)
		if b == nil {
			return errors.New("view state bucket missing")
		}
		return b.Put(keyViewState, data)
	})
}

package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"threadstate/internal/threads"
)

// ViewState is the part of the thread state that is a user choice rather
// than a function of the event stream: the selected and hidden threads.
type ViewState struct {
	ActiveThreadIDs map[string]string   `json:"active_thread_ids,omitempty"`
	HiddenThreadIDs map[string][]string `json:"hidden_thread_ids,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at,omitempty"`
}

func (v *ViewState) IsZero() bool {
	return v == nil || (len(v.ActiveThreadIDs) == 0 && len(v.HiddenThreadIDs) == 0)
}

// CaptureViewState extracts the view state from a reducer snapshot.
func CaptureViewState(s *threads.State) *ViewState {
	out := &ViewState{}
	if s == nil {
		return out
	}
	for workspaceID, threadID := range s.ActiveThreadIDByWorkspace {
		if strings.TrimSpace(threadID) == "" {
			continue
		}
		if out.ActiveThreadIDs == nil {
			out.ActiveThreadIDs = map[string]string{}
		}
		out.ActiveThreadIDs[workspaceID] = threadID
	}
	for workspaceID, hidden := range s.HiddenThreadIDsByWorkspace {
		ids := make([]string, 0, len(hidden))
		for threadID, ok := range hidden {
			if ok {
				ids = append(ids, threadID)
			}
		}
		if len(ids) == 0 {
			continue
		}
		sort.Strings(ids)
		if out.HiddenThreadIDs == nil {
			out.HiddenThreadIDs = map[string][]string{}
		}
		out.HiddenThreadIDs[workspaceID] = ids
	}
	return out
}

// Actions returns the reducer actions that restore v on top of a replayed
// state. Hidden threads are applied before selections.
func (v *ViewState) Actions() []threads.Action {
	if v.IsZero() {
		return nil
	}
	var actions []threads.Action
	for _, workspaceID := range sortedKeys(v.HiddenThreadIDs) {
		for _, threadID := range v.HiddenThreadIDs[workspaceID] {
			actions = append(actions, threads.HideThread{WorkspaceID: workspaceID, ThreadID: threadID})
		}
	}
	for _, workspaceID := range sortedKeys(v.ActiveThreadIDs) {
		actions = append(actions, threads.SetActiveThread{WorkspaceID: workspaceID, ThreadID: v.ActiveThreadIDs[workspaceID]})
	}
	return actions
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type ViewStateStore interface {
	Load(ctx context.Context) (*ViewState, error)
	Save(ctx context.Context, state *ViewState) error
}

type FileViewStateStore struct {
	path string
	mu   sync.Mutex
}

func NewFileViewStateStore(path string) *FileViewStateStore {
	return &FileViewStateStore{path: path}
}

func (s *FileViewStateStore) Load(ctx context.Context) (*ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &ViewState{}
	if strings.TrimSpace(s.path) == "" {
		return state, nil
	}
	if _, err := loadJSONFile(s.path, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *FileViewStateStore) Save(ctx context.Context, state *ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == nil {
		return errors.New("view state is required")
	}
	if strings.TrimSpace(s.path) == "" {
		return errors.New("view state path is required")
	}
	return saveJSONFile(s.path, state)
}

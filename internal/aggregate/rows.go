package aggregate

import (
	"sort"
	"strings"

	"threadstate/internal/threads"
	"threadstate/internal/types"
)

type SortKey string

const (
	SortActivity SortKey = "activity"
	SortListed   SortKey = "listed"
)

// ParseSortKey falls back to activity order for unknown keys.
func ParseSortKey(raw string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case SortListed:
		return SortListed
	default:
		return SortActivity
	}
}

// ThreadRow is one line of a workspace's thread list.
type ThreadRow struct {
	Thread    types.ThreadSummary `json:"thread"`
	ParentID  string              `json:"parent_id,omitempty"`
	Depth     int                 `json:"depth"`
	Active    bool                `json:"active"`
	Attention Attention           `json:"attention"`
}

// ThreadRows lays out the visible threads of a workspace as a tree: each
// thread is followed by its children. A thread whose parent is not visible
// is shown as a root.
func ThreadRows(s *threads.State, workspaceID string, key SortKey) []ThreadRow {
	list := s.Threads(workspaceID)
	if len(list) == 0 {
		return nil
	}
	ordered := make([]types.ThreadSummary, len(list))
	copy(ordered, list)
	if key != SortListed {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].UpdatedAt > ordered[j].UpdatedAt
		})
	}
	visible := make(map[string]struct{}, len(ordered))
	for _, thread := range ordered {
		visible[thread.ID] = struct{}{}
	}
	children := map[string][]types.ThreadSummary{}
	var roots []types.ThreadSummary
	for _, thread := range ordered {
		parentID := s.Parent(thread.ID)
		if _, ok := visible[parentID]; ok && parentID != "" {
			children[parentID] = append(children[parentID], thread)
			continue
		}
		roots = append(roots, thread)
	}
	activeID := s.ActiveThreadID(workspaceID)
	rows := make([]ThreadRow, 0, len(ordered))
	placed := make(map[string]struct{}, len(ordered))
	var walk func(thread types.ThreadSummary, depth int)
	walk = func(thread types.ThreadSummary, depth int) {
		if _, ok := placed[thread.ID]; ok {
			return
		}
		placed[thread.ID] = struct{}{}
		rows = append(rows, ThreadRow{
			Thread:    thread,
			ParentID:  s.Parent(thread.ID),
			Depth:     depth,
			Active:    thread.ID == activeID,
			Attention: ThreadAttention(s, thread.ID),
		})
		for _, child := range children[thread.ID] {
			walk(child, depth+1)
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}
	return rows
}

package normalize

import "threadstate/internal/types"

// FoldExplorations collapses each run of consecutive explore items into the
// first item of the run. Entries repeating a (kind, label) pair are dropped.
// Items of other kinds are returned untouched and in order.
func FoldExplorations(items []types.ConversationItem) []types.ConversationItem {
	if !hasConsecutiveExplore(items) {
		return items
	}
	out := make([]types.ConversationItem, 0, len(items))
	for _, item := range items {
		if item.Kind != types.ItemKindExplore || len(out) == 0 || out[len(out)-1].Kind != types.ItemKindExplore {
			if item.Kind == types.ItemKindExplore {
				item = item.Clone()
			}
			out = append(out, item)
			continue
		}
		last := &out[len(out)-1]
		last.Entries = dedupeEntries(append(last.Entries, item.Entries...))
		if item.Status == types.ExploreStatusExploring {
			last.Status = types.ExploreStatusExploring
		}
	}
	return out
}

func hasConsecutiveExplore(items []types.ConversationItem) bool {
	for i := 1; i < len(items); i++ {
		if items[i].Kind == types.ItemKindExplore && items[i-1].Kind == types.ItemKindExplore {
			return true
		}
	}
	return false
}

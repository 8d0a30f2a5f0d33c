package items

import "threadstate/internal/types"

// MergeThreadItems combines a list fetched from the server with the list
// built locally from streamed events. Items known to both sides keep the
// remote status and the richer text of either side; remote order comes first
// and local-only items are appended in their local order.
func MergeThreadItems(remote, local []types.ConversationItem) []types.ConversationItem {
	if len(local) == 0 {
		return remote
	}
	localByID := make(map[string]types.ConversationItem, len(local))
	for _, item := range local {
		localByID[item.ID] = item
	}
	seen := make(map[string]struct{}, len(remote))
	out := make([]types.ConversationItem, 0, len(remote)+len(local))
	for _, item := range remote {
		seen[item.ID] = struct{}{}
		localItem, ok := localByID[item.ID]
		if !ok || localItem.Kind != item.Kind {
			out = append(out, item)
			continue
		}
		out = append(out, mergeRemoteLocal(item, localItem))
	}
	for _, item := range local {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		out = append(out, item)
	}
	return out
}

func mergeRemoteLocal(remote, local types.ConversationItem) types.ConversationItem {
	out := remote.Clone()
	switch remote.Kind {
	case types.ItemKindTool:
		out.Output = richer(remote.Output, local.Output)
		if out.Status == "" {
			out.Status = local.Status
		}
	case types.ItemKindReasoning:
		out.Summary = richer(remote.Summary, local.Summary)
		out.Content = richer(remote.Content, local.Content)
	case types.ItemKindDiff:
		out.Diff = richer(remote.Diff, local.Diff)
		if out.Status == "" {
			out.Status = local.Status
		}
	case types.ItemKindMessage:
		if out.Model == "" {
			out.Model = local.Model
		}
		if out.ContextWindow == nil && local.ContextWindow != nil {
			out.ContextWindow = types.IntPtr(*local.ContextWindow)
		}
		if out.TurnID == "" {
			out.TurnID = local.TurnID
		}
	}
	return out
}

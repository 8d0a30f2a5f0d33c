package normalize

import (
	"strings"
	"unicode"

	"threadstate/internal/types"
)

// Status maps the many status spellings used by agent backends onto the
// canonical item status set. Matching ignores case, '_', '-' and whitespace.
func Status(raw string) (types.ItemStatus, bool) {
	switch statusToken(raw) {
	case "started", "running", "inprogress", "pending", "active", "queued":
		return types.ItemInProgress, true
	case "success", "succeeded", "completed", "complete", "done", "ok", "finished":
		return types.ItemCompleted, true
	case "declined", "rejected", "cancelled", "canceled", "skipped", "denied", "aborted":
		return types.ItemDeclined, true
	case "error", "errored", "failed", "failure":
		return types.ItemFailed, true
	default:
		return "", false
	}
}

// TurnStatus maps a protocol turn status onto the turn status set.
func TurnStatus(raw string) (types.TurnStatus, bool) {
	switch statusToken(raw) {
	case "started", "running", "inprogress", "pending", "active":
		return types.TurnInProgress, true
	case "success", "succeeded", "completed", "complete", "done", "finished":
		return types.TurnCompleted, true
	case "interrupted", "cancelled", "canceled", "aborted", "stopped":
		return types.TurnInterrupted, true
	case "error", "errored", "failed", "failure":
		return types.TurnFailed, true
	default:
		return "", false
	}
}

func statusToken(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, r := range raw {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}
		builder.WriteRune(unicode.ToLower(r))
	}
	return builder.String()
}

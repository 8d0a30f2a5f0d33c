package types

import "strings"

type NotificationTrigger string

const (
	NotificationTriggerTurnCompleted      NotificationTrigger = "turn.completed"
	NotificationTriggerTurnFailed         NotificationTrigger = "turn.failed"
	NotificationTriggerApprovalRequested  NotificationTrigger = "approval.requested"
	NotificationTriggerUserInputRequested NotificationTrigger = "user_input.requested"
)

type NotificationSettings struct {
	Enabled             bool                  `json:"enabled" toml:"enabled"`
	Triggers            []NotificationTrigger `json:"triggers,omitempty" toml:"triggers"`
	DedupeWindowSeconds int                   `json:"dedupe_window_seconds,omitempty" toml:"dedupe_window_seconds"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled: true,
		Triggers: []NotificationTrigger{
			NotificationTriggerTurnCompleted,
			NotificationTriggerTurnFailed,
			NotificationTriggerApprovalRequested,
			NotificationTriggerUserInputRequested,
		},
		DedupeWindowSeconds: 5,
	}
}

func NormalizeNotificationSettings(in NotificationSettings) NotificationSettings {
	out := in
	out.Triggers = normalizeNotificationTriggers(in.Triggers)
	if len(out.Triggers) == 0 {
		out.Triggers = append([]NotificationTrigger{}, DefaultNotificationSettings().Triggers...)
	}
	if out.DedupeWindowSeconds < 0 {
		out.DedupeWindowSeconds = 0
	}
	return out
}

func normalizeNotificationTriggers(values []NotificationTrigger) []NotificationTrigger {
	if len(values) == 0 {
		return nil
	}
	seen := map[NotificationTrigger]struct{}{}
	out := make([]NotificationTrigger, 0, len(values))
	for _, value := range values {
		normalized, ok := NormalizeNotificationTrigger(string(value))
		if !ok {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func NormalizeNotificationTrigger(raw string) (NotificationTrigger, bool) {
	key := strings.NewReplacer("_", ".", "-", ".").Replace(strings.ToLower(strings.TrimSpace(raw)))
	switch key {
	case "turn.completed":
		return NotificationTriggerTurnCompleted, true
	case "turn.failed":
		return NotificationTriggerTurnFailed, true
	case "approval.requested", "approval":
		return NotificationTriggerApprovalRequested, true
	case "user.input.requested", "user.input":
		return NotificationTriggerUserInputRequested, true
	default:
		return "", false
	}
}

func NotificationTriggerEnabled(settings NotificationSettings, trigger NotificationTrigger) bool {
	if !settings.Enabled {
		return false
	}
	for _, candidate := range settings.Triggers {
		if candidate == trigger {
			return true
		}
	}
	return false
}

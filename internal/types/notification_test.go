package types

import "testing"

func TestNormalizeNotificationSettingsFallsBackToDefaults(t *testing.T) {
	got := NormalizeNotificationSettings(NotificationSettings{
		Enabled:             true,
		Triggers:            []NotificationTrigger{"bad"},
		DedupeWindowSeconds: -3,
	})
	if len(got.Triggers) != 4 {
		t.Fatalf("expected fallback triggers, got %#v", got.Triggers)
	}
	if got.DedupeWindowSeconds != 0 {
		t.Fatalf("expected negative window clamped, got %d", got.DedupeWindowSeconds)
	}
}

func TestNormalizeNotificationTriggerSpellings(t *testing.T) {
	cases := map[string]NotificationTrigger{
		"turn_completed":       NotificationTriggerTurnCompleted,
		" Turn-Failed ":        NotificationTriggerTurnFailed,
		"approval":             NotificationTriggerApprovalRequested,
		"user_input.requested": NotificationTriggerUserInputRequested,
		"user-input":           NotificationTriggerUserInputRequested,
	}
	for raw, want := range cases {
		got, ok := NormalizeNotificationTrigger(raw)
		if !ok || got != want {
			t.Fatalf("NormalizeNotificationTrigger(%q) = %q,%v want %q", raw, got, ok, want)
		}
	}
	if _, ok := NormalizeNotificationTrigger("session.exited"); ok {
		t.Fatalf("expected unknown trigger rejected")
	}
}

func TestNotificationTriggerEnabledRespectsSwitch(t *testing.T) {
	settings := NormalizeNotificationSettings(NotificationSettings{
		Enabled:  true,
		Triggers: []NotificationTrigger{"turn.failed", "turn_failed"},
	})
	if len(settings.Triggers) != 1 {
		t.Fatalf("expected deduped triggers, got %#v", settings.Triggers)
	}
	if !NotificationTriggerEnabled(settings, NotificationTriggerTurnFailed) {
		t.Fatalf("expected turn.failed enabled")
	}
	if NotificationTriggerEnabled(settings, NotificationTriggerTurnCompleted) {
		t.Fatalf("expected turn.completed disabled")
	}
	settings.Enabled = false
	if NotificationTriggerEnabled(settings, NotificationTriggerTurnFailed) {
		t.Fatalf("expected disabled settings to block all triggers")
	}
}

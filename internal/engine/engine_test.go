package engine

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"threadstate/internal/store"
	"threadstate/internal/threads"
	"threadstate/internal/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(opts Options) *Engine {
	opts.Now = func() time.Time { return fixedNow }
	return New(opts)
}

func envelope(method, params string) Envelope {
	return Envelope{WorkspaceID: "ws", Event: types.CodexEvent{Method: method, Params: json.RawMessage(params)}}
}

func requestEnvelope(id, method, params string) Envelope {
	raw := json.RawMessage(id)
	return Envelope{WorkspaceID: "ws", Event: types.CodexEvent{ID: &raw, Method: method, Params: json.RawMessage(params)}}
}

func mustApply(t *testing.T, e *Engine, envs ...Envelope) {
	t.Helper()
	for _, env := range envs {
		if err := e.Apply(context.Background(), env); err != nil {
			t.Fatalf("apply %s: %v", env.Event.Method, err)
		}
	}
}

func drain(e *Engine) []Command {
	var out []Command
	for {
		select {
		case cmd := <-e.Commands():
			out = append(out, cmd)
		default:
			return out
		}
	}
}

func notifies(cmds []Command) []CommandNotify {
	var out []CommandNotify
	for _, cmd := range cmds {
		if n, ok := cmd.(CommandNotify); ok {
			out = append(out, n)
		}
	}
	return out
}

func badges(cmds []Command) []int {
	var out []int
	for _, cmd := range cmds {
		if b, ok := cmd.(CommandSetBadge); ok {
			out = append(out, b.Count)
		}
	}
	return out
}

func TestEngineEmitsBadgeOnlyOnChange(t *testing.T) {
	e := newTestEngine(Options{})
	mustApply(t, e,
		envelope("thread/started", `{"thread":{"id":"t1"}}`),
		envelope("turn/started", `{"threadId":"t1","turn":{"id":"a"}}`),
		envelope("item/agentMessage/delta", `{"threadId":"t1","itemId":"m1","delta":"hi"}`),
	)
	if got := badges(drain(e)); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("expected a single initial badge, got %v", got)
	}

	mustApply(t, e, envelope("turn/completed", `{"threadId":"t1","turn":{"id":"a","status":"completed"}}`))
	if got := badges(drain(e)); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected badge 1, got %v", got)
	}

	mustApply(t, e, envelope("turn/completed", `{"threadId":"t1","turn":{"id":"a","status":"completed"}}`))
	if cmds := drain(e); len(cmds) != 0 {
		t.Fatalf("expected duplicate completion to emit nothing, got %#v", cmds)
	}
}

func TestEngineMarksBackgroundThreadUnreadAndNotifies(t *testing.T) {
	e := newTestEngine(Options{})
	mustApply(t, e,
		envelope("thread/started", `{"thread":{"id":"t1"}}`),
		envelope("thread/started", `{"thread":{"id":"t2"}}`),
		envelope("turn/started", `{"threadId":"t2","turn":{"id":"a"}}`),
		envelope("turn/completed", `{"threadId":"t2","turn":{"id":"a","status":"completed"}}`),
	)
	s := e.Snapshot()
	if s.ActiveThreadID("ws") != "t1" {
		t.Fatalf("expected t1 to stay active, got %q", s.ActiveThreadID("ws"))
	}
	if !s.Status("t2").HasUnread {
		t.Fatalf("expected background thread to be unread")
	}
	got := notifies(drain(e))
	if len(got) != 1 || got[0].ThreadID != "t2" || got[0].Trigger != types.NotificationTriggerTurnCompleted {
		t.Fatalf("unexpected notifications %#v", got)
	}
	if got[0].ThreadName != threads.DefaultThreadName {
		t.Fatalf("expected thread name on notification, got %q", got[0].ThreadName)
	}
}

func TestEngineDoesNotNotifyForActiveThread(t *testing.T) {
	e := newTestEngine(Options{})
	mustApply(t, e,
		envelope("thread/started", `{"thread":{"id":"t1"}}`),
		envelope("turn/started", `{"threadId":"t1","turn":{"id":"a"}}`),
		requestEnvelope(`1`, "item/fileChange/requestApproval", `{"threadId":"t1"}`),
		envelope("turn/completed", `{"threadId":"t1","turn":{"id":"a","status":"failed","error":{"message":"x"}}}`),
	)
	if got := notifies(drain(e)); len(got) != 0 {
		t.Fatalf("expected no notifications for the active thread, got %#v", got)
	}
	if e.Snapshot().Status("t1").HasUnread {
		t.Fatalf("expected active thread to stay read")
	}
}

func TestEngineNotifiesWaitsAndDedupes(t *testing.T) {
	e := newTestEngine(Options{})
	mustApply(t, e,
		envelope("thread/started", `{"thread":{"id":"t1"}}`),
		envelope("thread/started", `{"thread":{"id":"t2"}}`),
		envelope("turn/started", `{"threadId":"t2","turn":{"id":"a"}}`),
		requestEnvelope(`7`, "item/commandExecution/requestApproval", `{"threadId":"t2"}`),
		envelope("serverRequest/resolved", `{"threadId":"t2","requestId":7}`),
		requestEnvelope(`8`, "item/commandExecution/requestApproval", `{"threadId":"t2"}`),
		requestEnvelope(`"q"`, "item/tool/requestUserInput", `{"threadId":"t2","questions":[{"question":"ok?"}]}`),
	)
	got := notifies(drain(e))
	if len(got) != 2 {
		t.Fatalf("expected approval and user input notifications, got %#v", got)
	}
	if got[0].Trigger != types.NotificationTriggerApprovalRequested || got[1].Trigger != types.NotificationTriggerUserInputRequested {
		t.Fatalf("unexpected triggers %#v", got)
	}
}

func TestEngineNotificationSettingsFilterTriggers(t *testing.T) {
	settings := types.NotificationSettings{Enabled: true, Triggers: []types.NotificationTrigger{types.NotificationTriggerTurnFailed}}
	e := newTestEngine(Options{Notifications: &settings})
	mustApply(t, e,
		envelope("thread/started", `{"thread":{"id":"t1"}}`),
		envelope("thread/started", `{"thread":{"id":"t2"}}`),
		envelope("turn/started", `{"threadId":"t2","turn":{"id":"a"}}`),
		envelope("turn/completed", `{"threadId":"t2","turn":{"id":"a","status":"completed"}}`),
		envelope("turn/started", `{"threadId":"t2","turn":{"id":"b"}}`),
		envelope("turn/completed", `{"threadId":"t2","turn":{"id":"b","status":"failed","error":{"message":"quota"}}}`),
	)
	got := notifies(drain(e))
	if len(got) != 1 || got[0].Trigger != types.NotificationTriggerTurnFailed || got[0].Message != "quota" {
		t.Fatalf("expected only the failure notification, got %#v", got)
	}
}

func TestEngineSnapshotsAreImmutable(t *testing.T) {
	e := newTestEngine(Options{})
	mustApply(t, e, envelope("item/agentMessage/delta", `{"threadId":"t1","itemId":"m1","delta":"one"}`))
	before := e.Snapshot()
	mustApply(t, e, envelope("item/agentMessage/delta", `{"threadId":"t1","itemId":"m2","delta":"two"}`))
	if len(before.Items("t1")) != 1 {
		t.Fatalf("expected old snapshot untouched, got %#v", before.Items("t1"))
	}
	if len(e.Snapshot().Items("t1")) != 2 {
		t.Fatalf("expected new snapshot to carry both items")
	}
}

func TestEngineDropsEnvelopesWithoutWorkspace(t *testing.T) {
	e := newTestEngine(Options{})
	before := e.Snapshot()
	if err := e.Apply(context.Background(), Envelope{Event: types.CodexEvent{Method: "thread/started"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if e.Snapshot() != before {
		t.Fatalf("expected state unchanged")
	}
}

func TestEngineJournalReplayReproducesSnapshot(t *testing.T) {
	repo, err := store.NewBboltRepository(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()

	live := newTestEngine(Options{Journal: repo.Journal()})
	mustApply(t, live,
		envelope("thread/started", `{"thread":{"id":"t1"}}`),
		envelope("thread/started", `{"thread":{"id":"t2"}}`),
		envelope("turn/started", `{"threadId":"t2","turn":{"id":"a","model":"gpt-5"}}`),
		envelope("item/started", `{"threadId":"t2","item":{"type":"userMessage","id":"u1","content":[{"type":"text","text":"Fix the flaky test"}]}}`),
		envelope("item/agentMessage/delta", `{"threadId":"t2","turnId":"a","itemId":"m1","delta":"Looking at it"}`),
		envelope("turn/completed", `{"threadId":"t2","turn":{"id":"a","status":"completed"}}`),
	)

	replayed := newTestEngine(Options{})
	last, err := replayed.Replay(context.Background(), repo.Journal(), 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if last != 6 {
		t.Fatalf("expected last seq 6, got %d", last)
	}
	if !reflect.DeepEqual(live.Snapshot(), replayed.Snapshot()) {
		t.Fatalf("replayed snapshot differs:\nlive=%#v\nreplayed=%#v", live.Snapshot(), replayed.Snapshot())
	}
	cmds := drain(replayed)
	if len(notifies(cmds)) != 0 {
		t.Fatalf("expected replay to stay quiet, got %#v", cmds)
	}
	if got := badges(cmds); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected one badge after replay, got %v", got)
	}
}

func TestEngineRestoreViewState(t *testing.T) {
	e := newTestEngine(Options{})
	mustApply(t, e,
		envelope("thread/started", `{"thread":{"id":"t1"}}`),
		envelope("thread/started", `{"thread":{"id":"t2"}}`),
	)
	e.Restore(&store.ViewState{
		ActiveThreadIDs: map[string]string{"ws": "t2"},
		HiddenThreadIDs: map[string][]string{"ws": {"t1"}},
	})
	s := e.Snapshot()
	if s.ActiveThreadID("ws") != "t2" || !s.IsHidden("ws", "t1") {
		t.Fatalf("expected restored view, got active=%q hidden=%v", s.ActiveThreadID("ws"), s.HiddenThreadIDsByWorkspace)
	}
}

func TestEngineRunStopsWhenInputCloses(t *testing.T) {
	e := newTestEngine(Options{})
	in := make(chan Envelope, 2)
	in <- envelope("thread/started", `{"thread":{"id":"t1"}}`)
	close(in)
	if err := e.Run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(e.Snapshot().Threads("ws")) != 1 {
		t.Fatalf("expected envelope applied before exit")
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e := newTestEngine(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx, make(chan Envelope)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngineRunStopsOnClosedJournal(t *testing.T) {
	journal := store.NewFileJournalStore(filepath.Join(t.TempDir(), "events.jsonl"))
	_ = journal.Close()
	e := newTestEngine(Options{Journal: journal})
	in := make(chan Envelope, 1)
	in <- envelope("thread/started", `{"thread":{"id":"t1"}}`)
	if err := e.Run(context.Background(), in); !errors.Is(err, store.ErrJournalClosed) {
		t.Fatalf("expected ErrJournalClosed, got %v", err)
	}
	if len(e.Snapshot().Threads("ws")) != 1 {
		t.Fatalf("expected event applied despite journal failure")
	}
}

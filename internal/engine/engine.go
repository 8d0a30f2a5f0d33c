package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"threadstate/internal/aggregate"
	"threadstate/internal/events"
	"threadstate/internal/logging"
	"threadstate/internal/store"
	"threadstate/internal/threads"
	"threadstate/internal/types"
)

const defaultCommandBuffer = 64

// Envelope is one inbound protocol event tagged with its workspace.
type Envelope struct {
	WorkspaceID string
	Event       types.CodexEvent
}

type Options struct {
	Reducer       *threads.Reducer
	Router        *events.Router
	Journal       store.JournalStore
	Logger        logging.Logger
	CommandBuffer int
	IsSubAgent    aggregate.SubAgentFunc
	Notifications *types.NotificationSettings
	RunID         string
	Now           func() time.Time
}

// Engine owns the current thread state. Writes are serialized; readers take
// immutable snapshots and never block the writer for longer than a pointer
// swap.
type Engine struct {
	reducer       *threads.Reducer
	router        *events.Router
	journal       store.JournalStore
	logger        logging.Logger
	isSubAgent    aggregate.SubAgentFunc
	notifications types.NotificationSettings
	runID         string
	now           func() time.Time

	writeMu   sync.Mutex
	mu        sync.RWMutex
	state     *threads.State
	commands  chan Command
	badge     int
	badgeSent bool
	lastSent  map[string]time.Time
}

func New(opts Options) *Engine {
	if opts.Reducer == nil {
		opts.Reducer = threads.NewReducer(threads.Options{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Router == nil {
		opts.Router = events.NewRouter(events.WithClock(opts.Now))
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = defaultCommandBuffer
	}
	if strings.TrimSpace(opts.RunID) == "" {
		opts.RunID = logging.NewRunID()
	}
	notifications := types.DefaultNotificationSettings()
	if opts.Notifications != nil {
		notifications = types.NormalizeNotificationSettings(*opts.Notifications)
	}
	return &Engine{
		reducer:       opts.Reducer,
		router:        opts.Router,
		journal:       opts.Journal,
		logger:        opts.Logger.With(logging.F("run_id", opts.RunID)),
		isSubAgent:    opts.IsSubAgent,
		notifications: notifications,
		runID:         opts.RunID,
		now:           opts.Now,
		state:         threads.NewState(),
		commands:      make(chan Command, opts.CommandBuffer),
		lastSent:      map[string]time.Time{},
	}
}

func (e *Engine) RunID() string {
	return e.runID
}

// Snapshot returns the current state. Callers must treat it as read-only.
func (e *Engine) Snapshot() *threads.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Commands delivers side-effect requests. When the buffer is full new
// commands are dropped and logged.
func (e *Engine) Commands() <-chan Command {
	return e.commands
}

// Run applies envelopes from in until in is closed or ctx is done. Journal
// failures are logged and do not stop the loop.
func (e *Engine) Run(ctx context.Context, in <-chan Envelope) error {
	e.logger.Info("engine_started")
	defer e.logger.Info("engine_stopped")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-in:
			if !ok {
				return nil
			}
			if err := e.Apply(ctx, env); err != nil {
				if errors.Is(err, store.ErrJournalClosed) {
					return err
				}
				e.logger.Warn("engine_journal_failed",
					logging.F("workspace_id", env.WorkspaceID),
					logging.F("method", env.Event.Method),
					logging.Err(err),
				)
			}
		}
	}
}

// Apply journals env when a journal is configured and folds it into the
// state. The event is applied even when journaling fails.
func (e *Engine) Apply(ctx context.Context, env Envelope) error {
	if strings.TrimSpace(env.WorkspaceID) == "" || strings.TrimSpace(env.Event.Method) == "" {
		e.logger.Debug("engine_event_dropped",
			logging.F("workspace_id", env.WorkspaceID),
			logging.F("method", env.Event.Method),
		)
		return nil
	}
	var journalErr error
	if e.journal != nil {
		_, err := e.journal.Append(ctx, store.JournalEntry{
			RunID:       e.runID,
			WorkspaceID: env.WorkspaceID,
			Event:       env.Event,
		})
		if err != nil {
			journalErr = fmt.Errorf("journal %s: %w", env.Event.Method, err)
		}
	}
	e.route(env, false)
	return journalErr
}

// Replay folds every journal entry after afterSeq into the state without
// journaling it again, and returns the last sequence applied. Notifications
// are not raised for replayed transitions; the badge is published once at
// the end.
func (e *Engine) Replay(ctx context.Context, journal store.JournalStore, afterSeq uint64) (uint64, error) {
	if journal == nil {
		return afterSeq, nil
	}
	last := afterSeq
	count := 0
	err := journal.Replay(ctx, afterSeq, func(entry store.JournalEntry) error {
		e.route(Envelope{WorkspaceID: entry.WorkspaceID, Event: entry.Event}, true)
		last = entry.Seq
		count++
		return nil
	})
	e.writeMu.Lock()
	e.publishBadge(e.Snapshot())
	e.writeMu.Unlock()
	if err != nil {
		return last, fmt.Errorf("replay journal: %w", err)
	}
	e.logger.Info("engine_replayed", logging.F("entries", count), logging.F("last_seq", last))
	return last, nil
}

// Restore reapplies persisted view choices on top of the current state.
func (e *Engine) Restore(view *store.ViewState) {
	e.Dispatch(view.Actions()...)
}

// Dispatch applies local actions, such as user selections, in order.
func (e *Engine) Dispatch(actions ...threads.Action) {
	if len(actions) == 0 {
		return
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.commit(actions, false)
}

func (e *Engine) route(env Envelope, replaying bool) {
	actions := e.router.Route(env.WorkspaceID, env.Event)
	if len(actions) == 0 {
		e.logger.Debug("engine_event_ignored",
			logging.F("workspace_id", env.WorkspaceID),
			logging.F("method", env.Event.Method),
		)
		return
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.commit(actions, replaying)
}

// commit must be called with writeMu held.
func (e *Engine) commit(actions []threads.Action, replaying bool) {
	prev := e.Snapshot()
	next := prev
	for _, action := range actions {
		next = e.reducer.Reduce(next, action)
	}
	if next == prev {
		return
	}
	next, notices := e.followUps(prev, next)

	e.mu.Lock()
	e.state = next
	e.mu.Unlock()

	if replaying {
		return
	}
	for _, notice := range notices {
		e.notify(notice)
	}
	e.publishBadge(next)
}

// publishBadge must be called with writeMu held.
func (e *Engine) publishBadge(s *threads.State) {
	count := aggregate.BadgeCount(s, e.isSubAgent)
	if e.badgeSent && count == e.badge {
		return
	}
	e.badge, e.badgeSent = count, true
	e.emit(CommandSetBadge{Count: count})
}

// followUps marks threads the user is not looking at as unread when their
// turn ends, and collects the notifications the transition warrants.
func (e *Engine) followUps(prev, next *threads.State) (*threads.State, []CommandNotify) {
	ids := make([]string, 0, len(next.ThreadStatusByID))
	for threadID := range next.ThreadStatusByID {
		ids = append(ids, threadID)
	}
	sort.Strings(ids)

	var notices []CommandNotify
	for _, threadID := range ids {
		before, after := prev.Status(threadID), next.Status(threadID)
		trigger, message := transitionTrigger(before, after)
		if trigger == "" {
			continue
		}
		workspaceID, ok := next.WorkspaceOf(threadID)
		if !ok || next.ActiveThreadID(workspaceID) == threadID {
			continue
		}
		if trigger == types.NotificationTriggerTurnCompleted || trigger == types.NotificationTriggerTurnFailed {
			next = e.reducer.Reduce(next, threads.MarkUnread{ThreadID: threadID, HasUnread: true})
		}
		notices = append(notices, CommandNotify{
			WorkspaceID: workspaceID,
			ThreadID:    threadID,
			ThreadName:  threadName(next, workspaceID, threadID),
			Trigger:     trigger,
			Message:     message,
		})
	}
	return next, notices
}

func transitionTrigger(before, after types.ThreadStatus) (types.NotificationTrigger, string) {
	if !before.TurnStatus.IsTerminal() && after.TurnStatus.IsTerminal() {
		if after.TurnStatus == types.TurnFailed || after.Phase == types.PhaseFailed {
			message := ""
			if after.LastErrorMessage != nil {
				message = *after.LastErrorMessage
			}
			return types.NotificationTriggerTurnFailed, message
		}
		return types.NotificationTriggerTurnCompleted, ""
	}
	if before.Wait() != after.Wait() {
		switch after.Wait() {
		case types.WaitUserInput:
			return types.NotificationTriggerUserInputRequested, ""
		case types.WaitApproval:
			if before.Wait() != types.WaitUserInput {
				return types.NotificationTriggerApprovalRequested, ""
			}
		}
	}
	return "", ""
}

func threadName(s *threads.State, workspaceID, threadID string) string {
	for _, thread := range s.Threads(workspaceID) {
		if thread.ID == threadID {
			return thread.Name
		}
	}
	return ""
}

func (e *Engine) notify(notice CommandNotify) {
	if !types.NotificationTriggerEnabled(e.notifications, notice.Trigger) {
		return
	}
	key := notice.WorkspaceID + "\x00" + notice.ThreadID + "\x00" + string(notice.Trigger)
	window := time.Duration(e.notifications.DedupeWindowSeconds) * time.Second
	now := e.now()
	if then, ok := e.lastSent[key]; ok && window > 0 && now.Sub(then) < window {
		e.logger.Debug("engine_notification_suppressed",
			logging.F("thread_id", notice.ThreadID),
			logging.F("trigger", notice.Trigger),
		)
		return
	}
	e.lastSent[key] = now
	if len(e.lastSent) > 2048 {
		cutoff := now.Add(-2 * window)
		for candidate, ts := range e.lastSent {
			if ts.Before(cutoff) {
				delete(e.lastSent, candidate)
			}
		}
	}
	e.emit(notice)
}

func (e *Engine) emit(cmd Command) {
	select {
	case e.commands <- cmd:
	default:
		e.logger.Warn("engine_command_queue_full", logging.F("command", fmt.Sprintf("%T", cmd)))
	}
}

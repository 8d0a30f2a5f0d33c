package events

import (
	"encoding/json"
	"strings"
	"time"

	"threadstate/internal/normalize"
	"threadstate/internal/threads"
	"threadstate/internal/types"
)

// Router translates protocol events into reducer actions. Events it does not
// understand, or whose params do not decode, yield no actions.
type Router struct {
	now func() time.Time
}

type Option func(*Router)

// WithClock sets the clock used when an event carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRouter(opts ...Option) *Router {
	r := &Router{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Methods lists every protocol method the router handles.
var Methods = []string{
	"thread/started",
	"thread/name/updated",
	"thread/archived",
	"turn/started",
	"turn/completed",
	"item/started",
	"item/updated",
	"item/completed",
	"item/agentMessage/delta",
	"item/reasoning/summaryTextDelta",
	"item/reasoning/summaryPartAdded",
	"item/reasoning/textDelta",
	"item/commandExecution/outputDelta",
	"item/fileChange/outputDelta",
	"item/mcpToolCall/progress",
	"turn/plan/updated",
	"turn/diff/updated",
	"thread/tokenUsage/updated",
	"error",
	"item/commandExecution/requestApproval",
	"item/fileChange/requestApproval",
	"item/tool/requestUserInput",
	"tool/requestUserInput",
	"serverRequest/resolved",
}

// Route returns the actions for one event, in the order they must be applied.
func (r *Router) Route(workspaceID string, event types.CodexEvent) []threads.Action {
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return nil
	}
	var p params
	if len(event.Params) > 0 {
		if err := json.Unmarshal(event.Params, &p); err != nil {
			return nil
		}
	}
	at := r.at(event)
	threadID := p.threadID()
	switch event.Method {
	case "thread/started":
		return r.threadStarted(workspaceID, p)
	case "thread/name/updated":
		name := strings.TrimSpace(firstNonEmpty(p.ThreadName, p.Name))
		if threadID == "" || name == "" {
			return nil
		}
		return []threads.Action{
			ensure(workspaceID, threadID),
			threads.SetThreadName{WorkspaceID: workspaceID, ThreadID: threadID, Name: name, Source: types.NameSourceCustom, At: at},
		}
	case "thread/archived":
		if threadID == "" {
			return nil
		}
		return []threads.Action{threads.RemoveThread{WorkspaceID: workspaceID, ThreadID: threadID}}
	case "turn/started":
		return r.turnStarted(workspaceID, threadID, p, at)
	case "turn/completed":
		return r.turnCompleted(workspaceID, threadID, p, at)
	case "item/started", "item/updated", "item/completed":
		return r.itemLifecycle(workspaceID, threadID, event.Method, p, at)
	case "item/agentMessage/delta":
		if threadID == "" || p.ItemID == "" || p.Delta == "" {
			return nil
		}
		return []threads.Action{
			ensure(workspaceID, threadID),
			threads.AppendAgentDelta{WorkspaceID: workspaceID, ThreadID: threadID, ItemID: p.ItemID, TurnID: p.turnID(), Delta: p.Delta, At: at},
			threads.SetThreadPhase{ThreadID: threadID, Phase: types.PhaseStreaming},
		}
	case "item/reasoning/summaryTextDelta":
		if threadID == "" || p.ItemID == "" {
			return nil
		}
		return []threads.Action{threads.AppendReasoningSummary{ThreadID: threadID, ItemID: p.ItemID, Delta: p.Delta}}
	case "item/reasoning/summaryPartAdded":
		if threadID == "" || p.ItemID == "" {
			return nil
		}
		return []threads.Action{threads.AppendReasoningSummaryBoundary{ThreadID: threadID, ItemID: p.ItemID}}
	case "item/reasoning/textDelta":
		if threadID == "" || p.ItemID == "" {
			return nil
		}
		return []threads.Action{threads.AppendReasoningContent{ThreadID: threadID, ItemID: p.ItemID, Delta: p.Delta}}
	case "item/commandExecution/outputDelta", "item/fileChange/outputDelta":
		if threadID == "" || p.ItemID == "" {
			return nil
		}
		return []threads.Action{threads.AppendToolOutput{ThreadID: threadID, ItemID: p.ItemID, Delta: p.Delta}}
	case "item/mcpToolCall/progress":
		if threadID == "" {
			return nil
		}
		return []threads.Action{threads.SetMcpProgress{ThreadID: threadID, Message: p.Message}}
	case "turn/plan/updated":
		return r.planUpdated(threadID, p)
	case "turn/diff/updated":
		if threadID == "" {
			return nil
		}
		actions := []threads.Action{threads.SetThreadTurnDiff{ThreadID: threadID, Diff: p.Diff}}
		if turnID := p.turnID(); turnID != "" && p.Diff != "" {
			actions = append(actions, threads.UpsertItem{
				WorkspaceID: workspaceID,
				ThreadID:    threadID,
				Item:        normalize.DiffItem(turnID, p.Diff, ""),
				At:          at,
			})
		}
		return actions
	case "thread/tokenUsage/updated":
		return r.tokenUsage(threadID, p)
	case "error":
		return r.turnError(threadID, p, at)
	case "item/commandExecution/requestApproval", "item/fileChange/requestApproval":
		requestID := event.RequestID()
		if requestID == "" {
			return nil
		}
		return []threads.Action{threads.AddApproval{Approval: types.Approval{
			WorkspaceID: workspaceID,
			RequestID:   requestID,
			ThreadID:    threadID,
			Method:      event.Method,
			Params:      event.Params,
			CreatedAt:   at,
		}}}
	case "item/tool/requestUserInput", "tool/requestUserInput":
		requestID := event.RequestID()
		if requestID == "" {
			return nil
		}
		return []threads.Action{threads.AddUserInputRequest{Request: types.UserInputRequest{
			WorkspaceID: workspaceID,
			RequestID:   requestID,
			ThreadID:    threadID,
			Questions:   p.questionTexts(),
			Params:      event.Params,
			CreatedAt:   at,
		}}}
	case "serverRequest/resolved":
		requestID := p.requestID()
		if requestID == "" {
			return nil
		}
		return []threads.Action{
			threads.RemoveApproval{WorkspaceID: workspaceID, RequestID: requestID},
			threads.RemoveUserInputRequest{WorkspaceID: workspaceID, RequestID: requestID},
		}
	default:
		return nil
	}
}

func (r *Router) at(event types.CodexEvent) int64 {
	if ts := event.Time(); !ts.IsZero() {
		return ts.UnixMilli()
	}
	return r.now().UnixMilli()
}

func ensure(workspaceID, threadID string) threads.Action {
	return threads.EnsureThread{WorkspaceID: workspaceID, ThreadID: threadID, Background: true}
}

func (r *Router) threadStarted(workspaceID string, p params) []threads.Action {
	if p.Thread == nil || strings.TrimSpace(p.Thread.ID) == "" {
		return nil
	}
	threadID := strings.TrimSpace(p.Thread.ID)
	actions := []threads.Action{ensure(workspaceID, threadID)}
	if name := strings.TrimSpace(p.Thread.Name); name != "" {
		actions = append(actions, threads.SetThreadName{WorkspaceID: workspaceID, ThreadID: threadID, Name: name, Source: types.NameSourceCustom})
	}
	return actions
}

func (r *Router) turnStarted(workspaceID, threadID string, p params, at int64) []threads.Action {
	if threadID == "" {
		return nil
	}
	turnID := p.turnID()
	actions := []threads.Action{
		ensure(workspaceID, threadID),
		threads.MarkProcessing{ThreadID: threadID, IsProcessing: true, At: at},
		threads.SetThreadTurnStatus{ThreadID: threadID, TurnStatus: types.TurnInProgress, At: at},
	}
	if turnID != "" {
		actions = append(actions,
			threads.SetActiveTurn{ThreadID: threadID, TurnID: turnID},
			threads.SetThreadTurnMeta{ThreadID: threadID, TurnID: turnID, Model: p.model()},
		)
	}
	return actions
}

func (r *Router) turnCompleted(workspaceID, threadID string, p params, at int64) []threads.Action {
	if threadID == "" {
		return nil
	}
	status := types.TurnCompleted
	if p.Turn != nil {
		if parsed, ok := normalize.TurnStatus(p.Turn.Status); ok && parsed.IsTerminal() {
			status = parsed
		}
	}
	actions := []threads.Action{
		ensure(workspaceID, threadID),
		threads.MarkProcessing{ThreadID: threadID, IsProcessing: false, At: at},
		threads.SetThreadTurnStatus{ThreadID: threadID, TurnStatus: status, At: at},
		threads.SetActiveTurn{ThreadID: threadID},
	}
	switch status {
	case types.TurnFailed:
		message := ""
		if p.Turn != nil && p.Turn.Error != nil {
			message = p.Turn.Error.Message
		}
		actions = append(actions, threads.MarkThreadError{ThreadID: threadID, Message: message, At: at})
	case types.TurnInterrupted:
		actions = append(actions, threads.SetThreadPhase{ThreadID: threadID, Phase: types.PhaseInterrupted, At: at})
	default:
		actions = append(actions, threads.SetThreadPhase{ThreadID: threadID, Phase: types.PhaseCompleted, At: at})
	}
	return actions
}

func (r *Router) itemLifecycle(workspaceID, threadID, method string, p params, at int64) []threads.Action {
	if threadID == "" || p.Item == nil {
		return nil
	}
	item, ok := normalize.Item(p.Item)
	if !ok {
		return nil
	}
	turnID := p.turnID()
	if item.Kind == types.ItemKindMessage && item.TurnID == "" {
		item.TurnID = turnID
	}
	actions := []threads.Action{ensure(workspaceID, threadID)}
	if method == "item/completed" && item.IsAssistantMessage() {
		actions = append(actions, threads.CompleteAgentMessage{
			WorkspaceID: workspaceID,
			ThreadID:    threadID,
			ItemID:      item.ID,
			TurnID:      item.TurnID,
			Text:        item.Text,
			At:          at,
		})
	} else {
		actions = append(actions, threads.UpsertItem{WorkspaceID: workspaceID, ThreadID: threadID, Item: item, At: at})
	}

	status, _ := normalize.Status(asString(p.Item["status"]))
	switch {
	case method == "item/completed":
		if status == "" || !status.IsTerminal() {
			status = types.ItemCompleted
		}
		actions = append(actions, threads.SetActiveItemStatus{ThreadID: threadID, ItemID: item.ID, Status: status})
	case item.Kind == types.ItemKindTool || item.Kind == types.ItemKindExplore:
		if status == "" {
			status = types.ItemInProgress
		}
		actions = append(actions, threads.SetActiveItemStatus{ThreadID: threadID, ItemID: item.ID, Status: status})
		if method == "item/started" && !status.IsTerminal() {
			actions = append(actions, threads.SetThreadPhase{ThreadID: threadID, Phase: types.PhaseToolRunning, At: at})
		}
	}

	switch asString(p.Item["type"]) {
	case "enteredReviewMode":
		actions = append(actions, threads.MarkReviewing{ThreadID: threadID, IsReviewing: true})
	case "exitedReviewMode":
		actions = append(actions, threads.MarkReviewing{ThreadID: threadID, IsReviewing: false})
	case "collabAgentToolCall", "collabToolCall":
		actions = append(actions, r.collabParents(workspaceID, threadID, p.Item, at)...)
	}
	return actions
}

// collabParents links the receivers of a collab tool call to the sender.
func (r *Router) collabParents(workspaceID, threadID string, raw map[string]any, at int64) []threads.Action {
	parentID := normalize.SenderThreadID(raw)
	if parentID == "" {
		parentID = threadID
	}
	timestamp := float64(at)
	var actions []threads.Action
	for _, receiver := range normalize.ReceiverThreadIDs(raw) {
		if receiver == parentID {
			continue
		}
		actions = append(actions,
			ensure(workspaceID, receiver),
			threads.SetThreadParent{
				ThreadID: receiver,
				ParentID: parentID,
				Ordering: &types.ParentOrdering{Timestamp: &timestamp},
			},
		)
	}
	return actions
}

func (r *Router) planUpdated(threadID string, p params) []threads.Action {
	if threadID == "" {
		return nil
	}
	plan := types.TurnPlan{
		TurnID:      p.turnID(),
		Explanation: strings.TrimSpace(p.Explanation),
		Steps:       make([]types.PlanStep, 0, len(p.Plan)),
	}
	for _, step := range p.Plan {
		text := strings.TrimSpace(step.Step)
		if text == "" {
			continue
		}
		plan.Steps = append(plan.Steps, types.PlanStep{Step: text, Status: normalizePlanStatus(step.Status)})
	}
	return []threads.Action{threads.SetThreadPlan{ThreadID: threadID, Plan: &plan}}
}

func normalizePlanStatus(raw string) string {
	status, ok := normalize.Status(raw)
	if !ok {
		return "pending"
	}
	switch status {
	case types.ItemCompleted:
		return "completed"
	case types.ItemInProgress:
		if strings.EqualFold(strings.TrimSpace(raw), "pending") {
			return "pending"
		}
		return "inProgress"
	default:
		return string(status)
	}
}

func (r *Router) tokenUsage(threadID string, p params) []threads.Action {
	if threadID == "" || p.TokenUsage == nil {
		return nil
	}
	total := p.TokenUsage.Total
	usage := types.TokenUsage{
		TotalTokens:           total.TotalTokens,
		InputTokens:           total.InputTokens,
		CachedInputTokens:     total.CachedInputTokens,
		OutputTokens:          total.OutputTokens,
		ReasoningOutputTokens: total.ReasoningOutputTokens,
	}
	if window := p.TokenUsage.ModelContextWindow; window != nil {
		usage.ContextWindow = types.IntPtr(*window)
	}
	actions := []threads.Action{threads.SetThreadTokenUsage{ThreadID: threadID, Usage: usage}}
	if turnID := p.turnID(); turnID != "" && p.TokenUsage.ModelContextWindow != nil {
		actions = append(actions, threads.SetThreadTurnContextWindow{
			ThreadID:      threadID,
			TurnID:        turnID,
			ContextWindow: *p.TokenUsage.ModelContextWindow,
		})
	}
	return actions
}

func (r *Router) turnError(threadID string, p params, at int64) []threads.Action {
	if threadID == "" {
		return nil
	}
	message := p.Message
	if p.Error != nil && p.Error.Message != "" {
		message = p.Error.Message
	}
	if p.WillRetry {
		return []threads.Action{threads.SetThreadRetryState{ThreadID: threadID, RetryState: types.RetryRetrying}}
	}
	return []threads.Action{threads.MarkThreadError{ThreadID: threadID, Message: message, At: at}}
}

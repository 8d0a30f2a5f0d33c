package types

import (
	"encoding/json"
	"strings"
)

// Approval is a pending permission request raised by an agent turn.
type Approval struct {
	WorkspaceID string          `json:"workspace_id"`
	RequestID   string          `json:"request_id"`
	ThreadID    string          `json:"thread_id,omitempty"`
	Method      string          `json:"method"`
	Params      json.RawMessage `json:"params,omitempty"`
	CreatedAt   int64           `json:"created_at,omitempty"`
}

// UserInputRequest is a pending question the agent asked the user.
type UserInputRequest struct {
	WorkspaceID string          `json:"workspace_id"`
	RequestID   string          `json:"request_id"`
	ThreadID    string          `json:"thread_id,omitempty"`
	Questions   []string        `json:"questions,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
	CreatedAt   int64           `json:"created_at,omitempty"`
}

// RequestKey identifies a pending request across both request kinds.
type RequestKey struct {
	WorkspaceID string
	RequestID   string
}

func (a Approval) Key() RequestKey {
	return RequestKey{WorkspaceID: a.WorkspaceID, RequestID: a.RequestID}
}

func (r UserInputRequest) Key() RequestKey {
	return RequestKey{WorkspaceID: r.WorkspaceID, RequestID: r.RequestID}
}

// ResolvedThreadID returns the explicit thread id or the one embedded in params.
func (a Approval) ResolvedThreadID() string {
	return resolveRequestThreadID(a.ThreadID, a.Params)
}

func (r UserInputRequest) ResolvedThreadID() string {
	return resolveRequestThreadID(r.ThreadID, r.Params)
}

func resolveRequestThreadID(explicit string, params json.RawMessage) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}
	if len(params) == 0 {
		return ""
	}
	var payload struct {
		ThreadID      string `json:"threadId"`
		ThreadIDSnake string `json:"thread_id"`
	}
	if err := json.Unmarshal(params, &payload); err != nil {
		return ""
	}
	if id := strings.TrimSpace(payload.ThreadID); id != "" {
		return id
	}
	return strings.TrimSpace(payload.ThreadIDSnake)
}

package events

import (
	"encoding/json"
	"strings"
)

// params is the union of the notification payload shapes the router reads.
// Both camelCase and snake_case thread ids are accepted.
type params struct {
	ThreadID      string          `json:"threadId"`
	ThreadIDSnake string          `json:"thread_id"`
	TurnID        string          `json:"turnId"`
	ItemID        string          `json:"itemId"`
	RequestID     json.RawMessage `json:"requestId"`
	Delta         string          `json:"delta"`
	Diff          string          `json:"diff"`
	Message       string          `json:"message"`
	Model         string          `json:"model"`
	Name          string          `json:"name"`
	ThreadName    string          `json:"threadName"`
	Explanation   string          `json:"explanation"`
	WillRetry     bool            `json:"willRetry"`

	Thread     *threadPayload     `json:"thread"`
	Turn       *turnPayload       `json:"turn"`
	Item       map[string]any     `json:"item"`
	Plan       []planStepPayload  `json:"plan"`
	TokenUsage *tokenUsagePayload `json:"tokenUsage"`
	Error      *errorPayload      `json:"error"`
	Questions  []questionPayload  `json:"questions"`
}

type threadPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type turnPayload struct {
	ID     string        `json:"id"`
	Status string        `json:"status"`
	Model  string        `json:"model"`
	Error  *errorPayload `json:"error"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type planStepPayload struct {
	Step   string `json:"step"`
	Status string `json:"status"`
}

type tokenCounts struct {
	TotalTokens           int64 `json:"totalTokens"`
	InputTokens           int64 `json:"inputTokens"`
	CachedInputTokens     int64 `json:"cachedInputTokens"`
	OutputTokens          int64 `json:"outputTokens"`
	ReasoningOutputTokens int64 `json:"reasoningOutputTokens"`
}

type tokenUsagePayload struct {
	Total              tokenCounts `json:"total"`
	Last               tokenCounts `json:"last"`
	ModelContextWindow *int        `json:"modelContextWindow"`
}

type questionPayload struct {
	ID       string `json:"id"`
	Header   string `json:"header"`
	Question string `json:"question"`
}

func (p params) threadID() string {
	return strings.TrimSpace(firstNonEmpty(p.ThreadID, p.ThreadIDSnake))
}

func (p params) turnID() string {
	if id := strings.TrimSpace(p.TurnID); id != "" {
		return id
	}
	if p.Turn != nil {
		return strings.TrimSpace(p.Turn.ID)
	}
	return ""
}

func (p params) model() string {
	if p.Turn != nil && strings.TrimSpace(p.Turn.Model) != "" {
		return strings.TrimSpace(p.Turn.Model)
	}
	return strings.TrimSpace(p.Model)
}

func (p params) requestID() string {
	if len(p.RequestID) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(p.RequestID, &asString); err == nil {
		return strings.TrimSpace(asString)
	}
	var asNumber json.Number
	if err := json.Unmarshal(p.RequestID, &asNumber); err == nil {
		return asNumber.String()
	}
	return ""
}

func (p params) questionTexts() []string {
	var out []string
	for _, q := range p.Questions {
		text := strings.TrimSpace(firstNonEmpty(q.Question, q.Header))
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func asString(value any) string {
	text, _ := value.(string)
	return text
}

package normalize

import (
	"encoding/json"
	"testing"

	"threadstate/internal/types"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestItemUserMessageWithImages(t *testing.T) {
	item, ok := Item(decode(t, `{"id":"u1","type":"userMessage","content":[{"type":"text","text":"Fix it"},{"type":"localImage","path":"/tmp/a.png"}]}`))
	if !ok {
		t.Fatalf("expected user message to normalize")
	}
	if !item.IsUserMessage() || item.Text != "Fix it" || len(item.Images) != 1 {
		t.Fatalf("unexpected user message: %#v", item)
	}
}

func TestItemCommandExecutionSummarizedToExplore(t *testing.T) {
	item, ok := Item(decode(t, `{"id":"c1","type":"commandExecution","command":"/bin/zsh -lc 'rg --files'","status":"completed","exitCode":0}`))
	if !ok {
		t.Fatalf("expected command to normalize")
	}
	if item.Kind != types.ItemKindExplore || item.Status != types.ExploreStatusExplored {
		t.Fatalf("expected explored item, got %#v", item)
	}
}

func TestItemFailedCommandStaysRaw(t *testing.T) {
	item, ok := Item(decode(t, `{"id":"c1","type":"commandExecution","command":"cat missing.go","status":"failed","exitCode":1,"aggregatedOutput":"no such file"}`))
	if !ok {
		t.Fatalf("expected command to normalize")
	}
	if item.Kind != types.ItemKindTool || item.Status != string(types.ItemFailed) || item.Output != "no such file" {
		t.Fatalf("expected raw failed tool item, got %#v", item)
	}
	if item.Title != "Command: cat missing.go" {
		t.Fatalf("unexpected title %q", item.Title)
	}
}

func TestItemCommandArrayIsQuoted(t *testing.T) {
	item, ok := Item(decode(t, `{"id":"c1","type":"commandExecution","command":["bash","-lc","go test ./..."],"status":"running"}`))
	if !ok {
		t.Fatalf("expected command to normalize")
	}
	if item.Kind != types.ItemKindTool || item.Status != string(types.ItemInProgress) {
		t.Fatalf("expected in-progress tool item, got %#v", item)
	}
	if item.Title != "Command: bash -lc 'go test ./...'" {
		t.Fatalf("unexpected title %q", item.Title)
	}
}

func TestItemReviewAndReasoning(t *testing.T) {
	review, ok := Item(decode(t, `{"id":"r1","type":"exitedReviewMode","review":"LGTM"}`))
	if !ok || review.Kind != types.ItemKindReview || review.ReviewState != types.ReviewCompleted || review.Text != "LGTM" {
		t.Fatalf("unexpected review: %#v", review)
	}
	reasoning, ok := Item(decode(t, `{"id":"rs","type":"reasoning","summary":["one","two"],"content":["a"]}`))
	if !ok || reasoning.Summary != "one\n\ntwo" || reasoning.Content != "a" {
		t.Fatalf("unexpected reasoning: %#v", reasoning)
	}
}

func TestItemToolTitleStripsANSI(t *testing.T) {
	item, ok := Item(decode(t, `{"id":"m1","type":"mcpToolCall","server":"docs","tool":"\u001b[31msearch\u001b[0m","status":"success","result":{"content":[{"type":"text","text":"found"}]}}`))
	if !ok {
		t.Fatalf("expected mcp tool call to normalize")
	}
	if item.Title != "Tool: docs / search" || item.Output != "found" || item.Status != string(types.ItemCompleted) {
		t.Fatalf("unexpected mcp item: %#v", item)
	}
}

func TestItemRejectsMalformed(t *testing.T) {
	for _, raw := range []map[string]any{
		nil,
		{"type": "agentMessage"},
		{"id": "x", "type": "somethingElse"},
		{"id": 42, "type": "agentMessage"},
	} {
		if item, ok := Item(raw); ok {
			t.Fatalf("expected %#v to be dropped, got %#v", raw, item)
		}
	}
}

package types

type ItemKind string

const (
	ItemKindMessage   ItemKind = "message"
	ItemKindReasoning ItemKind = "reasoning"
	ItemKindDiff      ItemKind = "diff"
	ItemKindReview    ItemKind = "review"
	ItemKindExplore   ItemKind = "explore"
	ItemKindTool      ItemKind = "tool"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type ReviewState string

const (
	ReviewStarted   ReviewState = "started"
	ReviewCompleted ReviewState = "completed"
)

const (
	ExploreStatusExploring = "exploring"
	ExploreStatusExplored  = "explored"
)

type ExploreKind string

const (
	ExploreRead   ExploreKind = "read"
	ExploreSearch ExploreKind = "search"
	ExploreList   ExploreKind = "list"
	ExploreRun    ExploreKind = "run"
)

type ExploreEntry struct {
	Kind   ExploreKind `json:"kind"`
	Label  string      `json:"label"`
	Detail string      `json:"detail,omitempty"`
}

type FileChange struct {
	Path string `json:"path"`
	Kind string `json:"kind,omitempty"`
	Diff string `json:"diff,omitempty"`
}

// ConversationItem is one entry of a thread's transcript. Kind selects which
// fields are meaningful; identity is ID within a thread.
type ConversationItem struct {
	ID   string   `json:"id"`
	Kind ItemKind `json:"kind"`

	// message
	Role          MessageRole `json:"role,omitempty"`
	Text          string      `json:"text,omitempty"`
	Images        []string    `json:"images,omitempty"`
	TurnID        string      `json:"turn_id,omitempty"`
	Model         string      `json:"model,omitempty"`
	ContextWindow *int        `json:"context_window,omitempty"`

	// reasoning
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`

	// diff, tool
	Title  string `json:"title,omitempty"`
	Diff   string `json:"diff,omitempty"`
	Status string `json:"status,omitempty"`

	// review (Text carries the review body)
	ReviewState ReviewState `json:"review_state,omitempty"`

	// explore
	Entries []ExploreEntry `json:"entries,omitempty"`

	// tool
	ToolType   string       `json:"tool_type,omitempty"`
	Detail     string       `json:"detail,omitempty"`
	Output     string       `json:"output,omitempty"`
	DurationMs *int64       `json:"duration_ms,omitempty"`
	Changes    []FileChange `json:"changes,omitempty"`
}

func (i ConversationItem) IsUserMessage() bool {
	return i.Kind == ItemKindMessage && i.Role == RoleUser
}

func (i ConversationItem) IsAssistantMessage() bool {
	return i.Kind == ItemKindMessage && i.Role == RoleAssistant
}

// Clone returns a copy that shares no slices or pointers with i.
func (i ConversationItem) Clone() ConversationItem {
	out := i
	if i.Images != nil {
		out.Images = make([]string, len(i.Images))
		copy(out.Images, i.Images)
	}
	if i.Entries != nil {
		out.Entries = make([]ExploreEntry, len(i.Entries))
		copy(out.Entries, i.Entries)
	}
	if i.Changes != nil {
		out.Changes = make([]FileChange, len(i.Changes))
		copy(out.Changes, i.Changes)
	}
	if i.ContextWindow != nil {
		value := *i.ContextWindow
		out.ContextWindow = &value
	}
	if i.DurationMs != nil {
		value := *i.DurationMs
		out.DurationMs = &value
	}
	return out
}

func IntPtr(value int) *int {
	return &value
}

func Int64Ptr(value int64) *int64 {
	return &value
}

func StringPtr(value string) *string {
	return &value
}

func IntPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func Int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func StringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

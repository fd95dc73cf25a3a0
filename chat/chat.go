package chat

import "encoding/json"

// Message roles. Ordering of messages is significant and caller controlled;
// the engine never reorders, it only splits out the system role for providers
// that require a top-level system field.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single conversation turn in the caller-supplied transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage constructs a system-role message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage constructs a user-role message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage constructs an assistant-role message.
func AssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// DeltaKind discriminates decoded stream events. Dispatch is by this explicit
// tag, not by structural probing of the decoded value.
type DeltaKind int

const (
	// DeltaContent is a fragment of the final answer text.
	DeltaContent DeltaKind = iota
	// DeltaReasoning is a fragment of intermediate reasoning ("thinking")
	// output, delivered on a separate wire channel depending on provider.
	DeltaReasoning
)

// Delta is one decoded streaming event, normalized across the three wire
// formats the decoder understands.
type Delta struct {
	Kind DeltaKind
	Text string
}

// ToolCall is a function call request surfaced by a model. Unified across
// vendors so the orchestration loop needs no per-provider branching.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type,omitempty"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction names the target function and carries its raw JSON
// argument string exactly as the model produced it.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition declaratively exposes a callable function to the model
// (OpenAI tools format).
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function exposed to the model.
// Parameters is a JSON Schema object (minimal subset).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolResult pairs a tool execution outcome with the call that produced it.
// It must be appended as a tool-role message before the next model call or
// the conversation becomes invalid for providers that require call/result
// pairing.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Role       string `json:"role"`
	Content    string `json:"content"`
}

// Document is one entry of the read-only project snapshot the built-in tools
// operate on.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// RawMessage converts a Message to its wire JSON form. Used by the
// orchestrator, which keeps the working transcript as raw JSON so assistant
// tool-call messages from responses can be appended verbatim.
func (m Message) RawMessage() json.RawMessage {
	b, _ := json.Marshal(m)
	return b
}

package testutil

import (
	"fmt"
	"strings"
)

// StreamBuilder provides a fluent helper for constructing SSE stream bodies
// in tests. Example:
//
//	body := NewChatCompletionsStream().Reasoning("hm").Content("hi").Done().Build()
//
// Chain only the parts you need; each method appends one wire event in the
// builder's format.
type StreamBuilder struct {
	format string
	lines  []string
}

const (
	formatChatCompletions = "chat_completions"
	formatResponses       = "responses"
	formatAnthropic       = "anthropic"
)

// NewChatCompletionsStream creates a builder emitting OpenAI-compatible
// chat.completion.chunk events.
func NewChatCompletionsStream() *StreamBuilder {
	return &StreamBuilder{format: formatChatCompletions}
}

// NewResponsesStream creates a builder emitting OpenAI Responses API events.
func NewResponsesStream() *StreamBuilder {
	return &StreamBuilder{format: formatResponses}
}

// NewAnthropicStream creates a builder emitting Anthropic Messages API
// events.
func NewAnthropicStream() *StreamBuilder {
	return &StreamBuilder{format: formatAnthropic}
}

// Content appends one answer-text delta event (chainable).
func (b *StreamBuilder) Content(text string) *StreamBuilder {
	switch b.format {
	case formatResponses:
		b.data(fmt.Sprintf(`{"type":"response.output_text.delta","delta":%q}`, text))
	case formatAnthropic:
		b.data(fmt.Sprintf(`{"type":"content_block_delta","delta":{"type":"text_delta","text":%q}}`, text))
	default:
		b.data(fmt.Sprintf(`{"choices":[{"delta":{"content":%q}}]}`, text))
	}
	return b
}

// Reasoning appends one reasoning delta event (chainable).
func (b *StreamBuilder) Reasoning(text string) *StreamBuilder {
	switch b.format {
	case formatResponses:
		b.data(fmt.Sprintf(`{"type":"response.reasoning_summary_text.delta","delta":%q}`, text))
	case formatAnthropic:
		b.data(fmt.Sprintf(`{"type":"content_block_delta","delta":{"type":"thinking_delta","thinking":%q}}`, text))
	default:
		b.data(fmt.Sprintf(`{"choices":[{"delta":{"reasoning_content":%q}}]}`, text))
	}
	return b
}

// Data appends a raw data payload verbatim (chainable). Use for malformed or
// provider-specific events the typed methods do not cover.
func (b *StreamBuilder) Data(payload string) *StreamBuilder {
	b.data(payload)
	return b
}

// Line appends a raw wire line without the data prefix (chainable). Use for
// comments, event fields or blank keep-alive lines.
func (b *StreamBuilder) Line(line string) *StreamBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Done appends the [DONE] sentinel (chainable).
func (b *StreamBuilder) Done() *StreamBuilder {
	b.data("[DONE]")
	return b
}

// Build returns the stream body, one "data: " line per event with a trailing
// newline each.
func (b *StreamBuilder) Build() string {
	var sb strings.Builder
	for _, line := range b.lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *StreamBuilder) data(payload string) {
	b.lines = append(b.lines, "data: "+payload)
}

package sse

import (
	"github.com/tidwall/gjson"

	"github.com/AiDocPlus/aichat/chat"
)

// Format identifies the wire shape of a provider's SSE payloads.
type Format int

const (
	// FormatChatCompletions parses OpenAI Chat Completions chunks:
	// choices[0].delta.content / choices[0].delta.reasoning_content.
	FormatChatCompletions Format = iota
	// FormatResponses parses OpenAI Responses API typed events,
	// dispatched on the top-level "type" field.
	FormatResponses
	// FormatAnthropic parses Anthropic Messages content_block_delta
	// events, dispatched on delta.type.
	FormatAnthropic
)

// doneSentinel terminates a Chat Completions stream. It is a framing marker,
// not content.
const doneSentinel = "[DONE]"

// parse reduces one data payload to zero or more normalized deltas. Payloads
// that are not valid JSON or not a recognized event shape yield nothing;
// malformed frames never abort the stream.
func parse(format Format, data string) []chat.Delta {
	switch format {
	case FormatResponses:
		return parseResponses(data)
	case FormatAnthropic:
		return parseAnthropic(data)
	default:
		return parseChatCompletions(data)
	}
}

func parseChatCompletions(data string) []chat.Delta {
	var deltas []chat.Delta
	// Reasoning and content arrive on independent delta fields; a single
	// chunk may in principle carry both, so both are read every time.
	if r := gjson.Get(data, "choices.0.delta.reasoning_content"); r.Type == gjson.String && r.Str != "" {
		deltas = append(deltas, chat.Delta{Kind: chat.DeltaReasoning, Text: r.Str})
	}
	if c := gjson.Get(data, "choices.0.delta.content"); c.Type == gjson.String && c.Str != "" {
		deltas = append(deltas, chat.Delta{Kind: chat.DeltaContent, Text: c.Str})
	}
	return deltas
}

func parseResponses(data string) []chat.Delta {
	switch gjson.Get(data, "type").String() {
	case "response.output_text.delta":
		if d := gjson.Get(data, "delta"); d.Str != "" {
			return []chat.Delta{{Kind: chat.DeltaContent, Text: d.Str}}
		}
	case "response.reasoning_summary_text.delta":
		if d := gjson.Get(data, "delta"); d.Str != "" {
			return []chat.Delta{{Kind: chat.DeltaReasoning, Text: d.Str}}
		}
	}
	return nil
}

func parseAnthropic(data string) []chat.Delta {
	if gjson.Get(data, "type").String() != "content_block_delta" {
		return nil
	}
	switch gjson.Get(data, "delta.type").String() {
	case "text_delta":
		if t := gjson.Get(data, "delta.text"); t.Str != "" {
			return []chat.Delta{{Kind: chat.DeltaContent, Text: t.Str}}
		}
	case "thinking_delta":
		if t := gjson.Get(data, "delta.thinking"); t.Str != "" {
			return []chat.Delta{{Kind: chat.DeltaReasoning, Text: t.Str}}
		}
	}
	return nil
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/AiDocPlus/aichat/chat"
	"github.com/AiDocPlus/aichat/logging"
	"github.com/AiDocPlus/aichat/profile"
	"github.com/AiDocPlus/aichat/tool"
	"github.com/AiDocPlus/aichat/transform"
)

// toolActivityNotice is surfaced to the sink whenever a round of tool calls
// starts, so the UI can show progress during the otherwise silent rounds.
const toolActivityNotice = "\n\n> Calling tools...\n\n"

// runToolRounds executes up to maxToolRounds non-streaming calls with the
// built-in tool definitions attached. Each round that finishes with
// finish_reason "tool_calls" appends the assistant message verbatim plus one
// tool-result message per call, then asks again; any other finish reason ends
// the loop and the accumulated transcript feeds the final streaming call.
//
// The assistant message is carried as raw JSON rather than re-encoded so
// provider-specific fields inside tool_calls survive the round trip.
func (e *Engine) runToolRounds(ctx context.Context, p profile.Profile, req Request, transcript []json.RawMessage) ([]json.RawMessage, error) {
	for round := 0; round < e.maxToolRounds; round++ {
		if e.sessions.IsCancelled(req.RequestID) {
			return transcript, nil
		}

		body, err := transform.ChatBody(p, transcript, transform.ChatOptions{
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			Tools:       tool.Definitions(),
			WebSearch:   req.WebSearch,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}

		respBody, err := e.postJSON(ctx, transform.ChatCompletionsURL(p), body, p, req.WebSearch, e.requestTimeout)
		if err != nil {
			return nil, err
		}

		choice := gjson.GetBytes(respBody, "choices.0")
		if choice.Get("finish_reason").String() != "tool_calls" {
			return transcript, nil
		}

		message := choice.Get("message")
		calls := message.Get("tool_calls").Array()
		if len(calls) == 0 {
			// finish_reason says tool_calls but none were delivered; asking
			// again would just repeat the same request
			return transcript, nil
		}

		transcript = append(transcript, json.RawMessage(message.Raw))
		e.emit(req.RequestID, toolActivityNotice)

		for _, raw := range calls {
			var call chat.ToolCall
			if err := json.Unmarshal([]byte(raw.Raw), &call); err != nil {
				e.logger.Warn("skipping malformed tool call", "request_id", req.RequestID,
					"error", err.Error())
				continue
			}

			start := time.Now()
			result := tool.Execute(call, req.Documents)
			logging.LogToolCall(e.logger, call.Function.Name, time.Since(start))

			encoded, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("failed to encode tool result: %w", err)
			}
			transcript = append(transcript, encoded)
		}
	}
	return transcript, nil
}

package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/AiDocPlus/aichat/profile"
	"github.com/AiDocPlus/aichat/sse"
	"github.com/AiDocPlus/aichat/transform"
)

// streamReadSize is the read granularity for response bodies. Line framing
// happens in the decoder, so the size only affects syscall frequency.
const streamReadSize = 32 * 1024

// ChatStream performs a streaming chat call. Decoded fragments are forwarded
// to the engine's sink tagged with the request id as they arrive; the return
// value is the complete concatenated text, reasoning delimiters included.
//
// The request id is registered for cancellation for the whole call, tool
// rounds included, and always cleaned up on return. Cancelling mid-stream
// truncates the result, it is not an error.
func (e *Engine) ChatStream(ctx context.Context, req Request) (string, error) {
	p := req.resolve()

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	e.sessions.Register(req.RequestID)
	defer e.sessions.Cleanup(req.RequestID)

	e.logger.Info("chat stream started", "request_id", req.RequestID,
		"provider", p.Provider, "model", p.Model,
		"web_search", req.WebSearch, "tools", req.EnableTools)

	if p.Provider == profile.ProviderOpenAI && req.WebSearch {
		return e.streamResponses(ctx, p, req)
	}
	if p.Anthropic() && req.WebSearch {
		return e.streamAnthropic(ctx, p, req)
	}
	return e.streamChatCompletions(ctx, p, req)
}

// streamChatCompletions runs the optional tool-calling rounds and then the
// final streaming call on the shared /chat/completions path.
func (e *Engine) streamChatCompletions(ctx context.Context, p profile.Profile, req Request) (string, error) {
	transcript := rawTranscript(req.Messages)

	if req.EnableTools {
		var err error
		transcript, err = e.runToolRounds(ctx, p, req, transcript)
		if err != nil {
			return "", err
		}
		if e.sessions.IsCancelled(req.RequestID) {
			return "", nil
		}
	}

	body, err := transform.ChatBody(p, transcript, transform.ChatOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
		WebSearch:   req.WebSearch,
		Thinking:    req.thinkingFlag(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := e.openStream(ctx, transform.ChatCompletionsURL(p), body, p, req.WebSearch)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return e.decodeStream(resp, req.RequestID, sse.FormatChatCompletions)
}

// streamResponses streams via the OpenAI Responses API.
func (e *Engine) streamResponses(ctx context.Context, p profile.Profile, req Request) (string, error) {
	body, err := transform.ResponsesBody(p, req.Messages, req.MaxTokens, true)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := e.openStream(ctx, transform.ResponsesURL(p), body, p, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return e.decodeStream(resp, req.RequestID, sse.FormatResponses)
}

// streamAnthropic streams via the native Messages API.
func (e *Engine) streamAnthropic(ctx context.Context, p profile.Profile, req Request) (string, error) {
	body, err := transform.AnthropicBody(p, req.Messages, req.MaxTokens, true)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := e.openStream(ctx, transform.MessagesURL(p), body, p, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return e.decodeStream(resp, req.RequestID, sse.FormatAnthropic)
}

// decodeStream pumps the response body through a StreamDecoder, forwarding
// each fragment to the sink, until the stream ends by sentinel, EOF or
// cooperative cancellation. The decoder polls the session registry per
// decoded line, so a Cancel lands between lines rather than mid payload.
func (e *Engine) decodeStream(resp *http.Response, requestID string, format sse.Format) (string, error) {
	dec := sse.NewStreamDecoder(format, func(o *sse.DecoderOptions) {
		o.Cancelled = func() bool { return e.sessions.IsCancelled(requestID) }
	})

	buf := make([]byte, streamReadSize)
	for !dec.Done() {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			frags, err := dec.Push(buf[:n])
			if err != nil {
				return "", fmt.Errorf("stream decode failed: %w", err)
			}
			for _, frag := range frags {
				e.emit(requestID, frag)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("stream error: %w", readErr)
		}
	}

	if frag := dec.Finish(); frag != "" {
		e.emit(requestID, frag)
	}

	e.logger.Info("chat stream finished", "request_id", requestID,
		"chars", len(dec.Text()), "cancelled", e.sessions.IsCancelled(requestID))
	return dec.Text(), nil
}

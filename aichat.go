// Package aichat provides a high-level façade over the chat engine enabling
// multi-provider AI conversations with streaming, reasoning passthrough, web
// search and built-in document tools. Most applications interact with this
// package by:
//  1. Creating a Client via New() (optionally overriding logger, sink, HTTP client)
//  2. Issuing chat calls (Chat, ChatStream) or the content-generation helpers
//  3. Cancelling in-flight streams by request id when the user interrupts
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. Defaults are safe for local development: no API
// key handling beyond environment fallback, a no-op logger and a discarding
// stream sink.
package aichat

import (
	"context"
	"net/http"

	"github.com/AiDocPlus/aichat/chat"
	"github.com/AiDocPlus/aichat/engine"
	"github.com/AiDocPlus/aichat/logging"
)

// Re-exported aliases so simple integrations only import this package.
type (
	// Request is one chat invocation; see engine.Request for field semantics.
	Request = engine.Request
	// Message is a single conversation turn.
	Message = chat.Message
	// Document is one entry of the snapshot the built-in tools read.
	Document = chat.Document
	// StreamSink receives decoded fragments during streaming.
	StreamSink = engine.StreamSink
	// SinkFunc adapts a function to StreamSink.
	SinkFunc = engine.SinkFunc
)

// Message constructors, re-exported for convenience.
var (
	SystemMessage    = chat.SystemMessage
	UserMessage      = chat.UserMessage
	AssistantMessage = chat.AssistantMessage
)

// Options configures the Client.
type Options struct {
	// Logger defaults to NoOp.
	Logger logging.Logger
	// Sink receives streamed fragments; defaults to discarding them (the
	// complete text is still returned by each call).
	Sink StreamSink
	// HTTPClient overrides the shared transport.
	HTTPClient *http.Client
}

// Client is the high-level façade aggregating the underlying engine.
type Client struct {
	engine *engine.Engine
}

// New creates a Client with optional overrides.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	eng := engine.New(func(o *engine.Options) {
		if opts.Logger != nil {
			o.Logger = opts.Logger
		}
		if opts.Sink != nil {
			o.Sink = opts.Sink
		}
		if opts.HTTPClient != nil {
			o.Client = opts.HTTPClient
		}
	})
	return &Client{engine: eng}
}

// Chat performs a non-streaming chat call and returns the full answer.
func (c *Client) Chat(ctx context.Context, req Request) (string, error) {
	return c.engine.Chat(ctx, req)
}

// ChatStream performs a streaming chat call, forwarding fragments to the
// configured sink, and returns the concatenated text.
func (c *Client) ChatStream(ctx context.Context, req Request) (string, error) {
	return c.engine.ChatStream(ctx, req)
}

// GenerateContent runs a one-shot generation from author notes plus optional
// reference material.
func (c *Client) GenerateContent(ctx context.Context, req Request, authorNotes, referenceContent string) (string, error) {
	return c.engine.GenerateContent(ctx, req, authorNotes, referenceContent)
}

// GenerateContentStream is the streaming variant with conversation history
// and an optional system prompt.
func (c *Client) GenerateContentStream(ctx context.Context, req Request, authorNotes, referenceContent, systemPrompt string, history []Message) (string, error) {
	return c.engine.GenerateContentStream(ctx, req, authorNotes, referenceContent, systemPrompt, history)
}

// TestConnection probes the resolved provider with a minimal request.
func (c *Client) TestConnection(ctx context.Context, req Request) (string, error) {
	return c.engine.TestConnection(ctx, req)
}

// Cancel flags one in-flight stream, or all of them when id is empty.
func (c *Client) Cancel(requestID string) { c.engine.Cancel(requestID) }

// CancelAll flags every in-flight stream.
func (c *Client) CancelAll() { c.engine.CancelAll() }

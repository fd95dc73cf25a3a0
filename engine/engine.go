package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/AiDocPlus/aichat/chat"
	"github.com/AiDocPlus/aichat/logging"
	"github.com/AiDocPlus/aichat/profile"
	"github.com/AiDocPlus/aichat/session"
	"github.com/AiDocPlus/aichat/transform"
)

// Default call deadlines. Streaming reads are not bounded by a deadline;
// only the time to first response is, via the transport.
const (
	DefaultRequestTimeout = 120 * time.Second
	DefaultConnectTimeout = 15 * time.Second
)

// DefaultMaxToolRounds bounds the function-calling loop.
const DefaultMaxToolRounds = 5

// Options configure an Engine via functional options.
type Options struct {
	// Client is the shared HTTP client. Defaults to a client without a
	// global timeout so long streams are not severed; non-streaming calls
	// are bounded per request via context deadlines.
	Client *http.Client

	// Sink receives decoded fragments. Defaults to discarding them.
	Sink StreamSink

	// Logger defaults to NoOp.
	Logger logging.Logger

	// RequestTimeout bounds non-streaming calls (default 120s).
	RequestTimeout time.Duration

	// ConnectTimeout bounds TestConnection (default 15s).
	ConnectTimeout time.Duration

	// MaxToolRounds bounds the function-calling loop (default 5).
	MaxToolRounds int
}

// Engine executes chat requests against the resolved provider. It owns the
// session registry used for cancellation and is safe for concurrent use.
type Engine struct {
	client         *http.Client
	sessions       *session.Registry
	sink           StreamSink
	logger         logging.Logger
	requestTimeout time.Duration
	connectTimeout time.Duration
	maxToolRounds  int
}

// New constructs an Engine with optional overrides.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Client:         &http.Client{},
		Sink:           discardSink{},
		Logger:         logging.NoOpLogger{},
		RequestTimeout: DefaultRequestTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		MaxToolRounds:  DefaultMaxToolRounds,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Sink == nil {
		opts.Sink = discardSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultMaxToolRounds
	}
	return &Engine{
		client:         opts.Client,
		sessions:       session.NewRegistry(),
		sink:           opts.Sink,
		logger:         opts.Logger,
		requestTimeout: opts.RequestTimeout,
		connectTimeout: opts.ConnectTimeout,
		maxToolRounds:  opts.MaxToolRounds,
	}
}

// Request carries one chat invocation. Provider, APIKey, BaseURL and Model
// are optional overrides resolved through the profile table; the remaining
// fields are feature flags and collaborator-supplied inputs.
type Request struct {
	Messages []chat.Message

	Provider string
	APIKey   string
	BaseURL  string
	Model    string

	// Temperature defaults to 0.7 when nil.
	Temperature *float64
	// MaxTokens is forwarded only when > 0.
	MaxTokens int

	WebSearch bool
	// Thinking toggles the provider's thinking-mode parameter where one
	// exists (Qwen, GLM). Nil resolves to off; the resolved flag is always
	// injected for those providers, so their server-side default never
	// applies.
	Thinking    *bool
	EnableTools bool

	// Documents is the read-only project snapshot the built-in tools
	// operate on. Only consulted when EnableTools is set.
	Documents []chat.Document

	// RequestID correlates cancellation with this call. Callers must use a
	// fresh id per logical user action; an empty id is replaced with a
	// generated one. Only streaming calls register it.
	RequestID string
}

func (r Request) resolve() profile.Profile {
	return profile.Resolve(r.Provider, r.APIKey, r.BaseURL, r.Model)
}

// thinkingFlag reduces the tri-state override to the concrete flag the wire
// injection carries. Absent resolves to off.
func (r Request) thinkingFlag() *bool {
	enabled := r.Thinking != nil && *r.Thinking
	return &enabled
}

// Chat performs a non-streaming chat call and returns the complete answer
// text. Provider routing matches ChatStream: OpenAI and Anthropic web-search
// requests take their dedicated APIs, everything else the shared
// chat/completions path.
func (e *Engine) Chat(ctx context.Context, req Request) (string, error) {
	p := req.resolve()

	if p.Provider == profile.ProviderOpenAI && req.WebSearch {
		return e.chatResponses(ctx, p, req)
	}
	if p.Anthropic() && req.WebSearch {
		return e.chatAnthropic(ctx, p, req)
	}

	body, err := transform.ChatBody(p, rawTranscript(req.Messages), transform.ChatOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		WebSearch:   req.WebSearch,
		Thinking:    req.thinkingFlag(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	respBody, err := e.postJSON(ctx, transform.ChatCompletionsURL(p), body, p, req.WebSearch, e.requestTimeout)
	if err != nil {
		return "", err
	}

	content := gjson.GetBytes(respBody, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("failed to parse response: missing choices[0].message.content")
	}
	return content.String(), nil
}

// chatResponses calls the OpenAI Responses API without streaming and returns
// the aggregated output text.
func (e *Engine) chatResponses(ctx context.Context, p profile.Profile, req Request) (string, error) {
	body, err := transform.ResponsesBody(p, req.Messages, req.MaxTokens, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	respBody, err := e.postJSON(ctx, transform.ResponsesURL(p), body, p, true, e.requestTimeout)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(respBody, "output_text").String(), nil
}

// chatAnthropic calls the native Messages API without streaming and joins
// the text blocks of the reply.
func (e *Engine) chatAnthropic(ctx context.Context, p profile.Profile, req Request) (string, error) {
	body, err := transform.AnthropicBody(p, req.Messages, req.MaxTokens, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	respBody, err := e.postJSON(ctx, transform.MessagesURL(p), body, p, true, e.requestTimeout)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range gjson.GetBytes(respBody, "content").Array() {
		if block.Get("type").String() == "text" {
			sb.WriteString(block.Get("text").String())
		}
	}
	return sb.String(), nil
}

// TestConnection sends a minimal probe request with a short deadline and
// reports the resolved model on success.
func (e *Engine) TestConnection(ctx context.Context, req Request) (string, error) {
	p := req.resolve()

	body, err := transform.ChatBody(p, rawTranscript([]chat.Message{chat.UserMessage("Hi")}), transform.ChatOptions{
		MaxTokens: 5,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	if _, err := e.postJSON(ctx, transform.ChatCompletionsURL(p), body, p, false, e.connectTimeout); err != nil {
		return "", fmt.Errorf("connection test failed: %w", err)
	}
	return fmt.Sprintf("connection ok, model: %s", p.Model), nil
}

// Cancel flags one in-flight stream for cancellation, or every stream when
// the request id is empty. Unknown ids are a no-op. The cancelled stream
// terminates after its next decoded line and returns its partial text.
func (e *Engine) Cancel(requestID string) {
	if requestID == "" {
		e.sessions.CancelAll()
		return
	}
	e.sessions.Cancel(requestID)
}

// CancelAll flags every in-flight stream for cancellation.
func (e *Engine) CancelAll() { e.sessions.CancelAll() }

// Sessions exposes the registry for tests and diagnostics.
func (e *Engine) Sessions() *session.Registry { return e.sessions }

func (e *Engine) emit(requestID, content string) {
	e.sink.OnChunk(requestID, content)
}

// postJSON performs a deadline-bounded POST and returns the response body.
// Non-2xx statuses surface the body text verbatim with the status code.
func (e *Engine) postJSON(ctx context.Context, url string, body []byte, p profile.Profile, webSearch bool, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	transform.ApplyHeaders(httpReq, p, webSearch)

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	logging.LogModelCall(e.logger, p.Provider, p.Model, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AI service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("AI API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// openStream issues a streaming POST without a deadline and hands the open
// response to the caller, who owns closing it. A non-2xx status is drained
// and surfaced as an error here so decode never sees an error body.
func (e *Engine) openStream(ctx context.Context, url string, body []byte, p profile.Profile, webSearch bool) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	transform.ApplyHeaders(httpReq, p, webSearch)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream connection failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return nil, fmt.Errorf("stream failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return resp, nil
}

// rawTranscript converts typed messages to the raw-JSON transcript form the
// orchestrator works with.
func rawTranscript(messages []chat.Message) []json.RawMessage {
	out := make([]json.RawMessage, len(messages))
	for i, m := range messages {
		out[i] = m.RawMessage()
	}
	return out
}

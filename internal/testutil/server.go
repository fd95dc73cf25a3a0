package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// CompletionBuilder constructs non-streaming chat-completion response bodies.
// Example:
//
//	body := NewCompletion().Content("hi").Build()
//	body := NewCompletion().ToolCall("call_1", "read_document", `{"id":"d1"}`).Build()
//
// Adding a tool call switches finish_reason to "tool_calls".
type CompletionBuilder struct {
	content   string
	toolCalls []string
}

// NewCompletion creates a builder for a plain "stop" completion.
func NewCompletion() *CompletionBuilder { return &CompletionBuilder{} }

// Content sets the assistant message text (chainable).
func (b *CompletionBuilder) Content(text string) *CompletionBuilder {
	b.content = text
	return b
}

// ToolCall appends one function call with a JSON argument string (chainable).
func (b *CompletionBuilder) ToolCall(id, name, args string) *CompletionBuilder {
	b.toolCalls = append(b.toolCalls, fmt.Sprintf(
		`{"id":%q,"type":"function","function":{"name":%q,"arguments":%q}}`, id, name, args))
	return b
}

// RawToolCall appends a tool-call object verbatim (chainable). Use for
// malformed entries.
func (b *CompletionBuilder) RawToolCall(obj string) *CompletionBuilder {
	b.toolCalls = append(b.toolCalls, obj)
	return b
}

// Build returns the response body JSON.
func (b *CompletionBuilder) Build() string {
	if len(b.toolCalls) == 0 {
		return fmt.Sprintf(
			`{"choices":[{"finish_reason":"stop","message":{"role":"assistant","content":%q}}]}`,
			b.content)
	}
	return fmt.Sprintf(
		`{"choices":[{"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[%s]}}]}`,
		strings.Join(b.toolCalls, ","))
}

// ScriptedServer serves a fixed sequence of responses, one per request, and
// records each request body it sees. Requests past the end of the script get
// a 500. Safe for concurrent use.
type ScriptedServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses []scriptedResponse
	next      int
	bodies    []string
	paths     []string
}

type scriptedResponse struct {
	contentType string
	status      int
	body        string
}

// NewScriptedServer starts a server with an empty script; chain Respond calls
// before issuing requests. Callers own Close.
func NewScriptedServer() *ScriptedServer {
	s := &ScriptedServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// RespondJSON queues one application/json response (chainable).
func (s *ScriptedServer) RespondJSON(body string) *ScriptedServer {
	return s.respond("application/json", http.StatusOK, body)
}

// RespondStream queues one text/event-stream response (chainable).
func (s *ScriptedServer) RespondStream(body string) *ScriptedServer {
	return s.respond("text/event-stream", http.StatusOK, body)
}

// RespondError queues one error response with the given status (chainable).
func (s *ScriptedServer) RespondError(status int, body string) *ScriptedServer {
	return s.respond("application/json", status, body)
}

func (s *ScriptedServer) respond(contentType string, status int, body string) *ScriptedServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, scriptedResponse{contentType, status, body})
	return s
}

// Requests returns the request bodies received so far, in order.
func (s *ScriptedServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.bodies...)
}

// Paths returns the URL paths received so far, in order.
func (s *ScriptedServer) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.paths...)
}

func (s *ScriptedServer) handle(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)

	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	s.paths = append(s.paths, r.URL.Path)
	if s.next >= len(s.responses) {
		s.mu.Unlock()
		http.Error(w, "script exhausted", http.StatusInternalServerError)
		return
	}
	resp := s.responses[s.next]
	s.next++
	s.mu.Unlock()

	w.Header().Set("Content-Type", resp.contentType)
	w.WriteHeader(resp.status)
	w.Write([]byte(resp.body))
}

func readBody(r *http.Request) string {
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			return sb.String()
		}
	}
}

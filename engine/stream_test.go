package engine

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/AiDocPlus/aichat/chat"
	"github.com/AiDocPlus/aichat/internal/testutil"
	"github.com/AiDocPlus/aichat/profile"
)

// collectSink accumulates fragments per request id.
type collectSink struct {
	mu     sync.Mutex
	chunks map[string][]string
}

func newCollectSink() *collectSink {
	return &collectSink{chunks: make(map[string][]string)}
}

func (s *collectSink) OnChunk(requestID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[requestID] = append(s.chunks[requestID], content)
}

// wait blocks until at least one fragment arrived for every given id.
func (s *collectSink) wait(t *testing.T, ids ...string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		s.mu.Lock()
		ready := true
		for _, id := range ids {
			if len(s.chunks[id]) == 0 {
				ready = false
			}
		}
		s.mu.Unlock()
		if ready {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for fragments from %v", ids)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (s *collectSink) joined(requestID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out string
	for _, c := range s.chunks[requestID] {
		out += c
	}
	return out
}

func TestChatStream_EndToEnd(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondStream(testutil.NewChatCompletionsStream().
			Reasoning("let me think").
			Content("Hello").Content(" there").Done().Build())
	defer srv.Close()

	sink := newCollectSink()
	e := newTestEngine(func(o *Options) { o.Sink = sink })

	req := userRequest(srv, profile.ProviderDeepSeek)
	req.RequestID = "req-1"

	text, err := e.ChatStream(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "<think>let me think</think>Hello there", text)
	assert.Equal(t, text, sink.joined("req-1"))

	// session cleaned up on return
	assert.Equal(t, 0, e.Sessions().Len())
	assert.True(t, gjson.Get(srv.Requests()[0], "stream").Bool())
}

func TestChatStream_GeneratesRequestID(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondStream(testutil.NewChatCompletionsStream().Content("hi").Done().Build())
	defer srv.Close()

	sink := newCollectSink()
	e := newTestEngine(func(o *Options) { o.Sink = sink })

	_, err := e.ChatStream(context.Background(), userRequest(srv, profile.ProviderOpenAI))
	require.NoError(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.chunks, 1)
	for id := range sink.chunks {
		assert.NotEmpty(t, id)
	}
}

func TestChatStream_OpenAIWebSearchStreamsResponses(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondStream(testutil.NewResponsesStream().
			Reasoning("searching").Content("found it").Build())
	defer srv.Close()

	e := newTestEngine()
	req := userRequest(srv, profile.ProviderOpenAI)
	req.WebSearch = true

	text, err := e.ChatStream(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "<think>searching</think>found it", text)
	assert.Equal(t, []string{"/responses"}, srv.Paths())
}

func TestChatStream_AnthropicWebSearchStreamsMessages(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondStream(testutil.NewAnthropicStream().
			Reasoning("hmm").Content("answer").Build())
	defer srv.Close()

	e := newTestEngine()
	req := userRequest(srv, profile.ProviderAnthropic)
	req.WebSearch = true

	text, err := e.ChatStream(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "<think>hmm</think>answer", text)
	assert.Equal(t, []string{"/messages"}, srv.Paths())
}

func TestChatStream_ErrorStatus(t *testing.T) {
	srv := testutil.NewScriptedServer().RespondError(429, "rate limited")
	defer srv.Close()

	e := newTestEngine()
	_, err := e.ChatStream(context.Background(), userRequest(srv, profile.ProviderOpenAI))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream failed (429)")
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 0, e.Sessions().Len())
}

func TestChatStream_CancelTruncates(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, testutil.NewChatCompletionsStream().Content("partial").Build())
		w.(http.Flusher).Flush()
		<-release
		io.WriteString(w, testutil.NewChatCompletionsStream().Content(" rest").Done().Build())
	}))
	defer srv.Close()

	sink := newCollectSink()
	e := newTestEngine(func(o *Options) { o.Sink = sink })

	req := Request{
		Messages:  []chat.Message{chat.UserMessage("hi")},
		BaseURL:   srv.URL,
		RequestID: "req-cancel",
	}

	done := make(chan struct{})
	var text string
	var streamErr error
	go func() {
		defer close(done)
		text, streamErr = e.ChatStream(context.Background(), req)
	}()

	// wait until the first fragment reached the sink, then cancel and let
	// the server send the remainder
	sink.wait(t, "req-cancel")
	e.Cancel("req-cancel")
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream to finish")
	}

	require.NoError(t, streamErr)
	assert.Equal(t, "partial", text)
	assert.Equal(t, 0, e.Sessions().Len())
}

func TestChatStream_CancelAllStopsLiveStreamsOnly(t *testing.T) {
	var gate sync.WaitGroup
	gate.Add(2)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, testutil.NewChatCompletionsStream().Content("live").Build())
		w.(http.Flusher).Flush()
		gate.Done()
		<-release
		io.WriteString(w, testutil.NewChatCompletionsStream().Content(" tail").Done().Build())
	}))
	defer srv.Close()

	sink := newCollectSink()
	e := newTestEngine(func(o *Options) { o.Sink = sink })

	results := make(chan string, 2)
	for _, id := range []string{"a", "b"} {
		go func(id string) {
			text, err := e.ChatStream(context.Background(), Request{
				Messages:  []chat.Message{chat.UserMessage("hi")},
				BaseURL:   srv.URL,
				RequestID: id,
			})
			assert.NoError(t, err)
			results <- text
		}(id)
	}

	gate.Wait()
	sink.wait(t, "a", "b")
	e.CancelAll()
	close(release)

	for i := 0; i < 2; i++ {
		select {
		case text := <-results:
			assert.Equal(t, "live", text)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for cancelled streams")
		}
	}

	// a stream started after the sweep runs to completion
	fresh := testutil.NewScriptedServer().
		RespondStream(testutil.NewChatCompletionsStream().Content("full").Done().Build())
	defer fresh.Close()

	text, err := e.ChatStream(context.Background(), Request{
		Messages:  []chat.Message{chat.UserMessage("hi")},
		BaseURL:   fresh.URL,
		RequestID: "c",
	})
	require.NoError(t, err)
	assert.Equal(t, "full", text)
}

func TestChatStream_SeveredConnectionIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, testutil.NewChatCompletionsStream().Content("partial").Build())
		w.(http.Flusher).Flush()
		// drop the connection before the stream terminates
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	e := newTestEngine()
	_, err := e.ChatStream(context.Background(), Request{
		Messages:  []chat.Message{chat.UserMessage("hi")},
		BaseURL:   srv.URL,
		RequestID: "req-sever",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream error")
	assert.Equal(t, 0, e.Sessions().Len())
}

func TestChatStream_ThinkingFlagAlwaysInjected(t *testing.T) {
	on := true
	tests := []struct {
		name     string
		provider string
		thinking *bool
		path     string
		want     string
	}{
		{"glm nil resolves to disabled", profile.ProviderGLM, nil, "thinking.type", "disabled"},
		{"glm explicit on", profile.ProviderGLM, &on, "thinking.type", "enabled"},
		{"qwen nil resolves to false", profile.ProviderQwen, nil, "enable_thinking", "false"},
		{"qwen explicit on", profile.ProviderQwen, &on, "enable_thinking", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewScriptedServer().
				RespondStream(testutil.NewChatCompletionsStream().Content("ok").Done().Build())
			defer srv.Close()

			e := newTestEngine()
			req := userRequest(srv, tt.provider)
			req.Thinking = tt.thinking

			_, err := e.ChatStream(context.Background(), req)
			require.NoError(t, err)

			field := gjson.Get(srv.Requests()[0], tt.path)
			require.True(t, field.Exists())
			assert.Equal(t, tt.want, field.String())
		})
	}
}

func TestChatStream_EOFWithoutSentinelClosesReasoning(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondStream(testutil.NewChatCompletionsStream().Reasoning("cut off").Build())
	defer srv.Close()

	e := newTestEngine()
	text, err := e.ChatStream(context.Background(), userRequest(srv, profile.ProviderDeepSeek))
	require.NoError(t, err)
	assert.Equal(t, "<think>cut off</think>", text)
}

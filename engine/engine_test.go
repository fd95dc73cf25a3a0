package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/AiDocPlus/aichat/chat"
	"github.com/AiDocPlus/aichat/internal/testutil"
	"github.com/AiDocPlus/aichat/profile"
)

// Interface compliance (compile-time assertions)
var _ StreamSink = (SinkFunc)(nil)
var _ StreamSink = discardSink{}

func newTestEngine(optFns ...func(o *Options)) *Engine {
	return New(optFns...)
}

func userRequest(srv *testutil.ScriptedServer, provider string) Request {
	return Request{
		Messages: []chat.Message{chat.UserMessage("hi")},
		Provider: provider,
		APIKey:   "test-key",
		BaseURL:  srv.URL,
	}
}

func TestChat_ReturnsMessageContent(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondJSON(testutil.NewCompletion().Content("pong").Build())
	defer srv.Close()

	e := newTestEngine()
	out, err := e.Chat(context.Background(), userRequest(srv, profile.ProviderDeepSeek))
	require.NoError(t, err)
	assert.Equal(t, "pong", out)

	require.Len(t, srv.Paths(), 1)
	assert.Equal(t, "/chat/completions", srv.Paths()[0])
	body := srv.Requests()[0]
	assert.Equal(t, "deepseek-chat", gjson.Get(body, "model").String())
	assert.False(t, gjson.Get(body, "stream").Bool())
}

func TestChat_OpenAIWebSearchRoutesToResponses(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondJSON(`{"output_text":"searched answer"}`)
	defer srv.Close()

	e := newTestEngine()
	req := userRequest(srv, profile.ProviderOpenAI)
	req.WebSearch = true

	out, err := e.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "searched answer", out)
	assert.Equal(t, []string{"/responses"}, srv.Paths())
	assert.Equal(t, "web_search", gjson.Get(srv.Requests()[0], "tools.0.type").String())
}

func TestChat_AnthropicWebSearchRoutesToMessages(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondJSON(`{"content":[{"type":"text","text":"part one "},{"type":"web_search_tool_result"},{"type":"text","text":"part two"}]}`)
	defer srv.Close()

	e := newTestEngine()
	req := userRequest(srv, profile.ProviderAnthropic)
	req.WebSearch = true

	out, err := e.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "part one part two", out)
	assert.Equal(t, []string{"/messages"}, srv.Paths())
	assert.Equal(t, "web_search_20250305", gjson.Get(srv.Requests()[0], "tools.0.type").String())
}

func TestChat_ErrorStatusSurfacesBody(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondError(401, `{"error":"bad key"}`)
	defer srv.Close()

	e := newTestEngine()
	_, err := e.Chat(context.Background(), userRequest(srv, profile.ProviderOpenAI))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI API error (401)")
	assert.Contains(t, err.Error(), "bad key")
}

func TestChat_MissingContentIsAnError(t *testing.T) {
	srv := testutil.NewScriptedServer().RespondJSON(`{"choices":[]}`)
	defer srv.Close()

	e := newTestEngine()
	_, err := e.Chat(context.Background(), userRequest(srv, profile.ProviderOpenAI))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestChat_ConnectionRefused(t *testing.T) {
	e := newTestEngine()
	req := Request{
		Messages: []chat.Message{chat.UserMessage("hi")},
		BaseURL:  "http://127.0.0.1:1", // nothing listens here
	}
	_, err := e.Chat(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to AI service")
}

func TestTestConnection(t *testing.T) {
	srv := testutil.NewScriptedServer().
		RespondJSON(testutil.NewCompletion().Content("Hello!").Build())
	defer srv.Close()

	e := newTestEngine()
	out, err := e.TestConnection(context.Background(), userRequest(srv, profile.ProviderOpenAI))
	require.NoError(t, err)
	assert.Equal(t, "connection ok, model: gpt-4.1", out)

	body := srv.Requests()[0]
	assert.Equal(t, int64(5), gjson.Get(body, "max_tokens").Int())
	assert.Equal(t, "Hi", gjson.Get(body, "messages.0.content").String())
	assert.Equal(t, "user", gjson.Get(body, "messages.0.role").String())
}

func TestTestConnection_Failure(t *testing.T) {
	srv := testutil.NewScriptedServer().RespondError(500, "boom")
	defer srv.Close()

	e := newTestEngine()
	_, err := e.TestConnection(context.Background(), userRequest(srv, profile.ProviderOpenAI))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection test failed")
}

func TestCancel_EmptyIDCancelsEverything(t *testing.T) {
	e := newTestEngine()
	e.Sessions().Register("a")
	e.Sessions().Register("b")

	e.Cancel("")
	assert.True(t, e.Sessions().IsCancelled("a"))
	assert.True(t, e.Sessions().IsCancelled("b"))
}

func TestCancel_SingleID(t *testing.T) {
	e := newTestEngine()
	e.Sessions().Register("a")
	e.Sessions().Register("b")

	e.Cancel("a")
	assert.True(t, e.Sessions().IsCancelled("a"))
	assert.False(t, e.Sessions().IsCancelled("b"))
}

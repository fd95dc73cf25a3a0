package transform

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/AiDocPlus/aichat/chat"
	"github.com/AiDocPlus/aichat/profile"
)

// DefaultTemperature applies when the caller does not override it.
const DefaultTemperature = 0.7

// anthropicMaxTokens is Anthropic's required max_tokens when the caller does
// not set one.
const anthropicMaxTokens = 8192

// Anthropic protocol headers.
const (
	anthropicVersion       = "2023-06-01"
	anthropicBetaWebSearch = "web-search-2025-03-05"
)

// ChatOptions tune the OpenAI-compatible chat completion body.
type ChatOptions struct {
	// Temperature defaults to DefaultTemperature when nil.
	Temperature *float64
	// MaxTokens is injected only when > 0.
	MaxTokens int
	// Stream requests SSE delivery.
	Stream bool
	// Tools attaches function definitions for a tool-calling round.
	Tools []chat.ToolDefinition
	// WebSearch injects the provider's native search parameter, when it has
	// one (GLM, Qwen, Kimi, Gemini, xAI). DeepSeek and MiniMax have none.
	WebSearch bool
	// Thinking, when non-nil, injects the provider's thinking-mode parameter
	// (Qwen, GLM). Providers whose reasoning models self-activate need none.
	Thinking *bool
}

type chatRequest struct {
	Messages    []json.RawMessage     `json:"messages"`
	Model       string                `json:"model"`
	Temperature float64               `json:"temperature"`
	Stream      bool                  `json:"stream"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
	Tools       []chat.ToolDefinition `json:"tools,omitempty"`
}

// ChatBody builds the /chat/completions request body. The transcript is raw
// JSON so assistant tool-call messages lifted verbatim from earlier responses
// round-trip unchanged.
func ChatBody(p profile.Profile, messages []json.RawMessage, o ChatOptions) ([]byte, error) {
	temp := DefaultTemperature
	if o.Temperature != nil {
		temp = *o.Temperature
	}

	body, err := json.Marshal(chatRequest{
		Messages:    messages,
		Model:       p.Model,
		Temperature: temp,
		Stream:      o.Stream,
		MaxTokens:   o.MaxTokens,
		Tools:       o.Tools,
	})
	if err != nil {
		return nil, err
	}

	if o.WebSearch {
		body = injectWebSearch(body, p.Provider)
	}
	if o.Thinking != nil {
		body = injectThinking(body, p.Provider, *o.Thinking)
	}
	return body, nil
}

type responsesRequest struct {
	Model     string          `json:"model"`
	Input     []chat.Message  `json:"input"`
	Tools     []responsesTool `json:"tools"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Stream    bool            `json:"stream,omitempty"`
}

type responsesTool struct {
	Type string `json:"type"`
}

// ResponsesBody builds the OpenAI /responses request used when web search is
// enabled for OpenAI: an input array plus the built-in web_search tool.
func ResponsesBody(p profile.Profile, messages []chat.Message, maxTokens int, stream bool) ([]byte, error) {
	return json.Marshal(responsesRequest{
		Model:     p.Model,
		Input:     messages,
		Tools:     []responsesTool{{Type: "web_search"}},
		MaxTokens: maxTokens,
		Stream:    stream,
	})
}

type anthropicRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []chat.Message  `json:"messages"`
	System    string          `json:"system,omitempty"`
	Tools     []anthropicTool `json:"tools"`
	Stream    bool            `json:"stream,omitempty"`
}

type anthropicTool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses"`
}

// AnthropicBody builds the native /messages request used when web search is
// enabled for Anthropic. System content is hoisted to the top-level field the
// API requires; the server-side web_search tool is always attached.
func AnthropicBody(p profile.Profile, messages []chat.Message, maxTokens int, stream bool) ([]byte, error) {
	var system string
	conversation := make([]chat.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == chat.RoleSystem {
			system = m.Content
			continue
		}
		conversation = append(conversation, m)
	}

	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	return json.Marshal(anthropicRequest{
		Model:     p.Model,
		MaxTokens: maxTokens,
		Messages:  conversation,
		System:    system,
		Tools:     []anthropicTool{{Type: "web_search_20250305", Name: "web_search", MaxUses: 5}},
		Stream:    stream,
	})
}

// ApplyHeaders sets content type and the provider's authentication scheme:
// x-api-key plus protocol version headers for Anthropic, a bearer token for
// everyone else. Requests without an API key go out unauthenticated (local
// gateways such as LiteLLM accept that).
func ApplyHeaders(req *http.Request, p profile.Profile, webSearch bool) {
	req.Header.Set("Content-Type", "application/json")
	if p.Anthropic() {
		if p.APIKey != "" {
			req.Header.Set("x-api-key", p.APIKey)
		}
		req.Header.Set("anthropic-version", anthropicVersion)
		if webSearch {
			req.Header.Set("anthropic-beta", anthropicBetaWebSearch)
		}
		return
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
}

// Endpoint helpers. The resolved base URL never carries a trailing slash from
// the table, but caller overrides might.

func ChatCompletionsURL(p profile.Profile) string { return endpoint(p, "/chat/completions") }

// ResponsesURL targets the OpenAI Responses API.
func ResponsesURL(p profile.Profile) string { return endpoint(p, "/responses") }

// MessagesURL targets Anthropic's native Messages API.
func MessagesURL(p profile.Profile) string { return endpoint(p, "/messages") }

func endpoint(p profile.Profile, path string) string {
	return strings.TrimSuffix(p.BaseURL, "/") + path
}

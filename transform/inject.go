package transform

import (
	"github.com/tidwall/sjson"

	"github.com/AiDocPlus/aichat/profile"
)

// injectWebSearch rewrites the marshaled body with the provider's native
// web-search parameter. Providers with no native parameter (DeepSeek,
// MiniMax) are left untouched; for them search is only reachable through the
// generic tool-calling loop. OpenAI and Anthropic never hit this path, their
// search goes through the dedicated /responses and /messages routes.
func injectWebSearch(body []byte, provider string) []byte {
	switch provider {
	case profile.ProviderGLM, profile.ProviderGLMCode:
		return setRaw(body, "tools",
			`[{"type":"web_search","web_search":{"enable":true,"search_engine":"search_pro"}}]`)
	case profile.ProviderQwen:
		return set(body, "enable_search", true)
	case profile.ProviderKimi, profile.ProviderKimiCode:
		return setRaw(body, "tools",
			`[{"type":"builtin_function","function":{"name":"$web_search"}}]`)
	case profile.ProviderGemini:
		return setRaw(body, "tools", `[{"google_search":{}}]`)
	case profile.ProviderXAI:
		return setRaw(body, "tools", `[{"type":"web_search"}]`)
	}
	return body
}

// injectThinking rewrites the marshaled body with the provider's thinking
// parameter. Only Qwen and GLM take an explicit switch; DeepSeek, Kimi,
// MiniMax, OpenAI, xAI and Gemini reasoning models activate on model choice
// alone, and Anthropic extended thinking lives on the native Messages route.
func injectThinking(body []byte, provider string, enabled bool) []byte {
	switch provider {
	case profile.ProviderQwen:
		return set(body, "enable_thinking", enabled)
	case profile.ProviderGLM, profile.ProviderGLMCode:
		mode := "disabled"
		if enabled {
			mode = "enabled"
		}
		return set(body, "thinking", map[string]string{"type": mode})
	}
	return body
}

// set and setRaw swallow sjson errors: the body is a freshly marshaled JSON
// object, so a failed set cannot occur for semantic reasons and the
// transformer contract is to never fail.

func set(body []byte, path string, value any) []byte {
	out, err := sjson.SetBytes(body, path, value)
	if err != nil {
		return body
	}
	return out
}

func setRaw(body []byte, path, raw string) []byte {
	out, err := sjson.SetRawBytes(body, path, []byte(raw))
	if err != nil {
		return body
	}
	return out
}

package profile

import "os"

// Environment fallbacks consulted when the caller leaves a field empty.
const (
	EnvProvider = "AI_PROVIDER"
	EnvAPIKey   = "AI_API_KEY"
	EnvBaseURL  = "AI_BASE_URL"
)

// Provider identifiers known to the resolver table. Any other string is
// accepted and resolved to the OpenAI defaults.
const (
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
	ProviderGemini      = "gemini"
	ProviderXAI         = "xai"
	ProviderDeepSeek    = "deepseek"
	ProviderQwen        = "qwen"
	ProviderGLM         = "glm"
	ProviderGLMCode     = "glm-code"
	ProviderMiniMax     = "minimax"
	ProviderMiniMaxCode = "minimax-code"
	ProviderKimi        = "kimi"
	ProviderKimiCode    = "kimi-code"
	ProviderLiteLLM     = "litellm"
)

// Profile is a fully resolved provider configuration. Constructed fresh per
// call from caller arguments plus environment fallback; never persisted.
type Profile struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

type defaults struct {
	baseURL string
	model   string
}

var openAIDefaults = defaults{baseURL: "https://api.openai.com/v1", model: "gpt-4.1"}

// table maps provider identifiers to their default endpoint and model.
var table = map[string]defaults{
	ProviderOpenAI:      openAIDefaults,
	ProviderAnthropic:   {baseURL: "https://api.anthropic.com/v1", model: "claude-opus-4-6"},
	ProviderGemini:      {baseURL: "https://generativelanguage.googleapis.com/v1beta/openai", model: "gemini-3-flash-preview"},
	ProviderXAI:         {baseURL: "https://api.x.ai/v1", model: "grok-4-0709"},
	ProviderDeepSeek:    {baseURL: "https://api.deepseek.com", model: "deepseek-chat"},
	ProviderQwen:        {baseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", model: "qwen3-max"},
	ProviderGLM:         {baseURL: "https://open.bigmodel.cn/api/paas/v4", model: "glm-5"},
	ProviderGLMCode:     {baseURL: "https://open.bigmodel.cn/api/coding/paas/v4", model: "GLM-5"},
	ProviderMiniMax:     {baseURL: "https://api.minimaxi.com/v1", model: "MiniMax-M2.5"},
	ProviderMiniMaxCode: {baseURL: "https://api.minimaxi.com/v1", model: "MiniMax-M2.5"},
	ProviderKimi:        {baseURL: "https://api.moonshot.cn/v1", model: "kimi-k2.5"},
	ProviderKimiCode:    {baseURL: "https://api.kimi.com/coding/v1", model: "kimi-for-coding"},
	ProviderLiteLLM:     {baseURL: "http://localhost:4000", model: "gpt-4.1"},
}

// Resolve builds a concrete Profile from the given overrides. Empty fields
// fall back to environment variables and then to the static table. Unknown
// provider names resolve to the OpenAI defaults rather than erroring; this is
// intentional graceful degradation for OpenAI-compatible gateways.
func Resolve(provider, apiKey, baseURL, model string) Profile {
	if provider == "" {
		provider = os.Getenv(EnvProvider)
	}
	if provider == "" {
		provider = ProviderOpenAI
	}
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}
	if baseURL == "" {
		baseURL = os.Getenv(EnvBaseURL)
	}

	def, ok := table[provider]
	if !ok {
		def = openAIDefaults
	}
	if baseURL == "" {
		baseURL = def.baseURL
	}
	if model == "" {
		model = def.model
	}

	return Profile{Provider: provider, APIKey: apiKey, BaseURL: baseURL, Model: model}
}

// Anthropic reports whether the profile targets the native Anthropic API,
// which authenticates with x-api-key instead of a bearer token.
func (p Profile) Anthropic() bool { return p.Provider == ProviderAnthropic }

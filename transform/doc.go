// Package transform builds the provider-specific JSON request bodies and
// headers for chat calls. It covers the OpenAI-compatible /chat/completions
// shape shared by most providers, the OpenAI /responses shape used for
// built-in web search, and Anthropic's native /messages shape with its
// top-level system field. Provider-keyed web-search and thinking-mode
// parameters are injected into the marshaled body in place. Transformation
// never fails for semantic reasons; fields are only set conditionally and
// errors surface downstream at send or parse time.
package transform

// Package profile resolves a provider identifier plus optional overrides to
// a concrete base URL, default model and API key. Resolution is deterministic
// and table driven, performs no I/O beyond reading environment fallbacks, and
// accepts unknown provider names by degrading to the OpenAI defaults.
package profile

// Package sse decodes server-sent-event streams from AI providers into a
// uniform sequence of content and reasoning deltas. It understands three wire
// shapes (OpenAI Chat Completions deltas, OpenAI Responses API typed events,
// Anthropic content-block deltas) and frames incoming bytes under a fixed
// memory bound so a server that never terminates a line cannot exhaust the
// process.
package sse

// Package engine implements the chat orchestration core: it turns a
// UI-level chat request into one or more HTTP calls against heterogeneous
// OpenAI-compatible and native vendor APIs, decodes their streamed replies
// incrementally, and runs a bounded function-calling loop before the final
// streamed answer.
//
// # Responsibilities
//
//   - Provider routing: OpenAI with web search goes to /responses, Anthropic
//     with web search to its native /messages API, everything else to the
//     shared /chat/completions path with provider-keyed parameter injection.
//   - Streaming: responses are decoded line by line under a fixed memory
//     bound and forwarded to a registered sink as they arrive, tagged with
//     the originating request id.
//   - Tool calling: an optional bounded loop of non-streaming calls detects
//     and executes built-in document tools before the final streaming call.
//   - Cancellation: every stream is registered in a session registry under a
//     caller-chosen request id; cancelling truncates the stream and returns
//     the text produced so far, it never discards output or raises an error.
//
// # Concurrency
//
// Each call runs in its caller's goroutine; any number may be in flight
// concurrently. The only shared mutable state is the session registry, which
// the Engine owns. Cancellation is cooperative: it is checked before each
// tool round and after each decoded stream line, never by aborting an
// in-flight socket read.
//
// The engine keeps no conversation state, performs no retries and stores no
// credentials; the first failure of any call is surfaced to the caller as a
// descriptive error.
package engine

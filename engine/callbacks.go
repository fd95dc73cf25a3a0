package engine

// StreamSink receives incremental content fragments as they are decoded.
//
// Fragments are delivered at least once and in wire order within one request;
// no ordering holds between distinct request ids. Implementations are called
// from the goroutine running the stream and should return quickly; a slow
// sink stalls its own stream only.
type StreamSink interface {
	// OnChunk delivers one decoded fragment tagged with the request id that
	// produced it. Fragments already carry any synthesized <think> delimiters.
	OnChunk(requestID, content string)
}

// SinkFunc adapts a plain function to the StreamSink interface.
type SinkFunc func(requestID, content string)

// OnChunk implements StreamSink.
func (f SinkFunc) OnChunk(requestID, content string) { f(requestID, content) }

// discardSink drops every fragment. Used when the caller registers no sink;
// the final concatenated text is still returned from the call itself.
type discardSink struct{}

func (discardSink) OnChunk(string, string) {}

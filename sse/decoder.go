package sse

import (
	"strings"

	"github.com/AiDocPlus/aichat/chat"
)

// Reasoning delimiters synthesized into the output stream. The wire protocols
// carry reasoning out of band; the decoder re-expresses it as an unambiguous
// <think>...</think> region in the concatenated text.
const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// DecoderOptions configure a StreamDecoder.
type DecoderOptions struct {
	// MaxBuffer overrides the framer cap; <= 0 uses MaxBufferSize.
	MaxBuffer int
	// Cancelled is polled after every decoded line. Once it reports true the
	// decoder stops; text accumulated so far remains available via Text.
	Cancelled func() bool
}

// StreamDecoder turns raw response chunks into forwardable text fragments.
// It owns the line framer, the per-format payload parser and the reasoning
// boundary state machine, and accumulates every emitted fragment so the
// finished (or cancelled) stream can be returned as a single string.
//
// The decoder is a per-stream state machine and is not safe for concurrent
// use.
type StreamDecoder struct {
	format      Format
	framer      *Framer
	cancelled   func() bool
	inReasoning bool
	done        bool
	acc         strings.Builder
}

// NewStreamDecoder constructs a decoder for one stream of the given format.
func NewStreamDecoder(format Format, optFns ...func(o *DecoderOptions)) *StreamDecoder {
	opts := DecoderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &StreamDecoder{
		format:    format,
		framer:    NewFramer(opts.MaxBuffer),
		cancelled: opts.Cancelled,
	}
}

// Push feeds one received chunk and returns the text fragments it produced,
// in wire order, already carrying any synthesized reasoning delimiters. After
// the end-of-stream sentinel or a cancellation the decoder is done and
// further pushes return nothing.
func (d *StreamDecoder) Push(chunk []byte) ([]string, error) {
	if d.done {
		return nil, nil
	}

	payloads, err := d.framer.Push(chunk)
	if err != nil {
		return nil, err
	}

	var frags []string
	for _, data := range payloads {
		if d.cancelled != nil && d.cancelled() {
			d.done = true
			break
		}
		if data == doneSentinel {
			if frag := d.exitReasoning(); frag != "" {
				frags = append(frags, frag)
			}
			d.done = true
			break
		}
		for _, delta := range parse(d.format, data) {
			frags = append(frags, d.render(delta)...)
		}
	}
	return frags, nil
}

// Finish closes the stream at EOF. If a reasoning section is still open the
// closing delimiter is returned so it reaches the sink like any other
// fragment.
func (d *StreamDecoder) Finish() string {
	d.done = true
	return d.exitReasoning()
}

// Done reports whether the stream has terminated (sentinel, cancellation or
// Finish).
func (d *StreamDecoder) Done() bool { return d.done }

// Text returns everything accumulated so far, delimiters included.
func (d *StreamDecoder) Text() string { return d.acc.String() }

// render converts one normalized delta into output fragments, maintaining
// the reasoning boundary state. Chat Completions streams reasoning as one
// continuous phase bracketed by a single tag pair; the Responses and
// Anthropic shapes deliver discontinuous reasoning chunks, each wrapped
// independently.
func (d *StreamDecoder) render(delta chat.Delta) []string {
	var out []string
	switch delta.Kind {
	case chat.DeltaReasoning:
		if d.format == FormatChatCompletions {
			if !d.inReasoning {
				out = append(out, thinkOpen)
				d.inReasoning = true
			}
			out = append(out, delta.Text)
		} else {
			out = append(out, thinkOpen+delta.Text+thinkClose)
		}
	case chat.DeltaContent:
		if d.inReasoning {
			out = append(out, thinkClose)
			d.inReasoning = false
		}
		out = append(out, delta.Text)
	}
	for _, frag := range out {
		d.acc.WriteString(frag)
	}
	return out
}

// exitReasoning emits the closing delimiter when the decoder is inside a
// continuous reasoning section.
func (d *StreamDecoder) exitReasoning() string {
	if !d.inReasoning {
		return ""
	}
	d.inReasoning = false
	d.acc.WriteString(thinkClose)
	return thinkClose
}

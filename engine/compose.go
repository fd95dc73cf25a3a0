package engine

import (
	"context"
	"strings"

	"github.com/AiDocPlus/aichat/chat"
)

// referenceHeader joins author notes with the supporting material they refer
// to. The wording is part of the prompt contract with the model and is kept
// as shipped in the desktop app.
const referenceHeader = "\n\n---\n参考素材如下：\n"

// ComposePrompt builds the user prompt for content generation: the author's
// notes alone, or notes plus a delimited reference-material section when the
// current document is non-empty.
func ComposePrompt(authorNotes, referenceContent string) string {
	if referenceContent == "" {
		return authorNotes
	}
	return authorNotes + referenceHeader + referenceContent
}

// GenerateContent runs a one-shot, non-streaming content generation: the
// composed prompt becomes the sole user message and any Messages already on
// the request are replaced.
func (e *Engine) GenerateContent(ctx context.Context, req Request, authorNotes, referenceContent string) (string, error) {
	req.Messages = []chat.Message{chat.UserMessage(ComposePrompt(authorNotes, referenceContent))}
	return e.Chat(ctx, req)
}

// GenerateContentStream is the streaming variant with conversational
// context. The message list is built as: optional system prompt, the prior
// history minus its final entry (the composed prompt stands in for it), then
// the composed user prompt. Messages already on the request are replaced.
func (e *Engine) GenerateContentStream(ctx context.Context, req Request, authorNotes, referenceContent, systemPrompt string, history []chat.Message) (string, error) {
	messages := make([]chat.Message, 0, len(history)+2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chat.SystemMessage(systemPrompt))
	}
	if len(history) > 0 {
		messages = append(messages, history[:len(history)-1]...)
	}
	messages = append(messages, chat.UserMessage(ComposePrompt(authorNotes, referenceContent)))

	req.Messages = messages
	return e.ChatStream(ctx, req)
}

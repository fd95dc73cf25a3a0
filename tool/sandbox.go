package tool

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AiDocPlus/aichat/chat"
)

const (
	// maxSearchResults caps how many matches a single search returns.
	maxSearchResults = 10
	// snippetRadius is the number of bytes kept on each side of a match.
	snippetRadius = 50
)

// Execute runs one model-issued tool call against the document snapshot and
// returns the tool-role result to append to the transcript. Unknown tool
// names produce an error payload, not a Go error.
func Execute(call chat.ToolCall, docs []chat.Document) chat.ToolResult {
	var content string
	switch call.Function.Name {
	case NameSearchDocuments:
		content = searchDocuments(call.Function.Arguments, docs)
	case NameReadDocument:
		content = readDocument(call.Function.Arguments, docs)
	case NameDocumentStats:
		content = documentStats(docs)
	default:
		content = errorPayload(fmt.Sprintf("unknown tool: %s", call.Function.Name))
	}

	return chat.ToolResult{
		ToolCallID: call.ID,
		Role:       chat.RoleTool,
		Content:    content,
	}
}

type searchMatch struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

func searchDocuments(arguments string, docs []chat.Document) string {
	var args struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal([]byte(arguments), &args) // malformed args degrade to empty query

	if args.Query == "" {
		return errorPayload("search query is empty")
	}

	queryLower := strings.ToLower(args.Query)
	results := make([]searchMatch, 0, maxSearchResults)
	for _, doc := range docs {
		if !strings.Contains(strings.ToLower(doc.Title), queryLower) &&
			!strings.Contains(strings.ToLower(doc.Content), queryLower) {
			continue
		}
		results = append(results, searchMatch{
			ID:      doc.ID,
			Title:   doc.Title,
			Snippet: snippet(doc.Content, args.Query),
		})
		if len(results) >= maxSearchResults {
			break
		}
	}

	return mustJSON(map[string]any{"results": results, "total": len(results)})
}

// snippet extracts a window of snippetRadius bytes around the first
// case-insensitive match, snapped to rune boundaries and started at a word
// boundary when one precedes the window. When the match was in the title
// only, the leading content is returned instead.
func snippet(content, query string) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx < 0 {
		r := []rune(content)
		if len(r) > 2*snippetRadius {
			r = r[:2*snippetRadius]
		}
		return string(r)
	}

	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + snippetRadius
	if end > len(content) {
		end = len(content)
	}
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	if ws := strings.LastIndexFunc(content[:start], unicode.IsSpace); ws >= 0 {
		_, width := utf8.DecodeRuneInString(content[ws:])
		start = ws + width
	}
	return content[start:end]
}

func readDocument(arguments string, docs []chat.Document) string {
	var args struct {
		DocumentID string `json:"document_id"`
	}
	_ = json.Unmarshal([]byte(arguments), &args)

	if args.DocumentID == "" {
		return errorPayload("document id is empty")
	}

	for _, doc := range docs {
		if doc.ID == args.DocumentID {
			return mustJSON(map[string]any{
				"id":         doc.ID,
				"title":      doc.Title,
				"content":    doc.Content,
				"char_count": utf8.RuneCountInString(doc.Content),
			})
		}
	}

	return errorPayload(fmt.Sprintf("document not found: %s", args.DocumentID))
}

func documentStats(docs []chat.Document) string {
	type docSummary struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		CharCount int    `json:"char_count"`
	}

	totalChars := 0
	summaries := make([]docSummary, 0, len(docs))
	for _, doc := range docs {
		n := utf8.RuneCountInString(doc.Content)
		totalChars += n
		summaries = append(summaries, docSummary{ID: doc.ID, Title: doc.Title, CharCount: n})
	}

	return mustJSON(map[string]any{
		"total_documents":  len(docs),
		"total_characters": totalChars,
		"documents":        summaries,
	})
}

func errorPayload(msg string) string {
	return mustJSON(map[string]string{"error": msg})
}

// mustJSON marshals values built exclusively from JSON-safe types; a failure
// here would be a programming error, so it is reported as an error payload
// rather than panicking into the orchestration loop.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error": "failed to encode tool result"}`
	}
	return string(b)
}

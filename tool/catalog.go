package tool

import "github.com/AiDocPlus/aichat/chat"

// Built-in tool names.
const (
	NameSearchDocuments = "search_documents"
	NameReadDocument    = "read_document"
	NameDocumentStats   = "get_document_stats"
)

// Definitions returns the fixed catalog of built-in tools in OpenAI function
// calling format, ready to attach to a chat request.
func Definitions() []chat.ToolDefinition {
	return []chat.ToolDefinition{
		{
			Type: "function",
			Function: chat.FunctionDefinition{
				Name:        NameSearchDocuments,
				Description: "Search the project's documents, returning matching document titles and snippets",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "Search keywords",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: chat.FunctionDefinition{
				Name:        NameReadDocument,
				Description: "Read the full content of a specific document",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"document_id": map[string]any{
							"type":        "string",
							"description": "Document ID",
						},
					},
					"required": []string{"document_id"},
				},
			},
		},
		{
			Type: "function",
			Function: chat.FunctionDefinition{
				Name:        NameDocumentStats,
				Description: "Get statistics for the current project, including document count and total character count",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
					"required":   []string{},
				},
			},
		},
	}
}

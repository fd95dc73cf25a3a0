// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing provider wire payloads (SSE streams,
// chat-completion responses) and the httptest servers that serve them. These
// helpers are intentionally minimal and are not intended for production
// usage.
package testutil

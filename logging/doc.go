// Package logging provides a tiny abstraction over slog so the engine can
// depend on a minimal Logger interface while callers plug in any structured
// logger. A NoOp implementation keeps the default construction path free of
// logging side effects.
package logging

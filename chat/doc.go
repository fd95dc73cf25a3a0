// Package chat defines the shared data model of the engine: conversation
// messages, streaming deltas, tool call / result structures and the project
// document snapshot consumed by the built-in tools. Types here are plain
// value types with wire-compatible JSON tags; they carry no behavior beyond
// small constructors and never touch the network.
package chat

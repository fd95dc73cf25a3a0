// Package tool implements the built-in function-calling catalog: pure,
// read-only handlers over an in-memory snapshot of project documents supplied
// by the caller. Handlers never touch the filesystem or network and never
// return Go errors to the orchestration loop; every failure is encoded as an
// {"error": ...} JSON payload so a bad call cannot abort a tool round.
package tool

// Package driving defines interfaces that external actors (CLI, TUI, MCP,
// the inbox watcher) use to interact with core services. These are the
// "driving" ports in hexagonal architecture terminology.
//
// Implementations of these interfaces live in internal/core/services.
package driving

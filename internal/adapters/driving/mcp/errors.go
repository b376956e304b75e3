// Package mcp provides an MCP (Model Context Protocol) server adapter for MediSimplify.
// It lets AI assistants browse, search and export the processed-document store.
package mcp

import "errors"

// ErrMissingDocumentStore is returned when the document store is not provided.
var ErrMissingDocumentStore = errors.New("mcp: document store is required")

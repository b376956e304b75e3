package mcp

import (
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
type Ports struct {
	// Documents is the processed-document store.
	Documents driving.DocumentRecordStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Documents == nil {
		return ErrMissingDocumentStore
	}
	return nil
}

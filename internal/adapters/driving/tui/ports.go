// Package tui provides an interactive terminal interface for browsing
// saved documents. It is a driving adapter over the document record store.
package tui

import (
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI depends on.
type Ports struct {
	// Documents lists, searches, exports and deletes processed documents.
	Documents driving.DocumentRecordStore
}

// NewPorts creates a Ports aggregate.
func NewPorts(documents driving.DocumentRecordStore) *Ports {
	return &Ports{Documents: documents}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Documents == nil {
		return ErrMissingDocumentStore
	}
	return nil
}

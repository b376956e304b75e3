package tui

import "errors"

// ErrMissingDocumentStore is returned when the document store is not provided.
var ErrMissingDocumentStore = errors.New("tui: document store is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")

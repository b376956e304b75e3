// Package domain defines the core business entities for medisimplify.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ProcessedDocument: The AI pipeline's output (image, original and simplified text)
//   - DocumentType: The classification tag used for filtering
//   - ExportFormat: Text or structured export rendering
//   - AppSettings: Storage, inbox and logging configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

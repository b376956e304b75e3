package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrStorageUnavailable indicates the configured storage backend cannot be used.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Fixed messages carried by StorageError, one per write operation.
const (
	MsgSaveFailed   = "Failed to save document"
	MsgDeleteFailed = "Failed to delete document"
	MsgExportFailed = "Failed to export document"
)

// StorageError is returned by write-path operations when the underlying
// key-value store or file system fails.
type StorageError struct {
	// Op is the failing operation ("save", "delete", "export").
	Op string

	// Message is the fixed human-readable message for Op.
	Message string

	// Err is the underlying cause.
	Err error
}

// NewStorageError creates a StorageError wrapping err.
func NewStorageError(op, message string, err error) *StorageError {
	return &StorageError{Op: op, Message: message, Err: err}
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConflictError is returned when saving a document whose ID is already indexed.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("document %q already exists", e.ID)
}

// Is makes ConflictError match ErrAlreadyExists.
func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyExists
}

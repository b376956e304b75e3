package driven

import (
	"context"
	"errors"
)

// ErrOutsideSandbox is returned when a write, copy destination or removal
// targets a path outside the file system's root.
var ErrOutsideSandbox = errors.New("path is outside the sandbox")

// FileSystem provides file operations scoped to a sandboxed app directory.
// Paths passed in and returned are absolute.
type FileSystem interface {
	// Root returns the absolute sandbox root.
	Root() string

	// Path joins elem onto the sandbox root.
	Path(elem ...string) string

	// MkdirAll creates dir and any parents. Existing directories are not an error.
	MkdirAll(ctx context.Context, dir string) error

	// Copy copies the file at src (anywhere readable) to dst (inside the sandbox).
	Copy(ctx context.Context, src, dst string) error

	// WriteFile writes data to path, replacing any existing file.
	WriteFile(ctx context.Context, path string, data []byte) error

	// ReadFile returns the contents of path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// Remove deletes the file at path.
	Remove(ctx context.Context, path string) error

	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)
}

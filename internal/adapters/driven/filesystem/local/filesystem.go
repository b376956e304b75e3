package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/medisimplify/medisimplify/internal/core/ports/driven"
)

const (
	dirPerm  = 0700
	filePerm = 0600
)

// Ensure FileSystem implements the interface.
var _ driven.FileSystem = (*FileSystem)(nil)

// FileSystem is a sandboxed local-disk implementation of driven.FileSystem.
type FileSystem struct {
	root string
}

// NewFileSystem creates a file system rooted at root, creating it if needed.
func NewFileSystem(root string) (*FileSystem, error) {
	if root == "" {
		return nil, errors.New("file system root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("creating root: %w", err)
	}
	return &FileSystem{root: abs}, nil
}

// Root returns the absolute sandbox root.
func (f *FileSystem) Root() string {
	return f.root
}

// Path joins elem onto the sandbox root.
func (f *FileSystem) Path(elem ...string) string {
	return filepath.Join(append([]string{f.root}, elem...)...)
}

// MkdirAll creates dir and any parents inside the sandbox.
func (f *FileSystem) MkdirAll(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.confine(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(target, dirPerm)
}

// Copy copies src to dst. The copy is written to a temporary file next to
// dst and renamed into place, so a failed copy never leaves a partial file.
func (f *FileSystem) Copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.confine(dst)
	if err != nil {
		return err
	}
	source, err := resolveSource(src)
	if err != nil {
		return err
	}

	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("copy %s: is a directory", source)
	}

	return writeAtomic(target, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// WriteFile writes data to path inside the sandbox, replacing any existing file.
func (f *FileSystem) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.confine(path)
	if err != nil {
		return err
	}
	return writeAtomic(target, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadFile returns the contents of path.
func (f *FileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	source, err := resolveSource(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(source)
}

// Remove deletes the file at path inside the sandbox.
func (f *FileSystem) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.confine(path)
	if err != nil {
		return err
	}
	if target == f.root {
		return fmt.Errorf("refusing to remove sandbox root: %w", driven.ErrOutsideSandbox)
	}
	return os.Remove(target)
}

// Exists reports whether path exists.
func (f *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	source, err := resolveSource(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(source)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// confine resolves path against the root and rejects anything outside it.
func (f *FileSystem) confine(path string) (string, error) {
	p, err := resolveSource(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(f.root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(f.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, driven.ErrOutsideSandbox)
	}
	return p, nil
}

// resolveSource turns a file:// URI into a path; plain paths pass through.
func resolveSource(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is required")
	}
	if !strings.HasPrefix(path, "file://") {
		return path, nil
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("unsupported file uri host %q", u.Host)
	}
	return filepath.FromSlash(u.Path), nil
}

func writeAtomic(target string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-"+filepath.Base(target)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, target)
}

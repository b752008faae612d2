package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// URLPrefix is the path under which stored images are served.
const URLPrefix = "uploads"

// FileStore saves uploaded images to disk under a base directory.
type FileStore struct {
	basePath string
	create   func(path string) (io.WriteCloser, error)
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{basePath: basePath, create: createExclusive}, nil
}

// createExclusive opens a new file for writing and fails if it already exists.
func createExclusive(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

// BasePath returns the directory images are written to.
func (f *FileStore) BasePath() string {
	return f.basePath
}

// Save writes r to a file named after name and returns its "uploads/<name>" reference.
func (f *FileStore) Save(ctx context.Context, name, _ string, r io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filename := safeFilename(name)
	target := filepath.Join(f.basePath, filename)

	out, err := f.create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close file: %w", err)
	}

	return URLPrefix + "/" + filename, nil
}

// Delete removes the file behind ref. Missing files are not an error.
func (f *FileStore) Delete(_ context.Context, ref string) error {
	target := filepath.Join(f.basePath, safeFilename(ref))

	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func safeFilename(name string) string {
	name = filepath.Base(filepath.ToSlash(name))
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "image"
	}
	return name
}

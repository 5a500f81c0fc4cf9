package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

// ErrFileNotFound reports that an interval's data file is absent. It is not a failure:
// the interval is simply not convertible.
var ErrFileNotFound = errors.New("data file not found")

// Resolver fetches the raw bytes backing an interval.
type Resolver interface {
	Resolve(ctx context.Context, iv model.ScanInterval) ([]byte, error)
	Has(iv model.ScanInterval) bool
}

// DirResolver looks up sibling files next to a descriptor, ignoring case.
type DirResolver struct {
	dir   string
	base  string
	names map[string]string
}

// NewDirResolver indexes the files in dir for the descriptor base name.
func NewDirResolver(dir, base string) (*DirResolver, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	names := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names[strings.ToLower(entry.Name())] = entry.Name()
	}
	return &DirResolver{dir: dir, base: base, names: names}, nil
}

// ForDescriptor builds a DirResolver for the descriptor at path.
func ForDescriptor(path string) (*DirResolver, error) {
	return NewDirResolver(filepath.Dir(path), BaseName(path))
}

// Base returns the descriptor base name the resolver matches against.
func (r *DirResolver) Base() string {
	return r.base
}

// Has reports whether the interval's sibling file exists.
func (r *DirResolver) Has(iv model.ScanInterval) bool {
	_, ok := r.lookup(iv)
	return ok
}

// Resolve reads the interval's sibling file.
func (r *DirResolver) Resolve(ctx context.Context, iv model.ScanInterval) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := r.lookup(iv)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, SiblingName(r.base, iv))
	}
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (r *DirResolver) lookup(iv model.ScanInterval) (string, bool) {
	if iv.FileExtension == "" {
		return "", false
	}
	name, ok := r.names[strings.ToLower(SiblingName(r.base, iv))]
	return name, ok
}

// MemoryResolver serves sibling files from memory, keyed by lower-cased file name.
type MemoryResolver struct {
	Base  string
	Files map[string][]byte
}

// Has reports whether the interval's sibling file is present.
func (r MemoryResolver) Has(iv model.ScanInterval) bool {
	_, ok := r.Files[strings.ToLower(SiblingName(r.Base, iv))]
	return ok
}

// Resolve returns the interval's sibling file contents.
func (r MemoryResolver) Resolve(_ context.Context, iv model.ScanInterval) ([]byte, error) {
	name := strings.ToLower(SiblingName(r.Base, iv))
	data, ok := r.Files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return data, nil
}

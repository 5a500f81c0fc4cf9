package convert

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

// Temp files start out owner-only; outputs get regular file permissions.
const outputFileMode = 0o644

// WriteOptions controls how outputs land on disk.
type WriteOptions struct {
	Dir      string
	Base     string
	ForceZip bool
	NoZip    bool
}

// WriteOutputs stores conversion outputs: a single output is written as a plain file, several
// outputs are bundled into <base>_converted.zip. It returns the written paths.
func WriteOutputs(result model.ConversionResult, opts WriteOptions) ([]string, error) {
	if len(result.Outputs) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	bundle := !opts.NoZip && (opts.ForceZip || len(result.Outputs) > 1)
	if !bundle {
		paths := make([]string, 0, len(result.Outputs))
		for _, out := range result.Outputs {
			path := filepath.Join(opts.Dir, out.Name)
			if err := writeAtomic(path, func(w io.Writer) error {
				_, err := io.WriteString(w, out.Content)
				return err
			}); err != nil {
				return paths, fmt.Errorf("failed to write %s: %w", out.Name, err)
			}
			paths = append(paths, path)
		}
		return paths, nil
	}
	path := filepath.Join(opts.Dir, ArchiveName(opts.Base))
	if err := writeAtomic(path, func(w io.Writer) error {
		return WriteArchive(w, result.Outputs)
	}); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}
	return []string{path}, nil
}

// WriteArchive writes outputs as zip entries in their given order.
func WriteArchive(w io.Writer, outputs []model.Output) error {
	zw := zip.NewWriter(w)
	for _, out := range outputs {
		entry, err := zw.Create(out.Name)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", out.Name, err)
		}
		if _, err := io.WriteString(entry, out.Content); err != nil {
			return fmt.Errorf("failed to write %s: %w", out.Name, err)
		}
	}
	return zw.Close()
}

func writeAtomic(path string, fill func(w io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "dsc2asc-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := fill(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	if err := tmpFile.Chmod(outputFileMode); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}
	return os.Rename(tmpPath, path)
}

package descriptor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

// DefaultEncoding is used when no encoding label is configured.
const DefaultEncoding = "utf-8"

var (
	// ErrNoIntervals marks a descriptor without a single interval record.
	ErrNoIntervals = errors.New("no intervals found")
	// ErrUnknownEncoding is returned for encoding labels outside the WHATWG registry.
	ErrUnknownEncoding = errors.New("unknown text encoding")
)

// KnownEncoding reports whether label names an encoding Decode accepts.
func KnownEncoding(label string) bool {
	_, err := htmlindex.Get(strings.TrimSpace(label))
	return err == nil
}

// Decode converts raw descriptor bytes to text using a WHATWG encoding label
// such as "utf-8", "windows-1251" or "koi8-r".
func Decode(raw []byte, label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	text, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode descriptor as %s: %w", label, err)
	}
	return strings.TrimPrefix(string(text), "\ufeff"), nil
}

// Read decodes and parses a descriptor from r.
func Read(r io.Reader, label string) (model.ScanDescriptor, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.ScanDescriptor{}, fmt.Errorf("failed to read descriptor: %w", err)
	}
	text, err := Decode(raw, label)
	if err != nil {
		return model.ScanDescriptor{}, err
	}
	return Parse(text), nil
}

// Load reads the descriptor at path and rejects it when it declares no intervals.
func Load(path, label string) (model.ScanDescriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.ScanDescriptor{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only descriptor.
			_ = cerr
		}
	}()
	desc, err := Read(file, label)
	if err != nil {
		return model.ScanDescriptor{}, err
	}
	if !desc.IsValid() {
		return desc, ErrNoIntervals
	}
	return desc, nil
}

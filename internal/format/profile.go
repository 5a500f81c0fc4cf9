// Package format defines output format profiles and serializes spectra to delimited text.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

const (
	// DefaultXPrecision is the number of decimals written for angles.
	DefaultXPrecision = 4
	// DefaultYPrecision is the number of decimals written for intensities.
	DefaultYPrecision = 1
	// DefaultProfile is used when nothing else is configured.
	DefaultProfile = "asc"
)

// ErrUnknownProfile is returned by Lookup for unregistered profile names.
var ErrUnknownProfile = errors.New("unknown format profile")

var builtinProfiles = []model.FormatProfile{
	{Name: "asc", Extension: "asc", Delimiter: " ", DecimalSeparator: ".", MimeType: "text/plain", XPrecision: DefaultXPrecision, YPrecision: DefaultYPrecision},
	{Name: "csv_std", Extension: "csv", Delimiter: ",", DecimalSeparator: ".", MimeType: "text/csv", XPrecision: DefaultXPrecision, YPrecision: DefaultYPrecision},
	{Name: "csv_ru", Extension: "csv", Delimiter: ";", DecimalSeparator: ",", MimeType: "text/csv", XPrecision: DefaultXPrecision, YPrecision: DefaultYPrecision},
}

// Registry holds the profiles available for conversion, in registration order.
type Registry struct {
	order    []string
	profiles map[string]model.FormatProfile
}

// NewRegistry returns the built-in profiles plus extra ones. An extra profile with a built-in
// name replaces the built-in.
func NewRegistry(extra ...model.FormatProfile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]model.FormatProfile)}
	for _, p := range builtinProfiles {
		r.add(p)
	}
	for _, p := range extra {
		if err := Validate(p); err != nil {
			return nil, err
		}
		r.add(p)
	}
	return r, nil
}

func (r *Registry) add(p model.FormatProfile) {
	if _, ok := r.profiles[p.Name]; !ok {
		r.order = append(r.order, p.Name)
	}
	r.profiles[p.Name] = p
}

// Lookup returns the profile registered under name.
func (r *Registry) Lookup(name string) (model.FormatProfile, error) {
	p, ok := r.profiles[strings.TrimSpace(name)]
	if !ok {
		return model.FormatProfile{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownProfile, name, strings.Join(r.order, ", "))
	}
	return p, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.profiles[name]
	return ok
}

// List returns every profile in registration order.
func (r *Registry) List() []model.FormatProfile {
	out := make([]model.FormatProfile, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.profiles[name])
	}
	return out
}

// Validate checks that a profile can be serialized and named.
func Validate(p model.FormatProfile) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("format profile name must not be empty")
	case p.Extension == "" || strings.ContainsAny(p.Extension, `/\.`):
		return fmt.Errorf("format profile %q: invalid extension %q", p.Name, p.Extension)
	case p.Delimiter == "":
		return fmt.Errorf("format profile %q: delimiter must not be empty", p.Name)
	case p.DecimalSeparator == "":
		return fmt.Errorf("format profile %q: decimal separator must not be empty", p.Name)
	case p.DecimalSeparator == p.Delimiter:
		return fmt.Errorf("format profile %q: decimal separator equals delimiter", p.Name)
	case p.XPrecision < 0 || p.YPrecision < 0:
		return fmt.Errorf("format profile %q: precision must be >= 0", p.Name)
	}
	return nil
}

// Package convert turns descriptor intervals into delimited text documents.
package convert

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/verte-zerg/dsc2asc/internal/descriptor"
	"github.com/verte-zerg/dsc2asc/internal/format"
	"github.com/verte-zerg/dsc2asc/internal/model"
	"github.com/verte-zerg/dsc2asc/internal/spectrum"
)

// ErrInvalidAxis is returned for intervals whose start or step did not parse as a number.
var ErrInvalidAxis = errors.New("interval start or step is not a number")

// Convert serializes every eligible interval whose data file the resolver can supply.
//
// Intervals with status 0 are ignored, missing files are skipped, and any other per-interval
// error is recorded in the result's Failures while the remaining intervals are still processed.
// Outputs keep descriptor order. A descriptor without intervals fails with
// descriptor.ErrNoIntervals; a cancelled ctx stops the loop and returns what was gathered.
func Convert(ctx context.Context, desc model.ScanDescriptor, base string, resolver Resolver, profile model.FormatProfile) (model.ConversionResult, error) {
	var result model.ConversionResult
	if !desc.IsValid() {
		return result, descriptor.ErrNoIntervals
	}
	used := make(map[string]struct{}, len(desc.Intervals))
	for idx, iv := range desc.Intervals {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !iv.Eligible() {
			continue
		}
		result.Eligible++

		data, err := resolver.Resolve(ctx, iv)
		if errors.Is(err, ErrFileNotFound) {
			continue
		}
		if err != nil {
			result.Failures = append(result.Failures, model.IntervalFailure{Interval: idx, Extension: iv.FileExtension, Err: err})
			continue
		}
		result.Convertible++

		content, err := Interval(iv, data, profile)
		if err != nil {
			result.Failures = append(result.Failures, model.IntervalFailure{Interval: idx, Extension: iv.FileExtension, Err: err})
			continue
		}
		result.Outputs = append(result.Outputs, model.Output{
			Name:     uniqueOutputName(used, base, idx, iv, profile),
			Content:  content,
			Interval: idx,
		})
	}
	return result, nil
}

// Interval decodes one data buffer and serializes it against the interval's axis.
func Interval(iv model.ScanInterval, data []byte, profile model.FormatProfile) (string, error) {
	xs, ys, err := decodeInterval(iv, data)
	if err != nil {
		return "", err
	}
	return format.Serialize(xs, ys, profile), nil
}

// Samples resolves one interval's data file and returns its angle axis and intensities.
func Samples(ctx context.Context, resolver Resolver, iv model.ScanInterval) ([]float64, []float32, error) {
	data, err := resolver.Resolve(ctx, iv)
	if err != nil {
		return nil, nil, err
	}
	return decodeInterval(iv, data)
}

func decodeInterval(iv model.ScanInterval, data []byte) ([]float64, []float32, error) {
	if math.IsNaN(iv.Start) || math.IsNaN(iv.Step) {
		return nil, nil, ErrInvalidAxis
	}
	ys := spectrum.Decode(data)
	return spectrum.Axis(iv, len(ys)), ys, nil
}

// Availability describes one eligible interval and whether its data file is present.
type Availability struct {
	Index    int
	Interval model.ScanInterval
	Present  bool
}

// Label renders the interval the way interval pickers list it: "N: start° - end° [OK]".
func (a Availability) Label() string {
	state := "OK"
	if !a.Present {
		state = "missing"
	}
	return fmt.Sprintf("%d: %g° - %g° [%s]", a.Index+1, a.Interval.Start, a.Interval.End, state)
}

// Survey lists the eligible intervals with file presence and returns how many are present.
func Survey(desc model.ScanDescriptor, resolver Resolver) ([]Availability, int) {
	items := make([]Availability, 0, len(desc.Intervals))
	present := 0
	for idx, iv := range desc.Intervals {
		if !iv.Eligible() {
			continue
		}
		item := Availability{Index: idx, Interval: iv, Present: resolver.Has(iv)}
		if item.Present {
			present++
		}
		items = append(items, item)
	}
	return items, present
}

// FirstPresent returns the position of the first eligible interval with data, or -1.
func FirstPresent(items []Availability) int {
	for _, item := range items {
		if item.Present {
			return item.Index
		}
	}
	return -1
}

// Package model defines shared data structures.
package model

import "time"

// ScanDescriptor is the parsed content of one descriptor (.dsc) file.
type ScanDescriptor struct {
	Comments   []string
	General    map[string]string
	Goniometer map[string]string
	Intervals  []ScanInterval
}

// IsValid reports whether the descriptor declares at least one interval.
func (d ScanDescriptor) IsValid() bool {
	return len(d.Intervals) > 0
}

// ScanInterval is one contiguous, linearly stepped scan segment.
type ScanInterval struct {
	Start         float64
	End           float64
	Step          float64
	Status        int
	FileExtension string
}

// Eligible reports whether a data file is expected for the interval.
func (iv ScanInterval) Eligible() bool {
	return iv.Status != 0
}

// FormatProfile describes a text output target.
type FormatProfile struct {
	Name             string
	Extension        string
	Delimiter        string
	DecimalSeparator string
	MimeType         string
	XPrecision       int
	YPrecision       int
}

// Output is one serialized interval.
type Output struct {
	Name     string
	Content  string
	Interval int
}

// IntervalFailure records why an eligible interval produced no output.
type IntervalFailure struct {
	Interval  int
	Extension string
	Err       error
}

// ConversionResult aggregates the outputs of one conversion run.
type ConversionResult struct {
	Outputs     []Output
	Failures    []IntervalFailure
	Eligible    int
	Convertible int
}

// Converted returns the number of intervals that produced an output.
func (r ConversionResult) Converted() int {
	return len(r.Outputs)
}

// Config defines conversion settings after flags, config file and preferences are merged.
type Config struct {
	Format   string
	Encoding string
	OutDir   string
	Zip      bool
	NoZip    bool
}

// PreviewConfig defines chart rendering settings.
type PreviewConfig struct {
	Interval int
	Width    int
	Height   int
	Color    bool
}

// HistoryEntry captures one recorded conversion run.
type HistoryEntry struct {
	ID             int64
	ConvertedAt    time.Time
	DescriptorPath string
	Fingerprint    string
	Format         string
	Eligible       int
	Convertible    int
	Converted      int
}

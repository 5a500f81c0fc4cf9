package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/dsc2asc/internal/convert"
	"github.com/verte-zerg/dsc2asc/internal/descriptor"
	"github.com/verte-zerg/dsc2asc/internal/model"
)

// RenderMetadata prints labelled descriptor metadata, comments and the interval count.
func RenderMetadata(w io.Writer, desc model.ScanDescriptor) error {
	rows := make([][]string, 0)
	for _, f := range descriptor.LabeledFields(desc) {
		rows = append(rows, []string{f.Label, f.Value})
	}
	rows = append(rows, []string{"Total intervals", strconv.Itoa(len(desc.Intervals))})
	if _, err := fmt.Fprintln(w, "Metadata"); err != nil {
		return err
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, "  "+line); err != nil {
			return err
		}
	}
	if len(desc.Comments) > 0 {
		if _, err := fmt.Fprintln(w, "Comment"); err != nil {
			return err
		}
		for _, c := range desc.Comments {
			if _, err := fmt.Fprintln(w, "  "+c); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderIntervals prints eligible intervals with step and data file presence.
func RenderIntervals(w io.Writer, items []convert.Availability, present int) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No intervals with data files declared.")
		return err
	}
	headers := []string{"Interval", "Step", "File", "Status"}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		status := "OK"
		if !item.Present {
			status = "missing"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d: %g° - %g°", item.Index+1, item.Interval.Start, item.Interval.End),
			strconv.FormatFloat(item.Interval.Step, 'g', -1, 64),
			item.Interval.FileExtension,
			status,
		})
	}
	if _, err := fmt.Fprintln(w, "Intervals"); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, "  "+line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Convertible: %d of %d\n", present, len(items))
	return err
}

// RenderHistory prints recorded conversion runs, oldest first.
func RenderHistory(w io.Writer, entries []model.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No conversions recorded.")
		return err
	}
	headers := []string{"When", "Descriptor", "Format", "Eligible", "Convertible", "Converted", "Fingerprint"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ConvertedAt.Local().Format(time.DateTime),
			e.DescriptorPath,
			e.Format,
			strconv.Itoa(e.Eligible),
			strconv.Itoa(e.Convertible),
			strconv.Itoa(e.Converted),
			e.Fingerprint,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{3: true, 4: true, 5: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderFormats prints the available format profiles, marking the active one.
func RenderFormats(w io.Writer, profiles []model.FormatProfile, active string) error {
	headers := []string{"", "Name", "Extension", "Delimiter", "Decimal", "Precision", "MIME"}
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		mark := ""
		if p.Name == active {
			mark = "*"
		}
		rows = append(rows, []string{
			mark,
			p.Name,
			"." + p.Extension,
			strconv.Quote(p.Delimiter),
			strconv.Quote(p.DecimalSeparator),
			fmt.Sprintf("%d/%d", p.XPrecision, p.YPrecision),
			p.MimeType,
		})
	}
	for _, line := range formatTable(headers, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

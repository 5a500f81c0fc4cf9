// Package chart renders spectra as braille line charts for the terminal.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/verte-zerg/dsc2asc/internal/spectrum"
)

// Spectrum is a single intensity curve over an angle axis.
type Spectrum struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
}

const (
	defaultPlotHeight   = 12
	minPlotWidth        = 10
	axisSeparator       = " │"
	axisCorner          = " └"
	axisRule            = "─"
	colorReset          = "\x1b[0m"
	lineColor           = "\x1b[34m"
	terminalWidthBackup = 80
	yLabelPrecision     = 1
	xLabelPrecision     = 2
)

// Plot renders the spectrum sized for the current terminal.
func Plot(w io.Writer, s Spectrum, width, height int) error {
	return plot(w, s, width, height, false)
}

// PlotWithColor renders the spectrum with optional forced color output.
func PlotWithColor(w io.Writer, s Spectrum, width, height int, forceColor bool) error {
	return plot(w, s, width, height, forceColor)
}

func plot(w io.Writer, s Spectrum, width, height int, forceColor bool) error {
	values := carryFinite(s.Y)
	if len(values) == 0 {
		_, err := fmt.Fprintln(w, "No samples to plot.")
		return err
	}

	if height <= 0 {
		height = defaultPlotHeight
	}
	minVal, maxVal := seriesMinMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		minVal--
		maxVal++
	}
	labels := makeAxisLabels(height, minVal, maxVal)
	labelWidth := maxLabelWidth(labels)

	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), labelWidth)
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	scaled := resampleSeries(values, width)
	cells := makeCells(height, width)
	prevX, prevY := -1, -1
	for x, v := range scaled {
		py := valueToRow(v, minVal, maxVal, height*4)
		px := x * 2
		if prevX >= 0 {
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				setBrailleDot(cells, dx, dy)
			})
		} else {
			setBrailleDot(cells, px, py)
		}
		prevX, prevY = px, py
	}

	useColor := shouldUseColor(w, forceColor)
	if s.Title != "" {
		if _, err := fmt.Fprintln(w, s.Title); err != nil {
			return err
		}
	}
	if s.YLabel != "" {
		if _, err := fmt.Fprintln(w, s.YLabel); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", labelWidth, labels[y], axisSeparator))
		if useColor {
			row.WriteString(lineColor)
		}
		for x := 0; x < width; x++ {
			row.WriteRune(brailleFromMask(cells[y][x]))
		}
		if useColor {
			row.WriteString(colorReset)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	rule := strings.Repeat(" ", labelWidth) + axisCorner + strings.Repeat(axisRule, width)
	if _, err := fmt.Fprintln(w, rule); err != nil {
		return err
	}
	indent := labelWidth + utf8.RuneCountInString(axisCorner)
	if _, err := fmt.Fprintln(w, strings.Repeat(" ", indent)+xAxisLabels(s.X, width)); err != nil {
		return err
	}
	if s.XLabel != "" {
		if _, err := fmt.Fprintln(w, strings.Repeat(" ", indent)+centered(s.XLabel, width)); err != nil {
			return err
		}
	}
	return nil
}

// PlotWidthFor computes a plot width that fits a total width next to axis labels.
func PlotWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - labelWidth - utf8.RuneCountInString(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// carryFinite replaces NaN and infinite samples with the previous finite value so the curve
// stays continuous; leading non-finite samples become the first finite one.
func carryFinite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	first := math.NaN()
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			first = v
			break
		}
	}
	if math.IsNaN(first) {
		return nil
	}
	last := first
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = last
		}
		out = append(out, v)
		last = v
	}
	return out
}

func makeAxisLabels(height int, minVal, maxVal float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatLabel(maxVal, yLabelPrecision)
	if height > 2 {
		labels[height/2] = formatLabel(maxVal-(maxVal-minVal)*float64(height/2)/float64(height-1), yLabelPrecision)
	}
	if height > 1 {
		labels[height-1] = formatLabel(minVal, yLabelPrecision)
	}
	return labels
}

func maxLabelWidth(labels []string) int {
	width := 0
	for _, l := range labels {
		if n := utf8.RuneCountInString(l); n > width {
			width = n
		}
	}
	return width
}

func xAxisLabels(xs []float64, width int) string {
	if len(xs) == 0 {
		return ""
	}
	left := formatLabel(xs[0], xLabelPrecision)
	right := formatLabel(xs[len(xs)-1], xLabelPrecision)
	mid := formatLabel(xs[len(xs)/2], xLabelPrecision)
	line := []rune(strings.Repeat(" ", width))
	place := func(s string, at int) {
		r := []rune(s)
		if at < 0 {
			at = 0
		}
		if at+len(r) > len(line) {
			at = len(line) - len(r)
		}
		if at < 0 {
			return
		}
		copy(line[at:], r)
	}
	place(left, 0)
	if width >= utf8.RuneCountInString(left)+utf8.RuneCountInString(mid)+utf8.RuneCountInString(right)+4 {
		place(mid, width/2-utf8.RuneCountInString(mid)/2)
	}
	place(right, width-utf8.RuneCountInString(right))
	return strings.TrimRight(string(line), " ")
}

func centered(s string, width int) string {
	pad := (width - utf8.RuneCountInString(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func formatLabel(v float64, prec int) string {
	return fmt.Sprintf("%.*f", prec, v)
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) == width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	if len(values) > width {
		// Keep the peak of each bucket: diffraction lines are narrow and averaging hides them.
		for i := 0; i < width; i++ {
			start := int(float64(i) * float64(len(values)) / float64(width))
			end := int(float64(i+1) * float64(len(values)) / float64(width))
			if end <= start {
				end = start + 1
			}
			if end > len(values) {
				end = len(values)
			}
			peak := values[start]
			for _, v := range values[start:end] {
				if v > peak {
					peak = v
				}
			}
			out[i] = peak
		}
		return out
	}
	if width == 1 || len(values) == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := int(math.Floor(pos))
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

func seriesMinMax(values []float64) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.IsInf(minVal, 1) {
		minVal = 0
	}
	if math.IsInf(maxVal, -1) {
		maxVal = 0
	}
	return minVal, maxVal
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

// ForInterval builds a spectrum titled for display from decoded samples.
func ForInterval(title string, xs []float64, ys []float32) Spectrum {
	return Spectrum{
		Title:  title,
		XLabel: "2Theta (deg)",
		YLabel: "Intensity",
		X:      xs,
		Y:      spectrum.Widen(ys),
	}
}

// Package descriptor parses diffractometer scan descriptor (.dsc) files.
package descriptor

import (
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

const (
	sectionComment    = "comment"
	sectionGeneral    = "general"
	sectionGoniometer = "goniometer"
	sectionIntervals  = "intervals"
)

// Interval record layout. Fields 3-7 exist in the file format but carry nothing we use.
const (
	fieldStart     = 0
	fieldEnd       = 1
	fieldStep      = 2
	fieldStatus    = 8
	fieldExtension = 9
	minFields      = 10
)

type state struct {
	section string
	desc    model.ScanDescriptor
}

type sectionHandler func(st state, line string) state

var sectionHandlers = map[string]sectionHandler{
	sectionComment:    handleComment,
	sectionGeneral:    handleGeneral,
	sectionGoniometer: handleGoniometer,
	sectionIntervals:  handleInterval,
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Parse turns descriptor text into a ScanDescriptor. It never fails: malformed lines and
// unknown sections are skipped, so callers check IsValid on the result.
func Parse(text string) model.ScanDescriptor {
	st := state{desc: model.ScanDescriptor{
		General:    map[string]string{},
		Goniometer: map[string]string{},
	}}
	for _, line := range strings.Split(lineBreaks.Replace(text), "\n") {
		st = step(st, line)
	}
	return st.desc
}

func step(st state, raw string) state {
	line := strings.TrimSpace(raw)
	if line == "" {
		return st
	}
	if name, ok := sectionHeader(line); ok {
		st.section = name
		return st
	}
	if st.section == "" {
		return st
	}
	handler, ok := sectionHandlers[st.section]
	if !ok {
		return st
	}
	return handler(st, line)
}

func sectionHeader(line string) (string, bool) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(line[1 : len(line)-1])), true
}

func handleComment(st state, line string) state {
	st.desc.Comments = append(st.desc.Comments, line)
	return st
}

func handleGeneral(st state, line string) state {
	putKeyValue(st.desc.General, line)
	return st
}

func handleGoniometer(st state, line string) state {
	putKeyValue(st.desc.Goniometer, line)
	return st
}

func putKeyValue(dst map[string]string, line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	dst[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
}

func handleInterval(st state, line string) state {
	iv, ok := parseInterval(line)
	if !ok {
		return st
	}
	st.desc.Intervals = append(st.desc.Intervals, iv)
	return st
}

func parseInterval(line string) (model.ScanInterval, bool) {
	fields := strings.Split(line, ";")
	if len(fields) < minFields {
		return model.ScanInterval{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return model.ScanInterval{
		Start:         parseFloat(fields[fieldStart]),
		End:           parseFloat(fields[fieldEnd]),
		Step:          parseFloat(fields[fieldStep]),
		Status:        parseStatus(fields[fieldStatus]),
		FileExtension: strings.ToLower(fields[fieldExtension]),
	}, true
}

// parseFloat yields NaN for unparsable input; a NaN start or step surfaces later as a
// conversion problem, not a parse error.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseStatus accepts integers and integral floats ("1", "1.0"). Anything else maps to -1,
// which keeps the interval eligible: only an explicit zero marks "no data file".
func parseStatus(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return -1
}

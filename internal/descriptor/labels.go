package descriptor

import "github.com/verte-zerg/dsc2asc/internal/model"

// Field is a labelled metadata value ready for display.
type Field struct {
	Label string
	Value string
}

type fieldDef struct {
	label  string
	values map[string]string
}

type section struct {
	keys []string
	defs map[string]fieldDef
}

var generalFields = section{
	keys: []string{"method", "l1", "l2", "lm", "beta", "r"},
	defs: map[string]fieldDef{
		"method": {label: "Scan method", values: map[string]string{"1": "2Θ-Θ", "2": "2Θ", "3": "Θ"}},
		"l1":     {label: "Kα1 (Å)"},
		"l2":     {label: "Kα2 (Å)"},
		"lm":     {label: "Lambda avg (Å)"},
		"beta":   {label: "Kβ (Å)"},
		"r":      {label: "Kα2/Kα1"},
	},
}

var goniometerFields = section{
	keys: []string{"monotype", "sampthick", "tubeang"},
	defs: map[string]fieldDef{
		"monotype":  {label: "Monochromator"},
		"sampthick": {label: "Sample thickness (mm)"},
		"tubeang":   {label: "Tube angle"},
	},
}

// LabeledFields returns the known general and goniometer values with human labels, in a
// fixed order. Unknown keys are left out.
func LabeledFields(desc model.ScanDescriptor) []Field {
	fields := make([]Field, 0, len(generalFields.keys)+len(goniometerFields.keys))
	fields = appendKnown(fields, generalFields, desc.General)
	fields = appendKnown(fields, goniometerFields, desc.Goniometer)
	return fields
}

func appendKnown(fields []Field, sec section, values map[string]string) []Field {
	for _, key := range sec.keys {
		v, ok := values[key]
		if !ok {
			continue
		}
		def := sec.defs[key]
		if mapped, ok := def.values[v]; ok {
			v = mapped
		}
		fields = append(fields, Field{Label: def.label, Value: v})
	}
	return fields
}

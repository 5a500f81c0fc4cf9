package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

const archiveSuffix = "_converted.zip"

// BaseName strips directory and final extension from a descriptor path.
func BaseName(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// SiblingName is the data file holding an interval's samples: <base>.<ext>.
func SiblingName(base string, iv model.ScanInterval) string {
	return base + "." + iv.FileExtension
}

// OutputName is the converted document name: <base>_<ext>.<profile ext>.
func OutputName(base string, iv model.ScanInterval, p model.FormatProfile) string {
	return outputStem(base, iv) + "." + p.Extension
}

// ArchiveName names the zip bundling several outputs.
func ArchiveName(base string) string {
	return base + archiveSuffix
}

func outputStem(base string, iv model.ScanInterval) string {
	return base + "_" + iv.FileExtension
}

// uniqueOutputName falls back to appending the 1-based interval position when another
// interval already claimed the plain name, counting upward while that is taken as well.
func uniqueOutputName(used map[string]struct{}, base string, index int, iv model.ScanInterval, p model.FormatProfile) string {
	name := OutputName(base, iv, p)
	for n := index + 1; ; n++ {
		if _, taken := used[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d.%s", outputStem(base, iv), n, p.Extension)
	}
	used[name] = struct{}{}
	return name
}

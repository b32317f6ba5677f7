package manifest

import (
	"path/filepath"
	"strings"
)

// Format identifies the serialization used by a manifest file.
type Format int

const (
	// FormatYAML is used for every suffix other than ".json".
	FormatYAML Format = iota
	// FormatJSON is used for files whose suffix is exactly ".json".
	FormatJSON
)

// jsonSuffix selects FormatJSON. The match is case-sensitive.
const jsonSuffix = ".json"

// FormatFromPath picks the manifest format from the path suffix.
func FormatFromPath(path string) Format {
	if Suffix(path) == jsonSuffix {
		return FormatJSON
	}

	return FormatYAML
}

// Suffix returns the final extension of the base name, including the dot.
// A leading dot (".json") or a trailing dot ("manifest.") yields no suffix.
func Suffix(path string) string {
	name := filepath.Base(path)

	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}

	return name[i:]
}

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

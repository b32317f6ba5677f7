package manifest

import (
	"bytes"
	"reflect"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/flatpak-runtime-updater/internal/domain/manifest"
)

// utf8BOM is skipped by the YAML reader and not counted in columns.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// spliceYAML replaces the source text of the edited scalar with its new
// rendering. The second value is false when the scalar cannot be located on a
// single line or when the result would decode to anything other than the
// source with the new runtime-version.
func spliceYAML(source []byte, edited *yaml.Node) ([]byte, bool) {
	if len(source) == 0 || edited == nil || edited.Kind != yaml.ScalarNode ||
		edited.Line <= 0 || edited.Column <= 0 {
		return nil, false
	}

	start, ok := offsetOf(source, edited.Line, edited.Column)
	if !ok {
		return nil, false
	}

	end, ok := scalarEnd(source, start)
	if !ok {
		return nil, false
	}

	text, ok := renderScalar(edited)
	if !ok {
		return nil, false
	}

	out := make([]byte, 0, len(source)-(end-start)+len(text))
	out = append(out, source[:start]...)
	out = append(out, text...)
	out = append(out, source[end:]...)

	if !sameExceptVersion(source, out, edited.Value) {
		return nil, false
	}

	return out, true
}

// offsetOf converts a 1-based line and rune column to a byte offset.
func offsetOf(source []byte, line, column int) (int, bool) {
	offset := 0
	if line == 1 && bytes.HasPrefix(source, utf8BOM) {
		offset = len(utf8BOM)
	}

	for l := 1; l < line; l++ {
		i := bytes.IndexByte(source[offset:], '\n')
		if i < 0 {
			return 0, false
		}

		offset += i + 1
	}

	for c := 1; c < column; c++ {
		if offset >= len(source) || source[offset] == '\n' {
			return 0, false
		}

		_, size := utf8.DecodeRune(source[offset:])
		offset += size
	}

	if offset >= len(source) {
		return 0, false
	}

	return offset, true
}

// scalarEnd returns the offset just past the single-line scalar or alias
// token starting at start.
func scalarEnd(source []byte, start int) (int, bool) {
	switch source[start] {
	case '\'':
		for i := start + 1; i < len(source) && source[i] != '\n'; i++ {
			if source[i] != '\'' {
				continue
			}

			if i+1 < len(source) && source[i+1] == '\'' {
				i++

				continue
			}

			return i + 1, true
		}

		return 0, false
	case '"':
		for i := start + 1; i < len(source) && source[i] != '\n'; i++ {
			switch source[i] {
			case '\\':
				i++
			case '"':
				return i + 1, true
			}
		}

		return 0, false
	case '*':
		i := start + 1
		for i < len(source) && !isTokenEnd(source[i]) {
			i++
		}

		return i, true
	case '|', '>', '&', '!', '[', '{', '#':
		return 0, false
	default:
		return plainEnd(source, start), true
	}
}

// plainEnd stops a plain scalar at the line end or a trailing comment.
func plainEnd(source []byte, start int) int {
	end := start
	for end < len(source) && source[end] != '\n' && source[end] != '\r' {
		if (source[end] == ' ' || source[end] == '\t') && end+1 < len(source) && source[end+1] == '#' {
			break
		}

		end++
	}

	for end > start && (source[end-1] == ' ' || source[end-1] == '\t') {
		end--
	}

	return end
}

func isTokenEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', ']', '}':
		return true
	default:
		return false
	}
}

// renderScalar encodes node alone and returns it when it fits on one line.
func renderScalar(node *yaml.Node) ([]byte, bool) {
	data, err := yaml.Marshal(&yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   node.Tag,
		Style: node.Style,
		Value: node.Value,
	})
	if err != nil {
		return nil, false
	}

	data = bytes.TrimSuffix(data, []byte("\n"))
	if len(data) == 0 || bytes.ContainsAny(data, "\r\n") {
		return nil, false
	}

	return data, true
}

// sameExceptVersion reports whether patched decodes to source with
// runtime-version set to version.
func sameExceptVersion(source, patched []byte, version string) bool {
	var before, after map[string]any

	if err := yaml.Unmarshal(source, &before); err != nil || before == nil {
		return false
	}

	if err := yaml.Unmarshal(patched, &after); err != nil {
		return false
	}

	if got, ok := after[domain.RuntimeVersionKey].(string); !ok || got != version {
		return false
	}

	before[domain.RuntimeVersionKey] = version

	return reflect.DeepEqual(before, after)
}

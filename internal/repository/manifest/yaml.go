package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// dashWidth is the width of the "- " sequence indicator.
const dashWidth = 2

var (
	errEmptyDocument     = errors.New("document is empty")
	errMultipleDocuments = errors.New("more than one document")
	errUnsupportedStyle  = errors.New("unsupported yaml style")
)

// YAMLStyle describes block indentation of written YAML manifests.
//
// MappingIndent is the indent of nested mappings. Sequence items start
// SequenceOffset columns in with their content at SequenceIndent.
type YAMLStyle struct {
	MappingIndent  int
	SequenceIndent int
	SequenceOffset int
}

// DefaultYAMLStyle is the layout used by flathub manifests:
//
//	modules:
//	  - name: app
//	    sources:
//	      - type: git
func DefaultYAMLStyle() YAMLStyle {
	return YAMLStyle{
		MappingIndent:  2,
		SequenceIndent: 4,
		SequenceOffset: 2,
	}
}

// Validate checks that the encoder can produce the style. yaml.v3 places the
// sequence dash at the mapping indent and the item content right after it.
func (s YAMLStyle) Validate() error {
	if s.MappingIndent < 2 || s.MappingIndent > 9 {
		return fmt.Errorf("mapping indent %d: %w", s.MappingIndent, errUnsupportedStyle)
	}

	if s.SequenceOffset != s.MappingIndent || s.SequenceIndent != s.MappingIndent+dashWidth {
		return fmt.Errorf("sequence indent %d with offset %d: %w",
			s.SequenceIndent, s.SequenceOffset, errUnsupportedStyle)
	}

	return nil
}

func decodeYAML(data []byte) (*yaml.Node, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	var node yaml.Node
	if err := decoder.Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyDocument
		}

		return nil, err
	}

	var extra yaml.Node
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}

		return nil, errMultipleDocuments
	}

	return &node, nil
}

func encodeYAML(node *yaml.Node, style YAMLStyle) ([]byte, error) {
	if err := style.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(style.MappingIndent)

	if err := encoder.Encode(node); err != nil {
		return nil, err
	}

	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

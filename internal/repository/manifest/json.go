package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"gopkg.in/yaml.v3"
)

const (
	jsonIndent = "    "
	hexDigits  = "0123456789abcdef"

	mapTag   = "!!map"
	seqTag   = "!!seq"
	strTag   = "!!str"
	intTag   = "!!int"
	floatTag = "!!float"
	boolTag  = "!!bool"
	nullTag  = "!!null"
)

var (
	errTrailingData      = errors.New("unexpected data after top-level value")
	errUnexpectedToken   = errors.New("unexpected token")
	errUnsupportedNode   = errors.New("value cannot be written as json")
	errMalformedDocument = errors.New("malformed document node")
)

// decodeJSON parses data into a node tree that keeps object key order.
func decodeJSON(data []byte) (*yaml.Node, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	node, err := decodeJSONValue(decoder)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}

		return nil, err
	}

	if _, err = decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("offset %d: %w", decoder.InputOffset(), errTrailingData)
	}

	return &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{node},
	}, nil
}

func decodeJSONValue(decoder *json.Decoder) (*yaml.Node, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	switch value := token.(type) {
	case json.Delim:
		switch value {
		case '{':
			return decodeJSONObject(decoder)
		case '[':
			return decodeJSONArray(decoder)
		default:
			return nil, fmt.Errorf("%w: %s", errUnexpectedToken, value)
		}
	case string:
		return stringNode(value), nil
	case json.Number:
		tag := intTag
		if strings.ContainsAny(value.String(), ".eE") {
			tag = floatTag
		}

		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value.String()}, nil
	case bool:
		text := "false"
		if value {
			text = "true"
		}

		return &yaml.Node{Kind: yaml.ScalarNode, Tag: boolTag, Value: text}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: nullTag, Value: "null"}, nil
	default:
		return nil, fmt.Errorf("%w: %v", errUnexpectedToken, token)
	}
}

// decodeJSONObject keeps one entry per key: a repeated key takes the last
// value at the position of its first occurrence.
func decodeJSONObject(decoder *json.Decoder) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: mapTag}
	positions := make(map[string]int)

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key %v", errUnexpectedToken, token)
		}

		value, err := decodeJSONValue(decoder)
		if err != nil {
			return nil, err
		}

		if i, seen := positions[key]; seen {
			node.Content[i+1] = value

			continue
		}

		positions[key] = len(node.Content)
		node.Content = append(node.Content, stringNode(key), value)
	}

	// Closing brace.
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return node, nil
}

func decodeJSONArray(decoder *json.Decoder) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: seqTag}

	for decoder.More() {
		value, err := decodeJSONValue(decoder)
		if err != nil {
			return nil, err
		}

		node.Content = append(node.Content, value)
	}

	// Closing bracket.
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return node, nil
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   strTag,
		Style: yaml.DoubleQuotedStyle,
		Value: value,
	}
}

// encodeJSON lays the tree out the way json.dump(indent=4) does: ASCII-only
// strings and no trailing newline.
func encodeJSON(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer

	if err := writeJSONValue(&buf, node, 0); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

//nolint:cyclop // One case per node kind and scalar tag.
func writeJSONValue(buf *bytes.Buffer, node *yaml.Node, depth int) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) != 1 {
			return errMalformedDocument
		}

		return writeJSONValue(buf, node.Content[0], depth)
	case yaml.AliasNode:
		if node.Alias == nil {
			return errMalformedDocument
		}

		return writeJSONValue(buf, node.Alias, depth)
	case yaml.MappingNode:
		return writeJSONObject(buf, node, depth)
	case yaml.SequenceNode:
		return writeJSONArray(buf, node, depth)
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case strTag:
			writeJSONString(buf, node.Value)
		case intTag, floatTag, boolTag:
			buf.WriteString(node.Value)
		case nullTag:
			buf.WriteString("null")
		default:
			return fmt.Errorf("%w: tag %s", errUnsupportedNode, node.ShortTag())
		}

		return nil
	default:
		return fmt.Errorf("%w: kind %d", errUnsupportedNode, node.Kind)
	}
}

func writeJSONObject(buf *bytes.Buffer, node *yaml.Node, depth int) error {
	if len(node.Content) == 0 {
		buf.WriteString("{}")
		return nil
	}

	buf.WriteByte('{')

	for i := 0; i+1 < len(node.Content); i += 2 {
		if i > 0 {
			buf.WriteByte(',')
		}

		writeJSONNewline(buf, depth+1)
		writeJSONString(buf, node.Content[i].Value)
		buf.WriteString(": ")

		if err := writeJSONValue(buf, node.Content[i+1], depth+1); err != nil {
			return err
		}
	}

	writeJSONNewline(buf, depth)
	buf.WriteByte('}')

	return nil
}

func writeJSONArray(buf *bytes.Buffer, node *yaml.Node, depth int) error {
	if len(node.Content) == 0 {
		buf.WriteString("[]")
		return nil
	}

	buf.WriteByte('[')

	for i, item := range node.Content {
		if i > 0 {
			buf.WriteByte(',')
		}

		writeJSONNewline(buf, depth+1)

		if err := writeJSONValue(buf, item, depth+1); err != nil {
			return err
		}
	}

	writeJSONNewline(buf, depth)
	buf.WriteByte(']')

	return nil
}

func writeJSONNewline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')

	for i := 0; i < depth; i++ {
		buf.WriteString(jsonIndent)
	}
}

// writeJSONString quotes s escaping everything outside printable ASCII.
func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				buf.WriteByte(byte(r))
			case r > 0xffff:
				high, low := utf16.EncodeRune(r)
				writeUnicodeEscape(buf, high)
				writeUnicodeEscape(buf, low)
			default:
				writeUnicodeEscape(buf, r)
			}
		}
	}

	buf.WriteByte('"')
}

func writeUnicodeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[(r>>12)&0xf])
	buf.WriteByte(hexDigits[(r>>8)&0xf])
	buf.WriteByte(hexDigits[(r>>4)&0xf])
	buf.WriteByte(hexDigits[r&0xf])
}

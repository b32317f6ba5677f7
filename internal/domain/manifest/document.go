package manifest

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// RuntimeKey names the base runtime of the application.
	RuntimeKey = "runtime"
	// RuntimeVersionKey names the pinned runtime branch.
	RuntimeVersionKey = "runtime-version"

	strTag = "!!str"
)

var (
	// ErrNotMapping is returned when the top-level value is not a mapping.
	ErrNotMapping = errors.New("manifest root is not a mapping")
	// ErrFieldMissing is returned when a required key is absent.
	ErrFieldMissing = errors.New("manifest field is missing")
	// ErrFieldType is returned when a required key holds a value of the wrong type.
	ErrFieldType = errors.New("manifest field is not a string")
)

// Document is a parsed manifest together with the format it was read in.
type Document struct {
	// format is the codec selected at load time.
	format Format
	// root is the top-level mapping node.
	root *yaml.Node
	// doc is the enclosing document node, kept to preserve head/foot comments.
	doc *yaml.Node
	// source is the raw file content the tree was decoded from, if known.
	source []byte
	// edited is the runtime-version node written by SetRuntimeVersion.
	edited *yaml.Node
}

// NewDocument wraps a decoded node tree. The node may be a document node or a mapping.
func NewDocument(format Format, node *yaml.Node) (*Document, error) {
	if node == nil {
		return nil, ErrNotMapping
	}

	doc := node
	if node.Kind != yaml.DocumentNode {
		doc = &yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{node},
		}
	}

	if len(doc.Content) != 1 {
		return nil, ErrNotMapping
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	return &Document{
		format: format,
		root:   root,
		doc:    doc,
	}, nil
}

// Format returns the format selected when the document was loaded.
func (d *Document) Format() Format {
	return d.format
}

// Node returns the document node used for encoding.
func (d *Document) Node() *yaml.Node {
	return d.doc
}

// SetSource records the bytes the document was decoded from.
func (d *Document) SetSource(source []byte) {
	d.source = source
}

// Source returns the bytes the document was decoded from, or nil.
func (d *Document) Source() []byte {
	return d.source
}

// Edited returns the runtime-version node changed by SetRuntimeVersion, or nil
// when the document was not modified. Line and Column are zero when the node
// does not correspond to a single scalar of the source.
func (d *Document) Edited() *yaml.Node {
	return d.edited
}

// Runtime returns the runtime identifier, which must be a string.
func (d *Document) Runtime() (string, error) {
	return d.scalarField(RuntimeKey, true)
}

// RuntimeVersion returns the text of the pinned runtime version.
// Unquoted numbers such as 23.08 are returned as written.
func (d *Document) RuntimeVersion() (string, error) {
	return d.scalarField(RuntimeVersionKey, false)
}

// NeedsUpdate reports whether runtime-version differs from latest.
// Only an exact string match counts as equal; a non-string value never does.
func (d *Document) NeedsUpdate(latest string) (bool, error) {
	value := d.lookup(RuntimeVersionKey)
	if value == nil {
		return false, fmt.Errorf("%s: %w", RuntimeVersionKey, ErrFieldMissing)
	}

	if value.Kind != yaml.ScalarNode || value.ShortTag() != strTag {
		return true, nil
	}

	return value.Value != latest, nil
}

// SetRuntimeVersion replaces the runtime-version value, leaving its position,
// comments and quoting style intact. Values shared through YAML anchors and
// aliases keep their meaning for every other key.
func (d *Document) SetRuntimeVersion(version string) error {
	i := d.valueIndex(RuntimeVersionKey)
	if i < 0 {
		return fmt.Errorf("%s: %w", RuntimeVersionKey, ErrFieldMissing)
	}

	value := d.root.Content[i]
	if value.Kind != yaml.ScalarNode || value.Anchor != "" {
		value = d.detach(i)
	}

	value.Tag = strTag
	value.Value = version

	// The encoder quotes a !!str value whose plain form resolves to another type.
	value.Style &^= yaml.TaggedStyle

	d.edited = value

	return nil
}

// detach gives the root value at index i a scalar node of its own.
func (d *Document) detach(i int) *yaml.Node {
	current := d.root.Content[i]
	target := resolveAlias(current)

	fresh := &yaml.Node{
		Kind:        yaml.ScalarNode,
		HeadComment: current.HeadComment,
		LineComment: current.LineComment,
		FootComment: current.FootComment,
	}

	if target.Kind == yaml.ScalarNode {
		fresh.Style = target.Style
	}

	// An alias token is a single word in the source and can be replaced in place.
	if current.Kind == yaml.AliasNode {
		fresh.Line, fresh.Column = current.Line, current.Column
	}

	if current.Anchor != "" {
		inlineAliases(d.doc, current)
	}

	d.root.Content[i] = fresh

	return fresh
}

// inlineAliases replaces every alias of anchored below node with a copy of its target.
func inlineAliases(node, anchored *yaml.Node) {
	for _, child := range node.Content {
		if child.Kind == yaml.AliasNode && child.Alias == anchored {
			replacement := *anchored
			replacement.Anchor = ""
			replacement.HeadComment = child.HeadComment
			replacement.LineComment = child.LineComment
			replacement.FootComment = child.FootComment
			*child = replacement

			continue
		}

		inlineAliases(child, anchored)
	}
}

func (d *Document) scalarField(key string, stringOnly bool) (string, error) {
	value := d.lookup(key)
	if value == nil {
		return "", fmt.Errorf("%s: %w", key, ErrFieldMissing)
	}

	if value.Kind != yaml.ScalarNode || (stringOnly && value.ShortTag() != strTag) {
		return "", fmt.Errorf("%s: %w", key, ErrFieldType)
	}

	return value.Value, nil
}

// lookup returns the value node of the last top-level key equal to key.
// Aliases are followed so the returned node is the one that gets encoded.
func (d *Document) lookup(key string) *yaml.Node {
	i := d.valueIndex(key)
	if i < 0 {
		return nil
	}

	return resolveAlias(d.root.Content[i])
}

// valueIndex returns the position in the root mapping of the value of the
// last key equal to key, or -1.
func (d *Document) valueIndex(key string) int {
	found := -1

	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			found = i + 1
		}
	}

	return found
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	return node
}

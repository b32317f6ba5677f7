package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/flatpak-runtime-updater/internal/domain/manifest"
	"github.com/oshokin/flatpak-runtime-updater/internal/logger"
)

// DefaultFilePermissions is used when the manifest does not exist yet.
const DefaultFilePermissions os.FileMode = 0o644

var (
	// ErrNotFound is returned when the manifest file does not exist.
	ErrNotFound = errors.New("manifest not found")
	// ErrDecode is returned when the file content is not valid for its format.
	ErrDecode = errors.New("decode manifest")
	// errNilDocument is returned when Save is called without a document.
	errNilDocument = errors.New("manifest document is not set")
)

// Repository defines persistence operations for a single manifest.
type Repository interface {
	Load(ctx context.Context) (*domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
}

// FileRepository reads and writes one manifest file.
type FileRepository struct {
	// path is the filesystem location of the manifest.
	path string
	// yamlStyle controls YAML re-serialization.
	yamlStyle YAMLStyle
	// atomic replaces the file through a staged sibling instead of rewriting it in place.
	atomic bool
}

// Option configures a FileRepository.
type Option func(*FileRepository)

// WithYAMLStyle sets the indentation used when writing YAML manifests.
func WithYAMLStyle(style YAMLStyle) Option {
	return func(r *FileRepository) {
		r.yamlStyle = style
	}
}

// WithAtomicWrite switches Save to a staged write followed by a rename.
func WithAtomicWrite(enabled bool) Option {
	return func(r *FileRepository) {
		r.atomic = enabled
	}
}

// NewFileRepository creates a repository for the manifest at path.
func NewFileRepository(path string, opts ...Option) *FileRepository {
	r := &FileRepository{
		path:      filepath.Clean(path),
		yamlStyle: DefaultYAMLStyle(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Load reads the manifest and decodes it according to its suffix.
func (r *FileRepository) Load(_ context.Context) (*domain.Document, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %w", r.path, ErrNotFound, err)
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	format := domain.FormatFromPath(r.path)

	var node *yaml.Node

	switch format {
	case domain.FormatJSON:
		node, err = decodeJSON(contents)
	default:
		node, err = decodeYAML(contents)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", r.path, ErrDecode, err)
	}

	doc, err := domain.NewDocument(format, node)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}

	doc.SetSource(contents)

	return doc, nil
}

// Save encodes the document in the format it was loaded with and writes it to disk.
func (r *FileRepository) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return errNilDocument
	}

	var (
		data []byte
		err  error
	)

	switch doc.Format() {
	case domain.FormatJSON:
		data, err = encodeJSON(doc.Node())
	default:
		data, err = r.writeYAML(ctx, doc)
	}

	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if r.atomic {
		return r.replace(data)
	}

	if err = os.WriteFile(r.path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// writeYAML patches the changed scalar into the source so blank lines and
// document markers survive. Anything the patch cannot express is encoded in full.
func (r *FileRepository) writeYAML(ctx context.Context, doc *domain.Document) ([]byte, error) {
	if err := r.yamlStyle.Validate(); err != nil {
		return nil, err
	}

	if data, ok := spliceYAML(doc.Source(), doc.Edited()); ok {
		return data, nil
	}

	if doc.Edited() != nil {
		logger.DebugKV(ctx, "Re-encoding whole YAML manifest", "path", r.path)
	}

	return encodeYAML(doc.Node(), r.yamlStyle)
}

// replace stages data next to the manifest and renames it over the original,
// keeping the original permission bits.
func (r *FileRepository) replace(data []byte) error {
	mode := DefaultFilePermissions
	if info, err := os.Stat(r.path); err == nil {
		mode = info.Mode().Perm()
	}

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: mode,
	}

	if err := goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}

	return nil
}

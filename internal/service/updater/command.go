package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/flatpak-runtime-updater/internal/config"
	domain "github.com/oshokin/flatpak-runtime-updater/internal/domain/manifest"
	"github.com/oshokin/flatpak-runtime-updater/internal/flatpak"
	"github.com/oshokin/flatpak-runtime-updater/internal/logger"
	"github.com/oshokin/flatpak-runtime-updater/internal/repository/manifest"
)

// Options contains inputs for the updater entry point.
type Options struct {
	// ManifestPath is the manifest to update.
	ManifestPath string
	// ConfigPath is an optional settings file; empty means defaults.
	ConfigPath string
	// LogLevel overrides the log level from the settings when set.
	LogLevel string
	// DryRun reports the change without writing the manifest.
	DryRun bool
	// AtomicWrite forces a staged write regardless of the settings.
	AtomicWrite bool
	// Resolver replaces the flatpak client, mainly for tests.
	Resolver RuntimeResolver
}

// RuntimeResolver finds the latest branch of a runtime.
type RuntimeResolver interface {
	LatestBranch(ctx context.Context, runtimeID string) (string, error)
}

// Result describes the outcome of a run.
type Result struct {
	// Runtime is the runtime identifier read from the manifest.
	Runtime string
	// Previous is the runtime-version found in the manifest.
	Previous string
	// Latest is the newest branch reported by flatpak.
	Latest string
	// Updated is true when the manifest was rewritten.
	Updated bool
	// DryRun is true when a change was found but not written.
	DryRun bool
}

// updater holds the collaborators of a single run.
// It is unexported; callers use Run.
type updater struct {
	// repo reads and writes the manifest.
	repo manifest.Repository
	// resolver looks up the latest runtime branch.
	resolver RuntimeResolver
	// dryRun suppresses the write.
	dryRun bool
}

// errOptionsRequired is returned when Run is called without a manifest path.
var errOptionsRequired = errors.New("manifest path must be provided")

// Run executes the update workflow.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "update-runtime")

	if opts == nil || opts.ManifestPath == "" {
		return nil, errOptionsRequired
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	applyLogLevel(cfg)

	resolver := opts.Resolver
	if resolver == nil {
		if resolver, err = newFlatpakClient(ctx, cfg); err != nil {
			return nil, err
		}
	}

	u := &updater{
		repo: manifest.NewFileRepository(
			opts.ManifestPath,
			manifest.WithYAMLStyle(manifest.DefaultYAMLStyle()),
			manifest.WithAtomicWrite(cfg.AtomicWrite),
		),
		resolver: resolver,
		dryRun:   opts.DryRun,
	}

	return u.Run(logger.WithKV(ctx, "manifest", opts.ManifestPath))
}

// Run loads the manifest, resolves the latest branch and saves the manifest if needed.
func (u *updater) Run(ctx context.Context) (*Result, error) {
	doc, err := u.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	result := new(Result)

	if result.Runtime, err = doc.Runtime(); err != nil {
		return nil, err
	}

	if result.Previous, err = doc.RuntimeVersion(); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Looking up latest runtime", "runtime_id", result.Runtime)

	if result.Latest, err = u.resolver.LatestBranch(ctx, result.Runtime); err != nil {
		return nil, fmt.Errorf("resolve latest branch: %w", err)
	}

	needsUpdate, err := doc.NeedsUpdate(result.Latest)
	if err != nil {
		return nil, err
	}

	if !needsUpdate {
		logger.InfoKV(ctx, "Runtime version is up to date", "runtime_version", result.Previous)
		return result, nil
	}

	if result.Previous == result.Latest {
		logger.WarnKV(ctx, "runtime-version is not a string, it will be written as one",
			"runtime_version", result.Previous)
	}

	if u.dryRun {
		result.DryRun = true

		logger.InfoKV(ctx, "Runtime version is outdated, dry run leaves the manifest untouched",
			"current", result.Previous, "latest", result.Latest)

		return result, nil
	}

	return u.save(ctx, doc, result)
}

// save writes the new runtime-version to disk.
func (u *updater) save(ctx context.Context, doc *domain.Document, result *Result) (*Result, error) {
	if err := doc.SetRuntimeVersion(result.Latest); err != nil {
		return nil, err
	}

	if err := u.repo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}

	result.Updated = true

	logger.InfoKV(ctx, "Updated runtime version",
		"format", doc.Format().String(), "from", result.Previous, "to", result.Latest)

	return result, nil
}

// loadConfig reads the settings file and applies command line overrides.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if opts.AtomicWrite {
		cfg.AtomicWrite = true
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyLogLevel sets the global log level. The level was validated with the settings.
func applyLogLevel(cfg *config.Config) {
	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}
}

// newFlatpakClient builds the default resolver from the settings.
func newFlatpakClient(ctx context.Context, cfg *config.Config) (*flatpak.Client, error) {
	command, err := cfg.Command()
	if err != nil {
		return nil, err
	}

	if cfg.SearchTerm != "" {
		logger.InfoKV(ctx, "Using fixed flatpak search term", "search_term", cfg.SearchTerm)
	}

	return flatpak.NewClient(
		flatpak.WithCommand(command...),
		flatpak.WithSearchTerm(cfg.SearchTerm),
		flatpak.WithTimeout(cfg.Timeout),
	), nil
}

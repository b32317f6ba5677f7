package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/flatpak-runtime-updater/internal/service/updater"
	"github.com/oshokin/flatpak-runtime-updater/internal/version"
)

var (
	// configPath to the optional settings YAML file.
	configPath string
	// logLevel overrides the level from the settings file.
	logLevel string
	// dryRun reports the change without writing the manifest.
	dryRun bool
	// atomicWrite replaces the manifest through a staged file.
	atomicWrite bool

	// rootCmd updates the runtime-version of a flatpak manifest.
	rootCmd = newRootCommand()
)

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-runtime [manifest]",
		Short: "Update the runtime-version of a flatpak manifest",
		Long: "Look up the newest branch of the manifest's runtime with `flatpak search` " +
			"and write it to runtime-version when it differs. JSON manifests (.json) and " +
			"YAML manifests (any other suffix) are supported.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Arguments are valid from here on, so failures are not usage errors.
			cmd.SilenceUsage = true

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &updater.Options{
				ManifestPath: args[0],
				ConfigPath:   configPath,
				LogLevel:     logLevel,
				DryRun:       dryRun,
				AtomicWrite:  atomicWrite,
			}

			_, err := updater.Run(ctx, options)

			return err
		},
	}
}

// Execute runs the update-runtime CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionFlag(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to settings file (defaults are used when empty)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn or error")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report the new version without writing the manifest")
	rootCmd.Flags().BoolVar(&atomicWrite, "atomic", false, "replace the manifest through a staged temporary file")
}

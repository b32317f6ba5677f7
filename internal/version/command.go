package version

import (
	"github.com/spf13/cobra"
)

// AttachCobraVersionFlag enables the `--version` flag on the provided root command.
// It prints detailed build info.
func AttachCobraVersionFlag(root *cobra.Command) {
	root.Version = Short()
	root.SetVersionTemplate(Full() + "\n")
}

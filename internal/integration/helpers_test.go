package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/flatpak-runtime-updater/internal/config"
)

// fakeFlatpak is a shell script standing in for the flatpak binary.
type fakeFlatpak struct {
	// script is the path of the generated shell script.
	script string
	// argsPath receives one argument per line on every call.
	argsPath string
}

// newFakeFlatpak writes a script that records its arguments, prints stdout and stderr and exits with code.
func newFakeFlatpak(t *testing.T, stdout, stderr string, code int) *fakeFlatpak {
	t.Helper()

	dir := t.TempDir()
	fake := &fakeFlatpak{
		script:   filepath.Join(dir, "flatpak.sh"),
		argsPath: filepath.Join(dir, "args"),
	}

	outPath := filepath.Join(dir, "stdout")
	errPath := filepath.Join(dir, "stderr")

	require.NoError(t, os.WriteFile(outPath, []byte(stdout), 0o600))
	require.NoError(t, os.WriteFile(errPath, []byte(stderr), 0o600))

	script := fmt.Sprintf("printf '%%s\\n' \"$@\" > '%s'\ncat '%s'\ncat '%s' >&2\nexit %d\n",
		fake.argsPath, outPath, errPath, code)

	require.NoError(t, os.WriteFile(fake.script, []byte(script), 0o600))

	return fake
}

// command is the flatpak_command value that runs the script through sh.
func (f *fakeFlatpak) command(extra ...string) string {
	words := append([]string{"sh", "'" + f.script + "'"}, extra...)
	return strings.Join(words, " ")
}

// args returns the arguments of the last call.
func (f *fakeFlatpak) args(t *testing.T) []string {
	t.Helper()

	data, err := os.ReadFile(f.argsPath)
	require.NoError(t, err)

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// writeConfig saves settings that point at the fake flatpak.
func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// writeManifest creates a manifest in a temporary directory.
func writeManifest(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

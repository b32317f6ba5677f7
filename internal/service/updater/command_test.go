package updater

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/flatpak-runtime-updater/internal/domain/manifest"
	"github.com/oshokin/flatpak-runtime-updater/internal/flatpak"
	"github.com/oshokin/flatpak-runtime-updater/internal/repository/manifest"
)

const jsonManifest = `{
  "app-id": "org.example.App",
  "runtime": "org.kde.Platform",
  "runtime-version": "6.6",
  "sdk": "org.kde.Sdk",
  "command": "app",
  "finish-args": ["--share=ipc", "--socket=wayland"]
}
`

const yamlManifest = `# Example application.
app-id: org.example.App
runtime: org.kde.Platform
runtime-version: '6.6'
sdk: org.kde.Sdk
command: app
modules:
  - name: app
    buildsystem: cmake-ninja
`

// fakeResolver returns a fixed branch and records the queried runtimes.
type fakeResolver struct {
	latest string
	err    error
	calls  []string
}

func (f *fakeResolver) LatestBranch(_ context.Context, runtimeID string) (string, error) {
	f.calls = append(f.calls, runtimeID)
	return f.latest, f.err
}

// writeManifest stores contents with an old modification time so rewrites are detectable.
func writeManifest(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, past, past))

	return path
}

func requireUntouched(t *testing.T, path, want string) {
	t.Helper()

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(-time.Hour), info.ModTime(), 2*time.Second)
}

// TestRun_UpToDateIsNoop leaves the file bytes and mtime alone when the version already matches.
func TestRun_UpToDateIsNoop(t *testing.T) {
	t.Parallel()

	for name, contents := range map[string]string{
		"org.example.App.json": jsonManifest,
		"org.example.App.yaml": yamlManifest,
	} {
		path := writeManifest(t, name, contents)
		resolver := &fakeResolver{latest: "6.6"}

		result, err := Run(context.Background(), &Options{ManifestPath: path, Resolver: resolver})
		require.NoError(t, err)
		require.False(t, result.Updated)
		require.Equal(t, "org.kde.Platform", result.Runtime)
		require.Equal(t, "6.6", result.Previous)
		require.Equal(t, "6.6", result.Latest)
		require.Equal(t, []string{"org.kde.Platform"}, resolver.calls)

		requireUntouched(t, path, contents)
	}
}

// TestRun_UpdatesJSON sets runtime-version and keeps every other top-level key.
func TestRun_UpdatesJSON(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "org.example.App.json", jsonManifest)

	result, err := Run(context.Background(), &Options{
		ManifestPath: path,
		Resolver:     &fakeResolver{latest: "6.10"},
	})
	require.NoError(t, err)
	require.True(t, result.Updated)
	require.Equal(t, "6.6", result.Previous)
	require.Equal(t, "6.10", result.Latest)

	var before, after map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonManifest), &before))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &after))

	require.Equal(t, "6.10", after["runtime-version"])

	delete(before, "runtime-version")
	delete(after, "runtime-version")
	require.Equal(t, before, after)
}

// TestRun_UpdatesYAML rewrites with the flathub indentation and keeps comments.
func TestRun_UpdatesYAML(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "org.example.App.yml", yamlManifest)

	result, err := Run(context.Background(), &Options{
		ManifestPath: path,
		Resolver:     &fakeResolver{latest: "6.10"},
	})
	require.NoError(t, err)
	require.True(t, result.Updated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `# Example application.
app-id: org.example.App
runtime: org.kde.Platform
runtime-version: '6.10'
sdk: org.kde.Sdk
command: app
modules:
  - name: app
    buildsystem: cmake-ninja
`
	require.Equal(t, want, string(data))
}

// TestRun_UnquotedVersionIsRewrittenAsString treats a YAML number as different and quotes the new value.
func TestRun_UnquotedVersionIsRewrittenAsString(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "org.example.App.yaml", "runtime: org.freedesktop.Platform\nruntime-version: 23.08\n")

	result, err := Run(context.Background(), &Options{
		ManifestPath: path,
		Resolver:     &fakeResolver{latest: "23.08"},
	})
	require.NoError(t, err)
	require.True(t, result.Updated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	require.Equal(t, "23.08", parsed["runtime-version"])
}

// TestRun_NotFoundLeavesFile propagates ErrRuntimeNotFound without writing.
func TestRun_NotFoundLeavesFile(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "org.example.App.json", jsonManifest)

	_, err := Run(context.Background(), &Options{
		ManifestPath: path,
		Resolver:     &fakeResolver{err: flatpak.ErrRuntimeNotFound},
	})
	require.ErrorIs(t, err, flatpak.ErrRuntimeNotFound)

	requireUntouched(t, path, jsonManifest)
}

// TestRun_DryRun reports the change but never writes.
func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "org.example.App.yaml", yamlManifest)

	result, err := Run(context.Background(), &Options{
		ManifestPath: path,
		DryRun:       true,
		Resolver:     &fakeResolver{latest: "6.10"},
	})
	require.NoError(t, err)
	require.True(t, result.DryRun)
	require.False(t, result.Updated)
	require.Equal(t, "6.10", result.Latest)

	requireUntouched(t, path, yamlManifest)
}

// TestRun_ManifestErrors covers missing files, missing fields and bad input.
func TestRun_ManifestErrors(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{latest: "6.10"}

	_, err := Run(context.Background(), nil)
	require.Error(t, err)

	_, err = Run(context.Background(), &Options{
		ManifestPath: filepath.Join(t.TempDir(), "missing.yaml"),
		Resolver:     resolver,
	})
	require.ErrorIs(t, err, manifest.ErrNotFound)

	path := writeManifest(t, "org.example.App.yaml", "app-id: org.example.App\nruntime-version: '6.6'\n")
	_, err = Run(context.Background(), &Options{ManifestPath: path, Resolver: resolver})
	require.ErrorIs(t, err, domain.ErrFieldMissing)

	path = writeManifest(t, "org.example.App.yaml", "runtime: org.kde.Platform\n")
	_, err = Run(context.Background(), &Options{ManifestPath: path, Resolver: resolver})
	require.ErrorIs(t, err, domain.ErrFieldMissing)

	path = writeManifest(t, "org.example.App.json", yamlManifest)
	_, err = Run(context.Background(), &Options{ManifestPath: path, Resolver: resolver})
	require.ErrorIs(t, err, manifest.ErrDecode)

	// None of the failures above may reach flatpak.
	require.Empty(t, resolver.calls)
}

// TestRun_InvalidSettings rejects a bad log level override before touching the manifest.
func TestRun_InvalidSettings(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "org.example.App.json", jsonManifest)

	_, err := Run(context.Background(), &Options{
		ManifestPath: path,
		LogLevel:     "chatty",
		Resolver:     &fakeResolver{latest: "6.10"},
	})
	require.Error(t, err)

	requireUntouched(t, path, jsonManifest)
}

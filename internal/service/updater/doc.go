// Package updater bumps the runtime-version of a flatpak manifest.
//
// Run loads the settings and the manifest, asks flatpak for the latest branch
// of the manifest's runtime and writes the manifest back only when the pinned
// version differs.
package updater

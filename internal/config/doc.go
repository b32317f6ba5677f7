// Package config defines the optional settings file of update-runtime and
// provides helpers to load, validate and save it in YAML format.
//
// Without a settings file the tool runs plain "flatpak" with the runtime
// identifier as the search term.
package config

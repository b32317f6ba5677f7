// Package looseversion orders free-form, dot-separated version strings such as
// flatpak runtime branches ("23.08", "6.10", "5.15-23.08").
//
// Versions are split on "." into segments. Numeric segments are compared as
// integers, other segments as plain strings, and a version that is a prefix of
// another sorts before it.
package looseversion

// Package manifest contains the in-memory model of a flatpak manifest.
//
// A Document keeps the parsed content as a yaml.v3 node tree regardless of the
// on-disk format, so key order, comments and scalar styles survive a rewrite.
// Format records which codec produced the tree and must be used to write it back.
package manifest

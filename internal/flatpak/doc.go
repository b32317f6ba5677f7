// Package flatpak queries the locally installed flatpak CLI for runtime branches.
//
// Client runs "flatpak search --columns=application,branch", parses the
// tab-separated rows and picks the latest branch of a runtime using the
// looseversion ordering.
package flatpak

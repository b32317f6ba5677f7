package main

import "github.com/oshokin/flatpak-runtime-updater/cmd/update-runtime/cmd"

func main() {
	cmd.Execute()
}

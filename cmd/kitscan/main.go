// Command kitscan is a thin diagnostic CLI over the discovery and
// environment-synthesis engine: it is not the build-generator driver the
// engine was designed to sit underneath, just a way to see what it finds.
package main

import (
	"os"

	"github.com/AndreyAkinshin/kitscan/internal/clikit"
)

func main() {
	os.Exit(clikit.Execute())
}

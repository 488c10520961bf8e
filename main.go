package main

import (
	"os"

	"github.com/gamertechsdefi/morph-canvas/cli"
)

func main() {
	os.Exit(cli.Execute())
}

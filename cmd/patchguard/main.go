package main

import (
	"os"

	"github.com/dshills/patchguard/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}

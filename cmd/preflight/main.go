package main

import (
	"os"

	"github.com/crimson-sun/preflight/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

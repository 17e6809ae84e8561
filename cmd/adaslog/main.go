package main

import (
	"os"

	"github.com/runnerr0/adaslog/internal/cli"
)

var version = "dev"

func main() {
	// go-flags prints the error itself.
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/dkeye/Relay/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

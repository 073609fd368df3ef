package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/paraqa/internal/cli"
)

// Set by -ldflags "-X main.version=..."
var version string

func main() {
	if version != "" {
		cli.Version = version
	}
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package main provides the entry point for the ragpipe CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

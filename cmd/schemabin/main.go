package main

import (
	"fmt"
	"os"

	schemabin "github.com/reoring/schemabin"
)

var (
	// Version information
	version = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v (%s)\n", err, schemabin.ErrorString(err))
		os.Exit(1)
	}
}

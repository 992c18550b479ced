// Package main runs the display spotlight daemon and its diagnostic commands.
package main

import (
	"fmt"
	"os"
)

// main is the entrypoint for the spotlight CLI.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

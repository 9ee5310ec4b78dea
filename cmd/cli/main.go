// Package main is the entry point for the fastcontrol CLI binary.
package main

import (
	"os"

	"fastcontrol/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// Package main is the entry point for the qbench CLI binary.
package main

import (
	"os"

	cli "querybench/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}

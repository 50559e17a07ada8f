// Package main is the nesgo command entry point: a thin host around the
// cartridge/bus/cpu/trace packages. Its own argument-parsing surface is
// explicitly out of scope for this module's behavioral contract; see
// internal/cli for the actual command wiring.
package main

import (
	"fmt"
	"os"

	"nescore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

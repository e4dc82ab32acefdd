// Command sketch runs visual sketches in the terminal.
package main

import (
	"os"

	"github.com/go-sketch/sketch/cmd/sketch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

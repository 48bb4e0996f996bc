package main

import (
	"fmt"
	"os"

	"github.com/danpilch/stackfold/cmd/stackfold/command"
)

func main() {
	if err := command.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

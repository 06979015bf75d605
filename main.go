package main

import (
	"os"

	"github.com/cefrkit/placement/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/classboard/classboard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/cfunkz/pythonator-updater/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

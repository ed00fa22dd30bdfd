package main

import (
	"os"

	"dcabench/cmd/dcabench/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

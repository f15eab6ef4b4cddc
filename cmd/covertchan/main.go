package main

import (
	"os"

	"covertchan/cmd/covertchan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/ib-77/skillpipe/cmd/skillpipe/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := commands.NewRootCommand(version + " (" + commit + ")")
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

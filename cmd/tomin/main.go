package main

import (
	"os"

	"github.com/tomin-mx/tomin/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

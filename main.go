package main

import (
	"os"

	"github.com/spigell/meetmatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/majorcontext/aniflax/cmd/aniflax/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

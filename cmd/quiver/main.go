package main

import (
	"os"

	"github.com/lazyarrow/quiver/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

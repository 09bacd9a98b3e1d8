package main

import (
	"os"

	"github.com/treeship/treeship-go/cmd/treeship/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

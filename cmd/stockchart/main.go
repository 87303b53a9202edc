package main

import (
	"os"

	"github.com/rustyeddy/stockchart/cmd/stockchart/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

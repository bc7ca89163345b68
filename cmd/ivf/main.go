package main

import (
	"os"

	"github.com/rafaeldtinoco-dev/investfolio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

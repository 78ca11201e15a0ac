package main

import (
	"os"

	"github.com/strayaid-systems/strayaid/cmd/strayaid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

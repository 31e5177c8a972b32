package main

import (
	"os"

	palacecmder "github.com/RationallyPrime/found-family/cmd/palace"
)

func main() {
	cmd := palacecmder.NewPalaceCmd()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/vitalkb/vitalkb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/iamsmart/masterclass/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

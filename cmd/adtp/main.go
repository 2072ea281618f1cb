package main

import (
	"os"

	"github.com/ZentaChain/adtp/cmd/adtp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

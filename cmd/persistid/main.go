package main

import (
	"os"

	"github.com/hashicorp-forge/persistid/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}

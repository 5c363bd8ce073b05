package main

import (
	"os"

	"github.com/loamdev/loam/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

package main

import (
	"os"

	"duml/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}

package main

import (
	"os"

	"auditdna/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

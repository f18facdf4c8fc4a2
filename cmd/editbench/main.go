// Command editbench evaluates next-edit suggestion engines against
// annotated source fixtures.
package main

import (
	"os"

	"editbench/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}

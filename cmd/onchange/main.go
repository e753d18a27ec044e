// onchange runs shell commands whenever files in a directory tree change.
package main

import (
	"os"

	"github.com/hupe1980/onchange/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

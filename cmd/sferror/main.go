// main is the entry point for the sferror CLI.
package main

import (
	"os"

	"github.com/opsimtools/sferror/cmd"
	"github.com/opsimtools/sferror/internal"
)

func main() {
	if err := cmd.Execute(); err != nil {
		internal.LogWarn("Command failed", err)
		os.Exit(1)
	}
}

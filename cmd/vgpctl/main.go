// Command vgpctl is the operator CLI: schema migration, question bank loading
// and read-only views over bank coverage and the trace log.
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

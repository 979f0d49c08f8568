// Package main is the nfekey command line tool: offline key extraction,
// key validation and credential helpers for operators.
package main

import (
	"fmt"
	"os"

	"github.com/Shimizu-Technology/nfe-key-api/cmd/nfekey/commands"
)

var version = "dev"

func main() {
	commands.SetVersion(version)
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

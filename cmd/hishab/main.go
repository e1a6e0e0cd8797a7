// Package main provides the entry point for the hishab CLI application.
package main

import (
	"os"

	"hishab/cmd/audit"
	"hishab/cmd/health"
	"hishab/cmd/parse"
	"hishab/cmd/root"
)

func main() {
	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(health.Cmd)
	root.Cmd.AddCommand(audit.Cmd)

	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

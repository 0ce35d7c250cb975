// Package main provides the entry point for the twsync CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/twsync/cmd/twsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

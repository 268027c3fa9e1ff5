package main

import (
	"os"

	"github.com/wonny/gem/cmd/gem/commands"
)

// main is the entry point for the GEM CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/gem [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

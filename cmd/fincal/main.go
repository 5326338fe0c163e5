package main

import (
	"os"

	"github.com/wonny/fincal/cmd/fincal/commands"
)

// main is the entry point for the fincal CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/fincal [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

// Command batas is the entry point for the Batas legal research assistant.
// It provides a CLI interface (via Cobra) for corpus ingestion and one-shot
// questions, and an optional HTTP server exposing the Q&A API.
package main

import (
	"fmt"
	"os"

	"github.com/lexph/batasrag-go/cmd/batas/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

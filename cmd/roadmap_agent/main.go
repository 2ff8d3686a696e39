// Package main provides the entry point for the roadmap agent HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roadmap_agent",
	Short: "Roadmap Agent HTTP API Server",
	Long:  "Roadmap Agent turns a freeform learning goal into a structured, session-by-session learning roadmap through an interview, research, and review pipeline exposed over REST and SSE.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

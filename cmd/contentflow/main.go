package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/inkforge/contentflow/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "contentflow",
	Short: "Content generation and optimization workflow service",
}

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carozum/bot-support-client/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "botsupportd",
		Short: "Support documentation ingestion daemon",
		Long:  "Watches a drop directory for PDF documentation, extracts and chunks the content, generates QA pairs and loads everything into Postgres",
	}

	rootCmd.AddCommand(cli.WatchCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.RemoveCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "watch")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

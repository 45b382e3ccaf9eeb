package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "roster",
	Short:        "Generate weekly role rosters",
	Long:         "Roster assigns people to rotating weekly roles from a candidates CSV, honoring per-week exclusions.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(generateCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

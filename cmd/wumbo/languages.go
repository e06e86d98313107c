package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wumbohq/wumbo/executor"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and runtime availability",
	Run:   runLanguages,
}

func init() {
	languagesCmd.Flags().BoolP("verbose", "v", false, "Show interpreter versions and features")
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	registry := executor.DefaultRegistry(slog.Default())

	for _, info := range registry.Describe() {
		status := "unavailable"
		if info.Available {
			status = "available"
		}
		fmt.Printf("%-12s %s\n", info.Language, status)
		if !verbose {
			continue
		}
		fmt.Printf("  interpreter: %s\n", info.Interpreter)
		if info.Available {
			fmt.Printf("  version:     %s\n", info.Version)
			fmt.Printf("  features:    %s\n", strings.Join(info.Features, ", "))
		} else {
			fmt.Printf("  reason:      %s\n", info.Detail)
		}
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy explores a tree of pub/sub topics with a language model",
	Long: `Canopy keeps the latest value and history of every topic in a slash-delimited tree
and lets a chat model inspect it through four read-only tools: history, describe,
children and parents.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "canopy.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("snapshot", "", "Topic snapshot file (YAML or JSON); overrides tree.snapshot")
	rootCmd.PersistentFlags().String("feeds", "", "Feed definitions file; overrides tree.feeds")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "Shorthand for --log-level=debug")
}

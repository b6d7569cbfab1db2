package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest [path]",
	Short: "Print the compact context of a topic",
	Long:  `Prints the context block attached to a question when the topic at path is selected.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		text, err := a.explorer.Digest(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
}

package main

import (
	"fmt"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/pkg/adapters/snapshot"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the topic tree",
	Long: `Prints the subtree at path (the whole tree by default) as an indented outline,
a Mermaid graph, or a snapshot file that can be loaded back with --snapshot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		depth, _ := cmd.Flags().GetInt("depth")
		fanout, _ := cmd.Flags().GetInt("children")
		highlight, _ := cmd.Flags().GetString("highlight")

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		n, err := a.explorer.Focus(path)
		if err != nil {
			return err
		}

		opts := graph.DefaultOptions()
		if depth > 0 {
			opts.MaxDepth = depth
		}
		if fanout > 0 {
			opts.MaxChildren = fanout
		}

		out := cmd.OutOrStdout()
		switch format {
		case "outline":
			fmt.Fprintln(out, graph.Outline(n, opts))
		case "mermaid":
			fmt.Fprintln(out, graph.GenerateMermaid(n, opts, &graph.Overlay{Focus: highlight}))
		case "yaml", "json":
			data, err := snapshot.Encode(a.explorer.Tree(), snapshot.Format(format))
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		default:
			return fmt.Errorf("unknown format %q (want outline, mermaid, yaml or json)", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().String("format", "outline", "Output format (outline, mermaid, yaml, json)")
	treeCmd.Flags().Int("depth", 0, "Maximum depth to print (default 4)")
	treeCmd.Flags().Int("children", 0, "Maximum children listed per topic (default 20)")
	treeCmd.Flags().String("highlight", "", "Topic path to highlight in the Mermaid graph")
}

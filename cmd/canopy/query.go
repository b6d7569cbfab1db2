package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <tool> [path]",
	Short: "Run a topic tool directly, without a model",
	Long: `Runs one of the topic tools (history, describe, children, parents) and prints
the text the model would receive.

With --stdin, a JSON array of tool call records is read from standard input
and every call is executed in order, as if the model had requested them in
one round.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if stdin, _ := cmd.Flags().GetBool("stdin"); stdin {
			return cobra.NoArgs(cmd, args)
		}
		if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
			return err
		}
		if !slices.Contains(tools.Names(), strings.ToLower(args[0])) {
			return fmt.Errorf("unknown tool %q (want one of %s)", args[0], strings.Join(tools.Names(), ", "))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		stdin, _ := cmd.Flags().GetBool("stdin")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var results []domain.ToolResult
		if stdin {
			raw, err := readCalls(cmd.InOrStdin())
			if err != nil {
				return err
			}
			results = a.explorer.InvokeLoose(cmd.Context(), raw)
		} else {
			inv, err := invocationFromArgs(cmd, args)
			if err != nil {
				return err
			}
			results = a.explorer.Invoke(cmd.Context(), inv)
		}

		return printResults(cmd.OutOrStdout(), results, asJSON)
	},
}

func invocationFromArgs(cmd *cobra.Command, args []string) (domain.ToolInvocation, error) {
	params := map[string]any{}
	if len(args) > 1 {
		params["path"] = args[1]
	}
	if cmd.Flags().Changed("limit") {
		limit, _ := cmd.Flags().GetInt("limit")
		params["limit"] = limit
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return domain.ToolInvocation{}, err
	}
	return domain.ToolInvocation{Name: strings.ToLower(args[0]), Arguments: string(encoded)}, nil
}

func readCalls(r io.Reader) ([]map[string]any, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode tool calls: %w", err)
	}
	return raw, nil
}

func printResults(w io.Writer, results []domain.ToolResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for i, res := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# %s (%s)\n", res.Name, res.ID)
		}
		fmt.Fprintln(w, res.Content)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntP("limit", "n", 0, "Maximum number of entries (history, children)")
	queryCmd.Flags().Bool("stdin", false, "Read a JSON array of tool calls from standard input")
	queryCmd.Flags().Bool("json", false, "Print results as JSON")
}

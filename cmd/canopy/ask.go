package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about the topic tree",
	Long: `Runs a single conversation turn. The model may call the topic tools up to the
configured number of rounds before it must answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		focus, _ := cmd.Flags().GetString("focus")
		plain, _ := cmd.Flags().GetBool("plain")

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		res, err := a.explorer.Ask(ctx, sessionID, strings.Join(args, " "), focus)
		if err != nil {
			return err
		}

		render := rendererFor(plain)
		out, err := render(res.FinalText)
		if err != nil {
			out = res.FinalText
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
		a.logger.Debug("Turn result", "status", res.Status, "rounds", res.RoundsUsed, "invocations", res.InvocationsUsed)
		return nil
	},
}

// rendererFor picks glamour output on a terminal and raw text otherwise.
func rendererFor(plain bool) func(string) (string, error) {
	if !plain && tui.IsTerminal(os.Stdout) {
		return tui.NewRenderer(false, tui.Width(os.Stdout))
	}
	return tui.NewRenderer(true, 0)
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("session", "s", "default", "Session ID to continue")
	askCmd.Flags().StringP("focus", "f", "", "Selected topic path attached as context")
	askCmd.Flags().Bool("plain", false, "Print the answer without markdown rendering")
}

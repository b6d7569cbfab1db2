package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation about the topic tree",
	Long: `Reads questions from standard input, one per line.

Commands:
  /focus <path>  select the topic attached as context (empty clears it)
  /digest        print the context of the selected topic
  /clear         forget the conversation
  /quit          leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		focus, _ := cmd.Flags().GetString("focus")
		plain, _ := cmd.Flags().GetBool("plain")
		watch, _ := cmd.Flags().GetBool("watch")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext(cmd.Context())
		defer stop()
		a.startSources(ctx, watch || a.cfg.Tree.Watch)

		if tui.IsTerminal(os.Stdout) && !plain {
			tui.PrintBanner(cmd.OutOrStdout(), canopy.Version)
		}

		c := &chat{
			explorer:  a.explorer,
			sessionID: sessionID,
			focus:     focus,
			render:    rendererFor(plain),
			out:       cmd.OutOrStdout(),
		}
		return c.loop(ctx, cmd.InOrStdin())
	},
}

type chat struct {
	explorer  *canopy.Explorer
	sessionID string
	focus     string
	render    func(string) (string, error)
	out       io.Writer
}

func (c *chat) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, c.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := c.command(ctx, line); quit {
				return nil
			}
			continue
		}

		res, err := c.explorer.Ask(ctx, c.sessionID, line, c.focus)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(c.out, "Error: %v\n", err)
			continue
		}
		out, err := c.render(res.FinalText)
		if err != nil {
			out = res.FinalText
		}
		fmt.Fprintln(c.out, strings.TrimRight(out, "\n"))
		if res.Status == domain.TurnLimitReached {
			fmt.Fprintln(c.out, "(stopped at the round limit)")
		}
	}
}

func (c *chat) prompt() string {
	if c.focus == "" {
		return "> "
	}
	return c.focus + " > "
}

// command handles a slash command and reports whether the loop should end.
func (c *chat) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/focus":
		if arg != "" {
			if _, err := c.explorer.Focus(arg); err != nil {
				fmt.Fprintf(c.out, "Error: %v\n", err)
				return false
			}
		}
		c.focus = arg
	case "/digest":
		text, err := c.explorer.Digest(c.focus)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintln(c.out, text)
	case "/clear":
		err := c.explorer.Sessions().ClearHistory(ctx, c.sessionID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintln(c.out, "History cleared.")
	default:
		fmt.Fprintf(c.out, "Unknown command %s\n", name)
	}
	return false
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session ID to continue (default: a new one)")
	chatCmd.Flags().StringP("focus", "f", "", "Initially selected topic path")
	chatCmd.Flags().Bool("plain", false, "Print answers without markdown rendering")
	chatCmd.Flags().BoolP("watch", "w", false, "Reload the snapshot file when it changes")
}

// Package process populates a topic tree from local subprocesses, such as
// `mosquitto_sub -v -t '#'`, that print one "<topic> <payload>" line per message.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/tree"
	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds a single message line.
const maxLineSize = 1 << 20

// waitDelay bounds how long Wait keeps reading the output pipes after the
// process was killed, for descendants that inherited them.
const waitDelay = 2 * time.Second

// Feed runs one subprocess and applies its output to a tree.
type Feed struct {
	cfg     FeedConfig
	baseDir string
	logger  *slog.Logger
	now     func() time.Time
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithBaseDir sets the working directory for the process.
func WithBaseDir(dir string) FeedOption {
	return func(f *Feed) { f.baseDir = dir }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) FeedOption {
	return func(f *Feed) { f.logger = logger }
}

// NewFeed creates a feed from its configuration.
func NewFeed(cfg FeedConfig, opts ...FeedOption) *Feed {
	f := &Feed{
		cfg:    cfg,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParseLine splits "<topic> <payload>" at the first space. A line without a
// space is a topic with an empty payload. Lines with an empty topic are rejected.
func ParseLine(line string) (topic, payload string, ok bool) {
	line = strings.TrimRight(line, "\r")
	topic, payload, _ = strings.Cut(line, " ")
	if topic == "" {
		return "", "", false
	}
	return topic, payload, true
}

// Run starts the process and blocks until it exits or ctx is canceled.
// It returns the number of messages applied.
func (f *Feed) Run(ctx context.Context, t *tree.Tree) (int, error) {
	cmd := exec.CommandContext(ctx, f.cfg.Command, f.cfg.Args...)
	cmd.Dir = f.baseDir
	cmd.Env = cmd.Environ()
	for k, v := range f.cfg.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("feed %s: %w", f.cfg.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("feed %s: failed to start: %w", f.cfg.Name, err)
	}
	f.logger.Info("Feed started", "feed", f.cfg.Name, "pid", cmd.Process.Pid)

	count := 0
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		topic, payload, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		t.Update(topic, payload, f.cfg.Retained, f.now())
		count++
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// Nobody reads stdout anymore; the process would block on it forever.
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	if scanErr != nil {
		return count, fmt.Errorf("feed %s: read failed: %w", f.cfg.Name, scanErr)
	}
	if ctx.Err() != nil {
		f.logger.Info("Feed stopped", "feed", f.cfg.Name, "messages", count)
		return count, nil
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return count, fmt.Errorf("feed %s: exited with code %d: %s", f.cfg.Name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return count, fmt.Errorf("feed %s: %w", f.cfg.Name, waitErr)
	}
	f.logger.Info("Feed finished", "feed", f.cfg.Name, "messages", count)
	return count, nil
}

// RunAll runs every feed concurrently and returns when all of them stopped.
// The first failure cancels the others.
func RunAll(ctx context.Context, t *tree.Tree, feeds []FeedConfig, opts ...FeedOption) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, cfg := range feeds {
		feed := NewFeed(cfg, opts...)
		g.Go(func() error {
			_, err := feed.Run(ctx, t)
			return err
		})
	}
	return g.Wait()
}

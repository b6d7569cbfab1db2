package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/tree"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes from editors.
const DefaultDebounce = 200 * time.Millisecond

// Source serves the tree of a snapshot file and swaps in a fresh tree whenever
// Watch observes a change. It implements ports.TreeSource.
type Source struct {
	path     string
	opts     []tree.Option
	current  atomic.Pointer[tree.Tree]
	reloads  atomic.Int64
	debounce time.Duration
	logger   *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithTreeOptions are applied to every tree the source builds.
func WithTreeOptions(opts ...tree.Option) SourceOption {
	return func(s *Source) { s.opts = append(s.opts, opts...) }
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) SourceOption {
	return func(s *Source) { s.debounce = d }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = logger }
}

// NewSource loads path once. It fails if the initial load fails.
func NewSource(path string, opts ...SourceOption) (*Source, error) {
	s := &Source{
		path:     path,
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Tree returns the most recently loaded tree.
func (s *Source) Tree() *tree.Tree {
	return s.current.Load()
}

// Reloads reports how many successful loads happened, the initial one included.
func (s *Source) Reloads() int64 {
	return s.reloads.Load()
}

// Reload rebuilds the tree from disk. On failure the previous tree stays current.
func (s *Source) Reload() error {
	t, err := Load(s.path, s.opts...)
	if err != nil {
		return err
	}
	s.current.Store(t)
	s.reloads.Add(1)
	return nil
}

// Watch reloads the snapshot on change until ctx is done. The parent directory is
// watched so that atomic rename-over saves are seen.
func (s *Source) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	s.logger.Info("Watching snapshot", "path", abs)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(s.debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Snapshot watcher error", "err", err)

		case <-timer.C:
			if err := s.Reload(); err != nil {
				s.logger.Warn("Snapshot reload failed, keeping previous tree", "path", s.path, "err", err)
				continue
			}
			s.logger.Info("Snapshot reloaded", "path", s.path, "topics", s.Tree().Len())
		}
	}
}

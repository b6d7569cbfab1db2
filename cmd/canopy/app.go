package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/file"
	httpAdapter "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/adapters/openai"
	"github.com/aretw0/canopy/pkg/adapters/process"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/adapters/snapshot"
	"github.com/aretw0/canopy/pkg/conversation"
	"github.com/aretw0/canopy/pkg/digest"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/aretw0/canopy/pkg/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app is everything a command needs, built once from flags and config.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	explorer *canopy.Explorer

	// source is set when the tree comes from a snapshot file.
	source   *snapshot.Source
	feeds    []process.FeedConfig
	feedBase string

	registry *prometheus.Registry
	streams  *httpAdapter.StreamManager
	closers  []func() error
}

// newApp loads the configuration and wires the explorer. Streams are only
// created for the HTTP server, where clients can subscribe to them.
func newApp(cmd *cobra.Command, withStreams bool) (*app, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if v, _ := flags.GetString("snapshot"); v != "" {
		cfg.Tree.Snapshot = v
	}
	if v, _ := flags.GetString("feeds"); v != "" {
		cfg.Tree.Feeds = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}

	a := &app{cfg: cfg}
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level), logging.Format(cfg.Log.Format))

	trees, err := a.treeSource()
	if err != nil {
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	metrics := observability.NewMetrics(a.registry)
	hooks := []domain.LifecycleHooks{metrics.Hooks(), observability.LoggingHooks(a.logger)}
	if withStreams {
		a.streams = httpAdapter.NewStreamManager(a.logger)
		hooks = append(hooks, a.streams.Hooks())
	}
	combined := observability.Combine(hooks...)

	dispatcher := tools.NewDispatcher(
		tools.WithBudgets(cfg.Tools),
		tools.WithHooks(combined),
		tools.WithLogger(a.logger),
	)
	builder := digest.NewBuilder(cfg.DigestOptions()...)

	manager, err := a.sessionManager(dispatcher, builder, combined)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.explorer = canopy.New(trees,
		canopy.WithDispatcher(dispatcher),
		canopy.WithDigestBuilder(builder),
		canopy.WithSessions(manager),
		canopy.WithLogger(a.logger),
	)
	return a, nil
}

func (a *app) treeSource() (ports.TreeSource, error) {
	treeOpts := []tree.Option{tree.WithHistoryCapacity(a.cfg.Tree.HistoryCapacity)}

	if a.cfg.Tree.Feeds != "" {
		feeds, err := process.LoadFeeds(a.cfg.Tree.Feeds)
		if err != nil {
			return nil, err
		}
		a.feeds = feeds
		a.feedBase = filepath.Dir(a.cfg.Tree.Feeds)
	}

	if a.cfg.Tree.Snapshot != "" {
		src, err := snapshot.NewSource(a.cfg.Tree.Snapshot,
			snapshot.WithTreeOptions(treeOpts...),
			snapshot.WithLogger(a.logger),
		)
		if err != nil {
			return nil, err
		}
		a.source = src
		return src, nil
	}

	if len(a.feeds) > 0 {
		return ports.StaticTree{T: tree.New(treeOpts...)}, nil
	}
	a.logger.Debug("No snapshot or feeds configured, using the demo tree")
	return ports.StaticTree{T: memory.Demo()}, nil
}

func (a *app) sessionManager(dispatcher *tools.Dispatcher, builder *digest.Builder, hooks domain.LifecycleHooks) (*session.Manager, error) {
	cfg := a.cfg
	opts := []session.Option{
		session.WithLogger(a.logger),
		session.WithConversationOptions(
			conversation.WithDispatcher(dispatcher),
			conversation.WithDigestBuilder(builder),
			conversation.WithMaxRounds(cfg.Conversation.MaxRounds),
			conversation.WithHistoryKeep(cfg.Conversation.HistoryKeep),
			conversation.WithMaxInput(cfg.Conversation.MaxInput),
			conversation.WithLifecycleHooks(hooks),
			conversation.WithLogger(a.logger),
		),
	}
	if cfg.Conversation.SystemPrompt != "" {
		opts = append(opts, session.WithSystemPrompt(cfg.Conversation.SystemPrompt))
	}

	// Without a key or endpoint there is nothing to talk to; tools and digests still work.
	if cfg.Model.APIKey != "" || cfg.Model.BaseURL != "" {
		gw := openai.New(cfg.Model.APIKey, cfg.Model.BaseURL,
			openai.WithModel(cfg.Model.Name),
			openai.WithTemperature(cfg.Model.Temperature),
			openai.WithLogger(a.logger),
		)
		opts = append(opts, session.WithGateway(gw))
	}

	var store ports.ConversationStore = memory.NewStore()
	switch {
	case cfg.Redis.Addr != "":
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		a.closers = append(a.closers, rs.Close)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		store = rs
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), rs.Prefix())))
		a.logger.Info("Using redis session store", "addr", cfg.Redis.Addr, "prefix", rs.Prefix())
	case cfg.Storage.Dir != "":
		store = file.New(cfg.Storage.Dir)
		a.logger.Debug("Using file session store", "dir", cfg.Storage.Dir)
	}

	mws, err := storageMiddlewares(cfg.Storage)
	if err != nil {
		return nil, err
	}
	store = middleware.Chain(store, mws...)

	return session.NewManager(store, opts...), nil
}

// storageMiddlewares builds the redaction and encryption layers. Redaction runs
// first so that the encrypted payload never holds the raw text.
func storageMiddlewares(cfg config.StorageConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

// startSources runs the snapshot watcher and the feeds in the background until
// ctx is done. Feeds write into the tree current at start; a snapshot reload
// replaces that tree, so the two are not combined when watching.
func (a *app) startSources(ctx context.Context, watch bool) {
	if watch && a.source != nil {
		go func() {
			if err := a.source.Watch(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("Snapshot watcher stopped", "err", err)
			}
		}()
	}

	if len(a.feeds) == 0 {
		return
	}
	if watch && a.source != nil {
		a.logger.Warn("Feeds are ignored while watching a snapshot", "feeds", len(a.feeds))
		return
	}
	t := a.explorer.Tree()
	go func() {
		err := process.RunAll(ctx, t, a.feeds,
			process.WithBaseDir(a.feedBase),
			process.WithLogger(a.logger),
		)
		if err != nil && ctx.Err() == nil {
			a.logger.Error("Feed stopped", "err", err)
		}
	}()
}

// Close releases external connections.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("Close failed", "err", err)
		}
	}
}

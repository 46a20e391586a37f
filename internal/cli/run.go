package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/scrolldepth/internal/browser"
	"github.com/roach88/scrolldepth/internal/config"
	"github.com/roach88/scrolldepth/internal/engine"
	"github.com/roach88/scrolldepth/internal/geometry"
	"github.com/roach88/scrolldepth/internal/loop"
	"github.com/roach88/scrolldepth/internal/sink"
	"github.com/roach88/scrolldepth/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	URL           string
	Database      string // overrides dispatch.db
	Remote        string
	Headful       bool
	Stealth       bool
	Duration      time.Duration
	WatchInterval time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Track scroll depth on a live page",
		Long: `Open a page in Chrome and track scroll depth with the given config.

Each crossing is written to stdout as a data-layer JSON line. With a
database (--db or dispatch.db) crossings are also logged to SQLite, and
with dispatch.webhook they are POSTed to that URL.

Tracking runs until --duration elapses or the process is interrupted.

Examples:
  scrolldepth run tracker.yaml --url https://example.com/posts/hello
  scrolldepth run tracker.yaml --url https://example.com --db ./crossings.db --duration 5m
  scrolldepth run tracker.yaml --url https://example.com --remote ws://127.0.0.1:9222/devtools/browser/...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTracker(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "page to track (required)")
	_ = cmd.MarkFlagRequired("url")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite crossing log")
	cmd.Flags().StringVar(&opts.Remote, "remote", "", "DevTools WebSocket URL of a running Chrome")
	cmd.Flags().BoolVar(&opts.Headful, "headful", false, "show the browser window")
	cmd.Flags().BoolVar(&opts.Stealth, "stealth", false, "open the page with stealth evasions")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().DurationVar(&opts.WatchInterval, "watch-interval", browser.DefaultWatchInterval, "scroll and viewport sampling interval")

	return cmd
}

func runTracker(opts *RunOptions, path string, cmd *cobra.Command) error {
	logger := opts.logger()

	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to load config", issueFromError(err).Code), err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	tag := cfg.Tagging()
	if tag.Label == "" {
		tag.Label = pagePath(opts.URL)
	}
	router := sink.NewRouter(logger, sink.NewDataLayer(cmd.OutOrStdout(), tag))
	defer router.Close()

	dbPath := cmp.Or(opts.Database, cfg.Dispatch.DB)
	var st *store.Store
	if dbPath != "" {
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		router.Add(st)
	}
	if cfg.Dispatch.Webhook != "" {
		router.Add(sink.NewWebhook(cfg.Dispatch.Webhook, tag, sink.WithWebhookLogger(logger)))
	}

	b, err := browser.Launch(ctx, browser.Config{
		RemoteURL: opts.Remote,
		Headful:   opts.Headful,
		Stealth:   opts.Stealth,
		Logger:    logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: browser unavailable", ErrCodeBrowser), err)
	}
	defer b.Close()

	page, err := b.OpenPage(ctx, opts.URL)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to open page", ErrCodeBrowser), err)
	}
	defer page.Close()

	l := loop.New()
	loopDone := make(chan error, 1)
	go func() { loopDone <- l.Run(ctx) }()

	watcher := browser.NewWatcher(page, cfg.Context, func(fn func()) { l.Post(fn) }, opts.WatchInterval)

	eng, err := attach(ctx, l, page, watcher, cfg, router, st, opts.URL, logger)
	if err != nil {
		l.Stop()
		<-loopDone
		return err
	}

	watchDone := make(chan error, 1)
	go func() { watchDone <- watcher.Run(ctx) }()

	logger.Info("tracking", "instance", eng.ID(), "url", opts.URL, "context", eng.Context())

	loopErr := <-loopDone
	<-watchDone

	// The loop has exited, so nothing else touches the engine.
	eng.Destroy()
	logger.Info("tracking stopped", "instance", eng.ID(),
		"epoch", eng.Epoch(), "tracked", len(eng.Tracked()), "failures", eng.Failures())

	if loopErr != nil && !errors.Is(loopErr, context.Canceled) && !errors.Is(loopErr, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "event loop failed", loopErr)
	}
	return nil
}

// attach creates an engine on l for doc, records its instance in st
// (when set) and registers the config's distances with router.
func attach(
	ctx context.Context,
	l *loop.Loop,
	doc geometry.Document,
	events geometry.EventSource,
	cfg *config.Config,
	router *sink.Router,
	st *store.Store,
	pageURL string,
	logger *slog.Logger,
) (*engine.Engine, error) {
	var (
		eng    *engine.Engine
		engErr error
	)
	engineOpts := append(cfg.EngineOptions(),
		engine.WithEventSource(events),
		engine.WithLogger(logger),
	)
	if err := l.Do(ctx, func() {
		eng, engErr = engine.New(doc, l, engineOpts...)
	}); err != nil {
		return nil, WrapExitError(ExitCommandError, "event loop unavailable", err)
	}
	if engErr != nil {
		return nil, WrapExitError(ExitFailure, fmt.Sprintf("%s: failed to attach tracker", ErrCodeEngine), engErr)
	}
	// Past this point a failed attach must release the engine's timers
	// and event subscriptions.
	fail := func(err error) (*engine.Engine, error) {
		if doErr := l.Do(ctx, eng.Destroy); errors.Is(doErr, loop.ErrClosed) {
			// The loop is gone, so nothing else can touch the engine.
			eng.Destroy()
		}
		return nil, err
	}

	if st != nil {
		cfgJSON, err := cfg.JSON()
		if err != nil {
			return fail(WrapExitError(ExitCommandError, "failed to encode config", err))
		}
		if err := st.WriteInstance(ctx, store.Instance{
			ID:        eng.ID(),
			Context:   eng.Context(),
			Page:      pageURL,
			Config:    cfgJSON,
			CreatedAt: time.Now().Unix(),
		}); err != nil {
			return fail(WrapExitError(ExitCommandError, "failed to record instance", err))
		}
	}

	if err := l.Do(ctx, func() {
		eng.On(cfg.Distances, sink.Listener(ctx, router))
	}); err != nil {
		return fail(WrapExitError(ExitCommandError, "event loop unavailable", err))
	}
	return eng, nil
}

// pagePath returns the path of rawURL, "/" when it has none, or rawURL
// itself if it does not parse.
func pagePath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

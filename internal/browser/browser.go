// Package browser measures live pages in headless Chrome.
//
// A Browser is launched locally or attached to a remote DevTools
// endpoint; OpenPage navigates a tab and returns a Page that implements
// geometry.Document. Watcher polls the tab and turns scroll offset and
// viewport changes into geometry events on the engine's loop.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultNavigationTimeout bounds Navigate plus WaitLoad.
const DefaultNavigationTimeout = 30 * time.Second

// Config configures a Browser.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Headful shows the browser window. Local launches only.
	Headful bool

	// Stealth opens tabs through go-rod/stealth.
	Stealth bool

	// NavigationTimeout defaults to DefaultNavigationTimeout.
	NavigationTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = DefaultNavigationTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser owns one Chrome connection and, for local launches, the
// process behind it.
type Browser struct {
	cfg    Config
	mu     sync.Mutex
	rod    *rod.Browser
	lnch   *launcher.Launcher
	closed bool
}

// Launch starts Chrome (or connects to cfg.RemoteURL).
func Launch(ctx context.Context, cfg Config) (*Browser, error) {
	cfg.defaults()
	log := cfg.Logger

	var wsURL string
	var lnch *launcher.Launcher
	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		lnch = launcher.New().Context(ctx).Headless(!cfg.Headful)
		lnch = lnch.Set("disable-blink-features", "AutomationControlled")

		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		log.Info("browser: launched local chrome", "url", wsURL, "headful", cfg.Headful)
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	return &Browser{cfg: cfg, rod: b, lnch: lnch}, nil
}

// OpenPage creates a tab, navigates to pageURL and waits for load.
// A load timeout is logged, not returned: tracking a partially loaded
// page is still useful.
func (b *Browser) OpenPage(ctx context.Context, pageURL string) (*Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("browser: closed")
	}

	var (
		tab *rod.Page
		err error
	)
	if b.cfg.Stealth {
		tab, err = stealth.Page(b.rod)
	} else {
		tab, err = b.rod.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
	defer cancel()

	if err := tab.Context(navCtx).Navigate(pageURL); err != nil {
		tab.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := tab.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return newPage(ctx, tab, pageURL, b.cfg.Logger), nil
}

// Close disconnects and, for local launches, kills Chrome.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.rod != nil {
		err = b.rod.Close()
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
	}
	return err
}

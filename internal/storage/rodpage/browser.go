package rodpage

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/thoreinstein/webstash/internal/errors"
)

// DefaultNavigationTimeout bounds Navigate plus WaitLoad.
const DefaultNavigationTimeout = 30 * time.Second

// Config configures Connect.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local one.
	RemoteURL string

	// Headless applies to launched browsers only.
	Headless bool

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

// Browser is a connected Chrome instance.
type Browser struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Connect launches or attaches to Chrome.
func Connect(ctx context.Context, cfg Config) (*Browser, error) {
	cfg.defaults()
	log := cfg.Logger

	wsURL := cfg.RemoteURL
	var lnch *launcher.Launcher
	if wsURL != "" {
		log.Info("connecting to remote chrome", slog.String("url", wsURL))
	} else {
		lnch = launcher.New().
			Context(ctx).
			Headless(cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")

		u, err := lnch.Launch()
		if err != nil {
			return nil, errors.Wrap(err, "launching chrome")
		}
		wsURL = u
		log.Info("launched local chrome", slog.String("url", wsURL), slog.Bool("headless", cfg.Headless))
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, errors.Wrap(err, "connecting to chrome")
	}

	return &Browser{cfg: cfg, browser: b, lnch: lnch}, nil
}

// Open creates a tab, navigates it to pageURL and returns its storage.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if b.cfg.Stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, errors.Wrap(err, "creating tab")
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		_ = page.Close()
		return nil, errors.Wrapf(err, "navigating to %s", pageURL)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn("page load did not finish", slog.String("url", pageURL), slog.Any("error", err))
	}

	return &Page{page: page, url: pageURL}, nil
}

// Close shuts the browser down. Launched browsers are also cleaned up.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return errors.Wrap(err, "closing browser")
}

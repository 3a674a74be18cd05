package commands

import (
	"context"

	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/storage"
	"github.com/thoreinstein/webstash/internal/storage/profile"
	"github.com/thoreinstein/webstash/internal/storage/rodpage"
)

// target is the environment a command operates on.
type target struct {
	storage.Environment

	// Describe names the target for messages.
	Describe string

	save  func(context.Context) error
	close func() error
}

// Save persists changes. Live pages persist on their own.
func (t *target) Save(ctx context.Context) error {
	if t.save == nil {
		return nil
	}
	return t.save(ctx)
}

// Close releases the target.
func (t *target) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}

// openTarget opens the environment selected by --url or the profile. It is
// a variable so tests can substitute an in-memory environment.
var openTarget = func(ctx context.Context) (*target, error) {
	if urlFlag != "" {
		return openPage(ctx, urlFlag)
	}
	return openProfile(ctx)
}

func openProfile(ctx context.Context) (*target, error) {
	cfg := flags.Config()
	p, err := profile.Open(ctx, cfg.Profile, hostFlag, profile.WithFallbackHost(cfg.Host))
	if err != nil {
		return nil, errors.NewSystemError(err, "Check the --profile path or run with -vv for details")
	}
	return &target{
		Environment: p,
		Describe:    "profile " + p.Path(),
		save:        p.Save,
		close:       p.Close,
	}, nil
}

func openPage(ctx context.Context, pageURL string) (*target, error) {
	cfg := flags.Config()
	b, err := rodpage.Connect(ctx, rodpage.Config{
		RemoteURL: cfg.Browser.RemoteURL,
		Headless:  cfg.Browser.Headless,
		Stealth:   cfg.Browser.Stealth,
		Logger:    logging.FromContext(ctx),
	})
	if err != nil {
		return nil, errors.NewSystemError(err, "Install Chrome or set browser.remote_url")
	}

	page, err := b.Open(ctx, pageURL)
	if err != nil {
		_ = b.Close()
		return nil, errors.NewSystemError(err, "Check that the URL is reachable")
	}

	return &target{
		Environment: page,
		Describe:    "page " + pageURL,
		close: func() error {
			return errors.Join(page.Close(), b.Close())
		},
	}, nil
}

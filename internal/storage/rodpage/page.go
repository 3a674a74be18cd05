package rodpage

import (
	"context"
	"encoding/json"

	"github.com/go-rod/rod"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/storage"
)

// Page is the storage of one open tab.
type Page struct {
	page *rod.Page
	url  string
}

var _ storage.Environment = (*Page)(nil)

// URL returns the address the page was opened at.
func (p *Page) URL() string {
	return p.url
}

// Close closes the tab.
func (p *Page) Close() error {
	return errors.Wrap(p.page.Close(), "closing tab")
}

// outcome is the envelope every script returns.
type outcome struct {
	Value json.RawMessage `json:"value"`
	Err   string          `json:"error"`
	Msg   string          `json:"message"`
}

// eval runs fn, a JavaScript function that resolves to a value, and
// decodes the value into out. Scripts are wrapped so that thrown DOM
// exceptions come back as their name.
func (p *Page) eval(ctx context.Context, fn string, out any, args ...any) error {
	res, err := p.page.Context(ctx).Eval(wrap(fn), args...)
	if err != nil {
		return errors.Wrap(err, "evaluating script")
	}
	return decodeOutcome(res.Value.Str(), out)
}

// wrap turns fn into a function returning a JSON encoded outcome.
func wrap(fn string) string {
	return `async (...args) => {
	try {
		const value = await (` + fn + `)(...args);
		return JSON.stringify({ value: value === undefined ? null : value });
	} catch (e) {
		return JSON.stringify({ error: (e && e.name) || "Error", message: String((e && e.message) || e) });
	}
}`
}

func decodeOutcome(raw string, out any) error {
	var o outcome
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return errors.Wrap(err, "decoding script result")
	}
	if o.Err != "" {
		return scriptError(o.Err, o.Msg)
	}
	if out == nil || len(o.Value) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(o.Value, out), "decoding script value")
}

// scriptError maps a DOMException name to a storage sentinel.
func scriptError(name, msg string) error {
	var sentinel error
	switch name {
	case "QuotaExceededError":
		sentinel = storage.ErrQuotaExceeded
	case "ConstraintError":
		sentinel = storage.ErrConstraint
	case "DataError":
		sentinel = storage.ErrData
	case "NotFoundError":
		sentinel = storage.ErrNotFound
	case "BlockedError":
		sentinel = storage.ErrBlocked
	case "NotSupportedError", "SecurityError", "InvalidStateError":
		sentinel = storage.ErrUnsupported
	default:
		return errors.Newf("%s: %s", name, msg)
	}
	return errors.Wrapf(sentinel, "%s: %s", name, msg)
}

func (p *Page) Origin(ctx context.Context) (storage.Origin, error) {
	var o struct {
		Host      string `json:"host"`
		Path      string `json:"path"`
		UserAgent string `json:"userAgent"`
	}
	err := p.eval(ctx, `() => ({ host: location.hostname, path: location.pathname, userAgent: navigator.userAgent })`, &o)
	if err != nil {
		return storage.Origin{}, errors.Wrap(err, "reading location")
	}
	return storage.Origin{Host: o.Host, Path: o.Path, UserAgent: o.UserAgent}, nil
}

func (p *Page) LocalStorage() storage.KeyValue {
	return &keyValue{page: p, area: "localStorage"}
}

func (p *Page) SessionStorage() storage.KeyValue {
	return &keyValue{page: p, area: "sessionStorage"}
}

func (p *Page) Cookies() storage.CookieJar {
	return &cookieJar{page: p}
}

func (p *Page) IndexedDB() storage.IndexedDB {
	return &factory{page: p}
}

func (p *Page) Caches() storage.CacheStorage {
	return &caches{page: p}
}

func (p *Page) ServiceWorkers() storage.ServiceWorkers {
	return &workers{page: p}
}

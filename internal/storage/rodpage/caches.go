package rodpage

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// scriptCacheEntries reports a response whose body cannot be read as an
// entry with error set instead of failing the whole cache.
const scriptCacheEntries = `async (name) => {
	if (!(await caches.has(name))) {
		const e = new Error("cache " + name + " does not exist");
		e.name = "NotFoundError";
		throw e;
	}
	const cache = await caches.open(name);
	const out = [];
	for (const request of await cache.keys()) {
		try {
			const resp = await cache.match(request);
			if (!resp) continue;
			const bytes = new Uint8Array(await resp.arrayBuffer());
			let bin = "";
			for (let i = 0; i < bytes.length; i += 0x8000) {
				bin += String.fromCharCode.apply(null, bytes.subarray(i, i + 0x8000));
			}
			const headers = {};
			resp.headers.forEach((v, k) => { headers[k] = v; });
			out.push({
				url: request.url,
				method: request.method,
				status: resp.status,
				statusText: resp.statusText,
				headers,
				body: btoa(bin),
			});
		} catch (e) {
			out.push({ url: request.url, method: request.method, error: String((e && e.message) || e) });
		}
	}
	return out;
}`

// scriptCachePut builds the response with a null body for statuses that
// forbid one, since the Response constructor throws otherwise.
const scriptCachePut = `async (name, entry) => {
	if (!(await caches.has(name))) {
		const e = new Error("cache " + name + " does not exist");
		e.name = "NotFoundError";
		throw e;
	}
	let body = null;
	if (![101, 103, 204, 205, 304].includes(entry.status)) {
		const bin = atob(entry.body);
		body = new Uint8Array(bin.length);
		for (let i = 0; i < bin.length; i++) body[i] = bin.charCodeAt(i);
	}
	const cache = await caches.open(name);
	await cache.put(
		new Request(entry.url, { method: entry.method }),
		new Response(body, { status: entry.status, statusText: entry.statusText, headers: entry.headers }),
	);
}`

// cacheWire is a cached response as exchanged with the page.
type cacheWire struct {
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	Error      string            `json:"error,omitempty"`
}

func (w cacheWire) response() (storage.Response, error) {
	if w.Error != "" {
		return storage.Response{}, errors.Newf("reading %s: %s", w.URL, w.Error)
	}
	body, err := base64.StdEncoding.DecodeString(w.Body)
	if err != nil {
		return storage.Response{}, errors.Wrapf(err, "decoding body of %s", w.URL)
	}
	return storage.Response{
		Request:    storage.Request{URL: w.URL, Method: w.Method},
		Status:     w.Status,
		StatusText: w.StatusText,
		Headers:    w.Headers,
		Body:       body,
	}, nil
}

func wireResponse(r storage.Response) cacheWire {
	method := r.Request.Method
	if method == "" {
		method = "GET"
	}
	headers := r.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return cacheWire{
		URL:        r.Request.URL,
		Method:     method,
		Status:     r.Status,
		StatusText: r.StatusText,
		Headers:    headers,
		Body:       base64.StdEncoding.EncodeToString(r.Body),
	}
}

type caches struct {
	page *Page
}

func (c *caches) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := c.page.eval(ctx, `() => caches.keys()`, &names)
	return names, errors.Wrap(err, "listing caches")
}

func (c *caches) Entries(ctx context.Context, name string) ([]storage.Response, error) {
	var wire []cacheWire
	if err := c.page.eval(ctx, scriptCacheEntries, &wire, name); err != nil {
		return nil, errors.Wrapf(err, "reading cache %q", name)
	}
	return collectEntries(ctx, name, wire), nil
}

// collectEntries converts wire entries, dropping the unreadable ones.
func collectEntries(ctx context.Context, name string, wire []cacheWire) []storage.Response {
	out := make([]storage.Response, 0, len(wire))
	for _, w := range wire {
		r, err := w.response()
		if err != nil {
			logging.FromContext(ctx).Warn("cache entry skipped",
				slog.String("cache", name),
				slog.String("url", w.URL),
				slog.Any("error", err),
			)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (c *caches) Delete(ctx context.Context, name string) error {
	return errors.Wrapf(c.page.eval(ctx, `(n) => caches.delete(n)`, nil, name), "deleting cache %q", name)
}

func (c *caches) Create(ctx context.Context, name string) error {
	return errors.Wrapf(c.page.eval(ctx, `async (n) => { await caches.open(n); }`, nil, name), "creating cache %q", name)
}

func (c *caches) Put(ctx context.Context, name string, resp storage.Response) error {
	return errors.Wrapf(c.page.eval(ctx, scriptCachePut, nil, name, wireResponse(resp)),
		"storing %s in cache %q", resp.Request.URL, name)
}

type workers struct {
	page *Page
}

func (w *workers) Registrations(ctx context.Context) ([]snapshot.ServiceWorker, error) {
	var regs []snapshot.ServiceWorker
	err := w.page.eval(ctx, `async () => {
		if (!navigator.serviceWorker) return [];
		const script = (w) => (w ? { scriptURL: w.scriptURL, state: w.state } : null);
		return (await navigator.serviceWorker.getRegistrations()).map((r) => ({
			scope: r.scope,
			updateViaCache: r.updateViaCache,
			active: script(r.active),
			waiting: script(r.waiting),
			installing: script(r.installing),
		}));
	}`, &regs)
	return regs, errors.Wrap(err, "listing service workers")
}

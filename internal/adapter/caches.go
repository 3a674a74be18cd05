package adapter

import (
	"context"
	"encoding/base64"
	"log/slog"
	"mime"
	"sort"
	"strings"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

var binaryPrefixes = []string{"image/", "audio/", "video/"}

// IsBinaryContentType reports whether a response body of this media type
// is stored base64 encoded.
func IsBinaryContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)

	if mediaType == "application/octet-stream" {
		return true
	}
	for _, p := range binaryPrefixes {
		if strings.HasPrefix(mediaType, p) {
			return true
		}
	}
	return false
}

func header(h map[string]string, name string) string {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

type cacheAdapter struct {
	caches func() storage.CacheStorage
}

func (a *cacheAdapter) Backend() snapshot.Backend { return snapshot.CacheStorage }

func (a *cacheAdapter) Capture(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: snapshot.CacheStorage}
	cs := a.caches()
	if cs == nil {
		return res
	}

	names, err := cs.Names(ctx)
	if err != nil {
		res.fail(ctx, errors.Wrap(err, "listing caches"))
		return res
	}

	out := make(map[string][]snapshot.CacheEntry, len(names))
	for _, name := range names {
		responses, err := cs.Entries(ctx, name)
		if err != nil {
			res.skip(ctx, name, err)
			continue
		}
		entries := make([]snapshot.CacheEntry, 0, len(responses))
		for _, r := range responses {
			entries = append(entries, toEntry(r))
		}
		out[name] = entries
		res.Written += len(entries)
	}

	s.CacheStorage = out
	return res
}

func toEntry(r storage.Response) snapshot.CacheEntry {
	e := snapshot.CacheEntry{
		URL:        r.Request.URL,
		Method:     r.Request.Method,
		Headers:    r.Headers,
		Status:     r.Status,
		StatusText: r.StatusText,
	}
	if e.Headers == nil {
		e.Headers = map[string]string{}
	}
	if IsBinaryContentType(header(r.Headers, "content-type")) {
		e.Encoding = snapshot.EncodingBase64
		e.Body = base64.StdEncoding.EncodeToString(r.Body)
	} else {
		e.Encoding = snapshot.EncodingText
		e.Body = string(r.Body)
	}
	return e
}

func fromEntry(e snapshot.CacheEntry) (storage.Response, error) {
	body := []byte(e.Body)
	if e.Encoding == snapshot.EncodingBase64 {
		decoded, err := base64.StdEncoding.DecodeString(e.Body)
		if err != nil {
			return storage.Response{}, errors.Wrap(err, "decoding body")
		}
		body = decoded
	}
	status := e.Status
	if status == 0 {
		status = 200
	}
	return storage.Response{
		Request:    storage.Request{URL: e.URL, Method: e.Method},
		Status:     status,
		StatusText: e.StatusText,
		Headers:    e.Headers,
		Body:       body,
	}, nil
}

func (a *cacheAdapter) Restore(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: snapshot.CacheStorage}
	cs := a.caches()
	if cs == nil || len(s.CacheStorage) == 0 {
		return res
	}

	names := make([]string, 0, len(s.CacheStorage))
	for name := range s.CacheStorage {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := cs.Delete(ctx, name); err != nil {
			logging.FromContext(ctx).Debug("deleting cache before restore failed", slog.String("backend", string(snapshot.CacheStorage)), slog.String("store", name), slog.Any("error", err))
		}
		if err := cs.Create(ctx, name); err != nil {
			res.skip(ctx, name, err)
			continue
		}
		for _, e := range s.CacheStorage[name] {
			resp, err := fromEntry(e)
			if err == nil {
				err = cs.Put(ctx, name, resp)
			}
			if err != nil {
				res.skip(ctx, name+"/"+e.URL, err)
				continue
			}
			res.Written++
		}
	}
	return res
}

func (a *cacheAdapter) Count(ctx context.Context) (int, error) {
	cs := a.caches()
	if cs == nil {
		return 0, nil
	}
	names, err := cs.Names(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "listing caches")
	}
	var n int
	for _, name := range names {
		entries, err := cs.Entries(ctx, name)
		if err != nil {
			return 0, errors.Wrapf(err, "reading cache %s", name)
		}
		n += len(entries)
	}
	return n, nil
}

func (a *cacheAdapter) Clear(ctx context.Context) Result {
	res := Result{Backend: snapshot.CacheStorage}
	cs := a.caches()
	if cs == nil {
		return res
	}
	names, err := cs.Names(ctx)
	if err != nil {
		res.fail(ctx, errors.Wrap(err, "listing caches"))
		return res
	}
	for _, name := range names {
		if err := cs.Delete(ctx, name); err != nil {
			res.skip(ctx, name, err)
			continue
		}
		res.Written++
	}
	return res
}

package adapter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// cookieExpired is the assignment suffix that deletes a cookie.
const cookieExpired = "expires=Thu, 01 Jan 1970 00:00:00 GMT; path=/"

// cookieAdapter captures name/value pairs only. Domain, secure and
// same-site attributes are not visible through the cookie string, so
// restored cookies get a one-year expiry on path "/".
type cookieAdapter struct {
	jar func() storage.CookieJar
	now func() time.Time
}

func (a *cookieAdapter) Backend() snapshot.Backend { return snapshot.Cookies }

// ParseCookieString splits "a=1; b=2". The first '=' separates name and
// value; entries without a name are dropped.
func ParseCookieString(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			continue
		}
		out[part[:eq]] = part[eq+1:]
	}
	return out
}

func (a *cookieAdapter) read(ctx context.Context) (map[string]string, error) {
	raw, err := a.jar().CookieString(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading cookies")
	}
	return ParseCookieString(raw), nil
}

func (a *cookieAdapter) Capture(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: snapshot.Cookies}
	if a.jar() == nil {
		return res
	}

	cookies, err := a.read(ctx)
	if err != nil {
		res.fail(ctx, err)
		return res
	}
	s.Cookies = cookies
	res.Written = len(cookies)
	return res
}

func (a *cookieAdapter) Restore(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: snapshot.Cookies}
	jar := a.jar()
	if jar == nil || len(s.Cookies) == 0 {
		return res
	}

	expires := a.now().AddDate(1, 0, 0).UTC().Format(http.TimeFormat)
	for _, name := range sortedKeys(s.Cookies) {
		line := name + "=" + s.Cookies[name] + "; expires=" + expires + "; path=/"
		if err := jar.SetCookie(ctx, line); err != nil {
			res.skip(ctx, name, err)
			continue
		}
		res.Written++
	}
	return res
}

func (a *cookieAdapter) Count(ctx context.Context) (int, error) {
	if a.jar() == nil {
		return 0, nil
	}
	cookies, err := a.read(ctx)
	if err != nil {
		return 0, err
	}
	return len(cookies), nil
}

func (a *cookieAdapter) Clear(ctx context.Context) Result {
	res := Result{Backend: snapshot.Cookies}
	jar := a.jar()
	if jar == nil {
		return res
	}

	cookies, err := a.read(ctx)
	if err != nil {
		res.fail(ctx, err)
		return res
	}
	for _, name := range sortedKeys(cookies) {
		if err := jar.SetCookie(ctx, name+"=; "+cookieExpired); err != nil {
			res.skip(ctx, name, err)
			continue
		}
		res.Written++
	}
	return res
}

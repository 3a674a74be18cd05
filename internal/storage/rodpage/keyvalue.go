package rodpage

import (
	"context"

	"github.com/thoreinstein/webstash/internal/errors"
)

type keyValue struct {
	page *Page
	area string
}

func (s *keyValue) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.page.eval(ctx, `(a) => {
		const s = window[a], out = [];
		for (let i = 0; i < s.length; i++) out.push(s.key(i));
		return out;
	}`, &keys, s.area)
	return keys, errors.Wrapf(err, "listing %s", s.area)
}

func (s *keyValue) Get(ctx context.Context, key string) (string, bool, error) {
	var v *string
	if err := s.page.eval(ctx, `(a, k) => window[a].getItem(k)`, &v, s.area, key); err != nil {
		return "", false, errors.Wrapf(err, "reading %s", s.area)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (s *keyValue) Set(ctx context.Context, key, value string) error {
	return errors.Wrapf(s.page.eval(ctx, `(a, k, v) => { window[a].setItem(k, v); }`, nil, s.area, key, value),
		"writing %s key %q", s.area, key)
}

func (s *keyValue) Remove(ctx context.Context, key string) error {
	return errors.Wrapf(s.page.eval(ctx, `(a, k) => { window[a].removeItem(k); }`, nil, s.area, key),
		"removing %s key %q", s.area, key)
}

func (s *keyValue) Clear(ctx context.Context) error {
	return errors.Wrapf(s.page.eval(ctx, `(a) => { window[a].clear(); }`, nil, s.area), "clearing %s", s.area)
}

type cookieJar struct {
	page *Page
}

func (j *cookieJar) CookieString(ctx context.Context) (string, error) {
	var s string
	err := j.page.eval(ctx, `() => document.cookie`, &s)
	return s, errors.Wrap(err, "reading cookies")
}

func (j *cookieJar) SetCookie(ctx context.Context, line string) error {
	return errors.Wrap(j.page.eval(ctx, `(l) => { document.cookie = l; }`, nil, line), "writing cookie")
}

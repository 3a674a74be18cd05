package memory

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/thoreinstein/webstash/internal/storage"
)

type cookie struct {
	name  string
	value string
}

// CookieJar keeps cookies in insertion order and honours expiry
// attributes of assignments. Other attributes are accepted and ignored.
type CookieJar struct {
	env     *Environment
	cookies []cookie
}

var _ storage.CookieJar = (*CookieJar)(nil)

// CookieString renders "a=1; b=2". Nameless cookies render as their value.
func (j *CookieJar) CookieString(context.Context) (string, error) {
	j.env.mu.Lock()
	defer j.env.mu.Unlock()

	parts := make([]string, 0, len(j.cookies))
	for _, c := range j.cookies {
		if c.name == "" {
			parts = append(parts, c.value)
			continue
		}
		parts = append(parts, c.name+"="+c.value)
	}
	return strings.Join(parts, "; "), nil
}

// SetCookie applies one assignment. An expiry in the past or a
// non-positive max-age deletes the cookie.
func (j *CookieJar) SetCookie(_ context.Context, line string) error {
	j.env.mu.Lock()
	defer j.env.mu.Unlock()

	segments := strings.Split(line, ";")
	pair := strings.TrimSpace(segments[0])

	var c cookie
	if eq := strings.IndexByte(pair, '='); eq >= 0 {
		c.name = strings.TrimSpace(pair[:eq])
		c.value = strings.TrimSpace(pair[eq+1:])
	} else {
		c.value = pair
	}

	expired := false
	for _, seg := range segments[1:] {
		attr, val, _ := strings.Cut(strings.TrimSpace(seg), "=")
		switch strings.ToLower(strings.TrimSpace(attr)) {
		case "expires":
			if t, err := http.ParseTime(strings.TrimSpace(val)); err == nil && !t.After(j.env.now()) {
				expired = true
			}
		case "max-age":
			if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && n <= 0 {
				expired = true
			}
		}
	}

	idx := -1
	for i, existing := range j.cookies {
		if existing.name == c.name {
			idx = i
			break
		}
	}

	switch {
	case expired && idx >= 0:
		j.cookies = append(j.cookies[:idx], j.cookies[idx+1:]...)
	case expired:
		// nothing to delete
	case idx >= 0:
		j.cookies[idx] = c
	default:
		j.cookies = append(j.cookies, c)
	}
	return nil
}

// Len returns the number of live cookies.
func (j *CookieJar) Len() int {
	j.env.mu.Lock()
	defer j.env.mu.Unlock()
	return len(j.cookies)
}

package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
)

func (p *Profile) saveOrigin(ctx context.Context, tx *sql.Tx) error {
	origin, err := p.Origin(ctx)
	if err != nil {
		return err
	}
	rows := [][2]string{
		{"host", origin.Host},
		{"path", origin.Path},
		{"user_agent", origin.UserAgent},
	}
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, "INSERT INTO origin (key, value) VALUES (?, ?)", r[0], r[1]); err != nil {
			return errors.Wrapf(err, "saving origin %s", r[0])
		}
	}
	return nil
}

func (p *Profile) saveKeyValues(ctx context.Context, tx *sql.Tx) error {
	for _, b := range []snapshot.Backend{snapshot.LocalStorage, snapshot.SessionStorage} {
		kv := p.Local()
		if b == snapshot.SessionStorage {
			kv = p.Session()
		}
		keys, err := kv.Keys(ctx)
		if err != nil {
			return errors.Wrapf(err, "listing %s", b)
		}
		for i, k := range keys {
			v, ok, err := kv.Get(ctx, k)
			if err != nil {
				return errors.Wrapf(err, "reading %s key %q", b, k)
			}
			if !ok {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO kv (area, pos, key, value) VALUES (?, ?, ?, ?)",
				areaFor(b), i, k, v); err != nil {
				return errors.Wrapf(err, "saving %s key %q", b, k)
			}
		}
	}
	return nil
}

func (p *Profile) saveCookies(ctx context.Context, tx *sql.Tx) error {
	s, err := p.Jar().CookieString(ctx)
	if err != nil {
		return errors.Wrap(err, "reading cookies")
	}
	if s == "" {
		return nil
	}
	for i, part := range strings.Split(s, "; ") {
		name, value := "", part
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			name, value = part[:eq], part[eq+1:]
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cookies (pos, name, value) VALUES (?, ?, ?)", i, name, value); err != nil {
			return errors.Wrapf(err, "saving cookie %q", name)
		}
	}
	return nil
}

func (p *Profile) saveDatabases(ctx context.Context, tx *sql.Tx) error {
	f := p.Databases()
	infos, err := f.Databases(ctx)
	if err != nil {
		return errors.Wrap(err, "listing databases")
	}

	for _, info := range infos {
		if err := p.saveDatabase(ctx, tx, info.Name); err != nil {
			return errors.Wrapf(err, "saving database %q", info.Name)
		}
	}
	return nil
}

func (p *Profile) saveDatabase(ctx context.Context, tx *sql.Tx, name string) error {
	h, err := p.Databases().Open(ctx, name)
	if err != nil {
		return err
	}
	defer h.Close()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO idb_databases (name, version) VALUES (?, ?)", name, h.Version()); err != nil {
		return errors.Wrap(err, "inserting database")
	}

	stores, err := h.Stores(ctx)
	if err != nil {
		return errors.Wrap(err, "listing stores")
	}
	for _, s := range stores {
		keyPath, err := marshalText(s.KeyPath)
		if err != nil {
			return err
		}
		indexes := "[]"
		if len(s.Indexes) > 0 {
			if indexes, err = marshalText(s.Indexes); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO idb_stores (db, name, key_path, auto_increment, indexes) VALUES (?, ?, ?, ?, ?)",
			name, s.Name, keyPath, s.AutoIncrement, indexes); err != nil {
			return errors.Wrapf(err, "inserting store %q", s.Name)
		}

		pos := 0
		err = h.Scan(ctx, s.Name, func(key, value json.RawMessage) error {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO idb_records (db, store, pos, key, value) VALUES (?, ?, ?, ?, ?)",
				name, s.Name, pos, string(key), string(value))
			pos++
			return errors.Wrap(err, "inserting record")
		})
		if err != nil {
			return errors.Wrapf(err, "saving store %q", s.Name)
		}
	}
	return nil
}

func (p *Profile) saveCaches(ctx context.Context, tx *sql.Tx) error {
	cs := p.CacheStore()
	names, err := cs.Names(ctx)
	if err != nil {
		return errors.Wrap(err, "listing caches")
	}

	for i, name := range names {
		if _, err := tx.ExecContext(ctx, "INSERT INTO caches (name, pos) VALUES (?, ?)", name, i); err != nil {
			return errors.Wrapf(err, "saving cache %q", name)
		}
		entries, err := cs.Entries(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "reading cache %q", name)
		}
		for j, e := range entries {
			headers, err := marshalText(e.Headers)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO cache_entries (cache, pos, url, method, status, status_text, headers, body) "+
					"VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				name, j, e.Request.URL, e.Request.Method, e.Status, e.StatusText, headers, e.Body); err != nil {
				return errors.Wrapf(err, "saving %s", e.Request.URL)
			}
		}
	}
	return nil
}

func (p *Profile) saveWorkers(ctx context.Context, tx *sql.Tx) error {
	regs, err := p.Workers().Registrations(ctx)
	if err != nil {
		return errors.Wrap(err, "listing service workers")
	}
	for i, reg := range regs {
		raw, err := marshalText(reg)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO service_workers (pos, scope, registration) VALUES (?, ?, ?)",
			i, reg.Scope, raw); err != nil {
			return errors.Wrapf(err, "saving service worker %s", reg.Scope)
		}
	}
	return nil
}

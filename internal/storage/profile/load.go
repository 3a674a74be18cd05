package profile

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
	"github.com/thoreinstein/webstash/internal/storage/memory"
)

// queryAll runs query and hands every row to scan, closing the rows before
// returning so the single connection is free for the next query.
func queryAll(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "querying profile")
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "reading rows")
}

func (p *Profile) load(ctx context.Context, host, fallback string) error {
	origin := storage.Origin{}
	err := queryAll(ctx, p.db, "SELECT key, value FROM origin", func(r *sql.Rows) error {
		var k, v string
		if err := r.Scan(&k, &v); err != nil {
			return errors.Wrap(err, "scanning origin")
		}
		switch k {
		case "host":
			origin.Host = v
		case "path":
			origin.Path = v
		case "user_agent":
			origin.UserAgent = v
		}
		return nil
	})
	if err != nil {
		return err
	}
	if host != "" {
		origin.Host = host
	}
	if origin.Host == "" {
		origin.Host = fallback
	}

	p.Environment = memory.New(origin)

	steps := []func(context.Context) error{
		p.loadKeyValues,
		p.loadCookies,
		p.loadDatabases,
		p.loadCaches,
		p.loadWorkers,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Profile) loadKeyValues(ctx context.Context) error {
	return queryAll(ctx, p.db, "SELECT area, key, value FROM kv ORDER BY area, pos", func(r *sql.Rows) error {
		var area, k, v string
		if err := r.Scan(&area, &k, &v); err != nil {
			return errors.Wrap(err, "scanning kv")
		}
		kv := p.Local()
		if area == areaFor(snapshot.SessionStorage) {
			kv = p.Session()
		}
		return errors.Wrapf(kv.Set(ctx, k, v), "loading %s key %q", area, k)
	})
}

func (p *Profile) loadCookies(ctx context.Context) error {
	return queryAll(ctx, p.db, "SELECT name, value FROM cookies ORDER BY pos", func(r *sql.Rows) error {
		var name, value string
		if err := r.Scan(&name, &value); err != nil {
			return errors.Wrap(err, "scanning cookie")
		}
		line := value
		if name != "" {
			line = name + "=" + value
		}
		return errors.Wrapf(p.Jar().SetCookie(ctx, line), "loading cookie %q", name)
	})
}

type dbRow struct {
	name    string
	version int
}

type storeRow struct {
	schema  storage.StoreSchema
	records []snapshot.Record
}

func (p *Profile) loadDatabases(ctx context.Context) error {
	var dbs []dbRow
	err := queryAll(ctx, p.db, "SELECT name, version FROM idb_databases ORDER BY name", func(r *sql.Rows) error {
		var d dbRow
		if err := r.Scan(&d.name, &d.version); err != nil {
			return errors.Wrap(err, "scanning database")
		}
		dbs = append(dbs, d)
		return nil
	})
	if err != nil {
		return err
	}

	for _, d := range dbs {
		if err := p.loadDatabase(ctx, d); err != nil {
			return errors.Wrapf(err, "loading database %q", d.name)
		}
	}
	return nil
}

func (p *Profile) loadDatabase(ctx context.Context, d dbRow) error {
	var stores []*storeRow
	byName := map[string]*storeRow{}

	err := queryAll(ctx, p.db,
		"SELECT name, key_path, auto_increment, indexes FROM idb_stores WHERE db = ? ORDER BY name",
		func(r *sql.Rows) error {
			var (
				s            storeRow
				keyPath, idx string
			)
			if err := r.Scan(&s.schema.Name, &keyPath, &s.schema.AutoIncrement, &idx); err != nil {
				return errors.Wrap(err, "scanning store")
			}
			if err := json.Unmarshal([]byte(keyPath), &s.schema.KeyPath); err != nil {
				return errors.Wrapf(err, "decoding key path of %q", s.schema.Name)
			}
			if err := json.Unmarshal([]byte(idx), &s.schema.Indexes); err != nil {
				return errors.Wrapf(err, "decoding indexes of %q", s.schema.Name)
			}
			stores = append(stores, &s)
			byName[s.schema.Name] = &s
			return nil
		}, d.name)
	if err != nil {
		return err
	}

	err = queryAll(ctx, p.db,
		"SELECT store, key, value FROM idb_records WHERE db = ? ORDER BY store, pos",
		func(r *sql.Rows) error {
			var store, key, value string
			if err := r.Scan(&store, &key, &value); err != nil {
				return errors.Wrap(err, "scanning record")
			}
			s, ok := byName[store]
			if !ok {
				return nil
			}
			rec := snapshot.Record{Value: json.RawMessage(value)}
			if s.schema.KeyPath.IsNone() {
				rec.Key = json.RawMessage(key)
			}
			s.records = append(s.records, rec)
			return nil
		}, d.name)
	if err != nil {
		return err
	}

	schemas := make([]storage.StoreSchema, 0, len(stores))
	for _, s := range stores {
		schemas = append(schemas, s.schema)
	}

	h, err := p.Databases().Create(ctx, d.name, max(d.version, 1), schemas)
	if err != nil {
		return err
	}
	defer h.Close()

	for _, s := range stores {
		if len(s.records) == 0 {
			continue
		}
		itemErrs, err := h.Write(ctx, s.schema.Name, s.records)
		if err != nil {
			return errors.Wrapf(err, "writing store %q", s.schema.Name)
		}
		if err := errors.Join(itemErrs...); err != nil {
			return errors.Wrapf(err, "writing store %q", s.schema.Name)
		}
	}
	return nil
}

func (p *Profile) loadCaches(ctx context.Context) error {
	var names []string
	err := queryAll(ctx, p.db, "SELECT name FROM caches ORDER BY pos", func(r *sql.Rows) error {
		var name string
		if err := r.Scan(&name); err != nil {
			return errors.Wrap(err, "scanning cache")
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return err
	}

	cs := p.CacheStore()
	for _, name := range names {
		if err := cs.Create(ctx, name); err != nil {
			return errors.Wrapf(err, "creating cache %q", name)
		}
	}

	return queryAll(ctx, p.db,
		"SELECT e.cache, e.url, e.method, e.status, e.status_text, e.headers, e.body "+
			"FROM cache_entries e JOIN caches c ON c.name = e.cache ORDER BY c.pos, e.pos",
		func(r *sql.Rows) error {
			var (
				cache, headers string
				resp           storage.Response
			)
			if err := r.Scan(&cache, &resp.Request.URL, &resp.Request.Method, &resp.Status,
				&resp.StatusText, &headers, &resp.Body); err != nil {
				return errors.Wrap(err, "scanning cache entry")
			}
			if err := json.Unmarshal([]byte(headers), &resp.Headers); err != nil {
				return errors.Wrapf(err, "decoding headers of %s", resp.Request.URL)
			}
			return errors.Wrapf(cs.Put(ctx, cache, resp), "loading %s", resp.Request.URL)
		})
}

func (p *Profile) loadWorkers(ctx context.Context) error {
	return queryAll(ctx, p.db, "SELECT registration FROM service_workers ORDER BY pos", func(r *sql.Rows) error {
		var raw string
		if err := r.Scan(&raw); err != nil {
			return errors.Wrap(err, "scanning service worker")
		}
		var reg snapshot.ServiceWorker
		if err := json.Unmarshal([]byte(raw), &reg); err != nil {
			return errors.Wrap(err, "decoding service worker")
		}
		p.Workers().Register(reg)
		return nil
	})
}

package adapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// indexedDBAdapter captures databases with their schema and restores them
// by delete-and-recreate.
type indexedDBAdapter struct {
	idb func() storage.IndexedDB
}

func (a *indexedDBAdapter) Backend() snapshot.Backend { return snapshot.IndexedDB }

// databases enumerates named databases. Without enumeration support the
// list is empty rather than an error.
func (a *indexedDBAdapter) databases(ctx context.Context, idb storage.IndexedDB) ([]storage.DatabaseInfo, error) {
	infos, err := idb.Databases(ctx)
	if errors.Is(err, storage.ErrUnsupported) {
		logging.FromContext(ctx).Debug("database enumeration unavailable", slog.String("backend", string(snapshot.IndexedDB)))
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "listing databases")
	}

	named := infos[:0]
	for _, info := range infos {
		if info.Name != "" {
			named = append(named, info)
		}
	}
	return named, nil
}

func (a *indexedDBAdapter) Capture(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: snapshot.IndexedDB}
	idb := a.idb()
	if idb == nil {
		return res
	}

	infos, err := a.databases(ctx, idb)
	if err != nil {
		res.fail(ctx, err)
		return res
	}

	out := make(map[string]snapshot.Database, len(infos))
	for _, info := range infos {
		db, n, err := captureDatabase(ctx, idb, info.Name, &res)
		if err != nil {
			res.skip(ctx, info.Name, err)
			continue
		}
		out[info.Name] = db
		res.Written += n
	}

	s.IndexedDB = out
	return res
}

func captureDatabase(ctx context.Context, idb storage.IndexedDB, name string, res *Result) (snapshot.Database, int, error) {
	handle, err := idb.Open(ctx, name)
	if err != nil {
		return snapshot.Database{}, 0, errors.Wrapf(err, "opening %s", name)
	}
	defer handle.Close()

	schemas, err := handle.Stores(ctx)
	if err != nil {
		return snapshot.Database{}, 0, errors.Wrapf(err, "reading schema of %s", name)
	}

	db := snapshot.Database{Version: handle.Version(), Stores: make(map[string]snapshot.ObjectStore, len(schemas))}
	var total int
	for _, schema := range schemas {
		store := snapshot.ObjectStore{
			KeyPath:       schema.KeyPath,
			AutoIncrement: schema.AutoIncrement,
			Indexes:       schema.Indexes,
			Records:       []snapshot.Record{},
		}
		outOfLine := schema.KeyPath.IsNone()

		err := handle.Scan(ctx, schema.Name, func(key, value json.RawMessage) error {
			rec := snapshot.Record{Value: append(json.RawMessage(nil), value...)}
			if outOfLine {
				rec.Key = append(json.RawMessage(nil), key...)
			}
			store.Records = append(store.Records, rec)
			return nil
		})
		if err != nil {
			res.skip(ctx, name+"/"+schema.Name, err)
			continue
		}
		db.Stores[schema.Name] = store
		total += len(store.Records)
	}
	return db, total, nil
}

func (a *indexedDBAdapter) Restore(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: snapshot.IndexedDB}
	idb := a.idb()
	if idb == nil || len(s.IndexedDB) == 0 {
		return res
	}

	names := make([]string, 0, len(s.IndexedDB))
	for name := range s.IndexedDB {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res.Written += restoreDatabase(ctx, idb, name, s.IndexedDB[name], &res)
	}
	return res
}

func restoreDatabase(ctx context.Context, idb storage.IndexedDB, name string, db snapshot.Database, res *Result) int {
	logger := logging.FromContext(ctx)

	// a failed delete does not block recreation
	if err := idb.Delete(ctx, name); err != nil {
		level := slog.LevelDebug
		if errors.Is(err, storage.ErrBlocked) {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "deleting database before restore failed", slog.String("backend", string(snapshot.IndexedDB)), slog.String("store", name), slog.Any("error", err))
	}

	storeNames := make([]string, 0, len(db.Stores))
	for n := range db.Stores {
		storeNames = append(storeNames, n)
	}
	sort.Strings(storeNames)

	schemas := make([]storage.StoreSchema, 0, len(storeNames))
	for _, n := range storeNames {
		st := db.Stores[n]
		schemas = append(schemas, storage.StoreSchema{
			Name:          n,
			KeyPath:       st.KeyPath,
			AutoIncrement: st.EffectiveAutoIncrement(),
			Indexes:       st.Indexes,
		})
	}

	handle, err := idb.Create(ctx, name, max(db.Version, 1), schemas)
	if err != nil {
		res.skip(ctx, name, errors.Wrapf(err, "creating %s", name))
		return 0
	}
	defer handle.Close()

	var written int
	for _, n := range storeNames {
		st := db.Stores[n]
		if len(st.Records) == 0 {
			continue
		}

		records := st.Records
		if !st.KeyPath.IsNone() {
			// in-line keys come from the values themselves
			records = make([]snapshot.Record, len(st.Records))
			for i, r := range st.Records {
				records[i] = snapshot.Record{Value: r.Value}
			}
		}

		errs, err := handle.Write(ctx, n, records)
		if err != nil {
			res.skip(ctx, name+"/"+n, errors.Wrapf(err, "writing %s/%s", name, n))
			continue
		}
		for i, recErr := range errs {
			if recErr != nil {
				res.skip(ctx, name+"/"+n+"/"+recordID(st.Records[i], i), recErr)
				continue
			}
			written++
		}
	}
	return written
}

// recordID names a record by its key, or by position when it has none.
func recordID(r snapshot.Record, i int) string {
	if r.HasKey() {
		return string(r.Key)
	}
	return "#" + strconv.Itoa(i)
}

func (a *indexedDBAdapter) Count(ctx context.Context) (int, error) {
	idb := a.idb()
	if idb == nil {
		return 0, nil
	}
	s := snapshot.New(snapshot.Meta{})
	res := a.Capture(ctx, s)
	if res.Err != nil {
		return 0, res.Err
	}
	return res.Written, nil
}

func (a *indexedDBAdapter) Clear(ctx context.Context) Result {
	res := Result{Backend: snapshot.IndexedDB}
	idb := a.idb()
	if idb == nil {
		return res
	}

	infos, err := idb.Databases(ctx)
	if err != nil {
		res.fail(ctx, errors.Wrap(err, "listing databases"))
		return res
	}
	for _, info := range infos {
		if err := idb.Delete(ctx, info.Name); err != nil {
			res.skip(ctx, info.Name, err)
			continue
		}
		res.Written++
	}
	return res
}

package rodpage

import (
	"context"
	"encoding/json"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// jsHelpers is prepended to every IndexedDB script. openDB rejects with
// NotFoundError instead of creating a database when no upgrade callback
// is given, and with BlockedError when another connection holds the
// database open or the request is still queued behind a blocked delete
// after blockWait.
const jsHelpers = `
	const req = (r) => new Promise((resolve, reject) => {
		r.onsuccess = () => resolve(r.result);
		r.onerror = () => reject(r.error);
	});
	const blockWait = ` + blockWaitMillis + `;
	const blocked = (name) => {
		const e = new Error("database " + name + " is held open by another connection");
		e.name = "BlockedError";
		return e;
	};
	const openDB = (name, version, upgrade) => new Promise((resolve, reject) => {
		const r = version ? indexedDB.open(name, version) : indexedDB.open(name);
		let missing = false, upgraded = false, settled = false;
		const fail = (e) => {
			if (settled) return;
			settled = true;
			clearTimeout(timer);
			reject(e);
		};
		const timer = setTimeout(() => fail(blocked(name)), blockWait);
		r.onblocked = () => fail(blocked(name));
		r.onupgradeneeded = () => {
			clearTimeout(timer);
			if (settled) {
				r.transaction.abort();
				return;
			}
			if (upgrade) {
				upgraded = true;
				upgrade(r.result);
				return;
			}
			missing = true;
			r.transaction.abort();
		};
		r.onsuccess = () => {
			const db = r.result;
			if (settled) {
				db.close();
				return;
			}
			settled = true;
			clearTimeout(timer);
			db.upgraded = upgraded;
			resolve(db);
		};
		r.onerror = () => {
			if (missing) {
				const e = new Error("database " + name + " does not exist");
				e.name = "NotFoundError";
				fail(e);
				return;
			}
			fail(r.error);
		};
	});
`

// blockWaitMillis bounds how long openDB waits for a request that fires
// no event, which is what IndexedDB does while a delete is blocked.
const blockWaitMillis = "10000"

func idbScript(body string) string {
	return `async (...args) => {` + jsHelpers + `
	return await (` + body + `)(...args);
}`
}

var (
	scriptDatabases = `async () => {
	if (!indexedDB.databases) {
		const e = new Error("indexedDB.databases is unavailable");
		e.name = "NotSupportedError";
		throw e;
	}
	return (await indexedDB.databases()).map((d) => ({ name: d.name, version: d.version }));
}`

	// scriptDelete settles on blocked too; the delete stays queued and
	// completes once the page closes its connection.
	scriptDelete = `(name) => new Promise((resolve, reject) => {
	const r = indexedDB.deleteDatabase(name);
	r.onsuccess = () => resolve({ blocked: false });
	r.onblocked = () => resolve({ blocked: true });
	r.onerror = () => reject(r.error);
})`

	scriptOpen = idbScript(`async (name) => {
	const db = await openDB(name);
	const v = db.version;
	db.close();
	return v;
}`)

	scriptCreate = idbScript(`async (name, version, stores) => {
	const db = await openDB(name, version, (db) => {
		for (const s of stores) {
			const opts = { autoIncrement: s.autoIncrement };
			if (s.keyPath !== null) opts.keyPath = s.keyPath;
			const os = db.createObjectStore(s.name, opts);
			for (const i of s.indexes || []) {
				os.createIndex(i.name, i.keyPath, { unique: i.unique, multiEntry: i.multiEntry });
			}
		}
	});
	const upgraded = db.upgraded, v = db.version;
	db.close();
	if (!upgraded) {
		const e = new Error("database " + name + " already exists");
		e.name = "ConstraintError";
		throw e;
	}
	return v;
}`)

	scriptStores = idbScript(`async (name) => {
	const db = await openDB(name);
	try {
		const out = [];
		for (const n of Array.from(db.objectStoreNames)) {
			const os = db.transaction(n, "readonly").objectStore(n);
			const indexes = Array.from(os.indexNames).map((i) => {
				const x = os.index(i);
				return { name: x.name, keyPath: x.keyPath, unique: x.unique, multiEntry: x.multiEntry };
			});
			out.push({ name: n, keyPath: os.keyPath, autoIncrement: os.autoIncrement, indexes });
		}
		return out;
	} finally {
		db.close();
	}
}`)

	scriptScan = idbScript(`async (name, store) => {
	const db = await openDB(name);
	try {
		const os = db.transaction(store, "readonly").objectStore(store);
		const [keys, values] = await Promise.all([req(os.getAllKeys()), req(os.getAll())]);
		return { keys, values };
	} finally {
		db.close();
	}
}`)

	scriptWrite = idbScript(`async (name, store, records) => {
	const db = await openDB(name);
	try {
		return await new Promise((resolve) => {
			const tx = db.transaction(store, "readwrite");
			const os = tx.objectStore(store);
			const errors = records.map(() => null);
			records.forEach((r, i) => {
				let q;
				try {
					q = r.hasKey ? os.add(r.value, r.key) : os.add(r.value);
				} catch (e) {
					errors[i] = e.name;
					return;
				}
				q.onerror = (ev) => {
					errors[i] = q.error ? q.error.name : "Error";
					ev.preventDefault();
					ev.stopPropagation();
				};
			});
			tx.oncomplete = () => resolve({ errors });
			tx.onabort = () => resolve({ errors, abort: tx.error ? tx.error.name : "AbortError" });
		});
	} finally {
		db.close();
	}
}`)
)

type factory struct {
	page *Page
}

func (f *factory) Databases(ctx context.Context) ([]storage.DatabaseInfo, error) {
	var list []struct {
		Name    string `json:"name"`
		Version int    `json:"version"`
	}
	if err := f.page.eval(ctx, scriptDatabases, &list); err != nil {
		return nil, errors.Wrap(err, "listing databases")
	}
	out := make([]storage.DatabaseInfo, 0, len(list))
	for _, d := range list {
		out = append(out, storage.DatabaseInfo{Name: d.Name, Version: d.Version})
	}
	return out, nil
}

func (f *factory) Open(ctx context.Context, name string) (storage.Database, error) {
	var version int
	if err := f.page.eval(ctx, scriptOpen, &version, name); err != nil {
		return nil, errors.Wrapf(err, "opening database %q", name)
	}
	return &database{page: f.page, name: name, version: version}, nil
}

// deleteResult is returned by scriptDelete.
type deleteResult struct {
	Blocked bool `json:"blocked"`
}

// Delete returns ErrBlocked when the page holds the database open. The
// deletion is still pending in the page in that case.
func (f *factory) Delete(ctx context.Context, name string) error {
	var res deleteResult
	if err := f.page.eval(ctx, scriptDelete, &res, name); err != nil {
		return errors.Wrapf(err, "deleting database %q", name)
	}
	if res.Blocked {
		return errors.Wrapf(storage.ErrBlocked, "deleting database %q", name)
	}
	return nil
}

func (f *factory) Create(ctx context.Context, name string, version int, stores []storage.StoreSchema) (storage.Database, error) {
	wire := make([]storeWire, 0, len(stores))
	for _, s := range stores {
		wire = append(wire, toWire(s))
	}
	var got int
	if err := f.page.eval(ctx, scriptCreate, &got, name, version, wire); err != nil {
		return nil, errors.Wrapf(err, "creating database %q", name)
	}
	return &database{page: f.page, name: name, version: got}, nil
}

// storeWire is the JSON form of a store schema exchanged with the page.
type storeWire struct {
	Name          string           `json:"name"`
	KeyPath       snapshot.KeyPath `json:"keyPath"`
	AutoIncrement bool             `json:"autoIncrement"`
	Indexes       []snapshot.Index `json:"indexes"`
}

func toWire(s storage.StoreSchema) storeWire {
	idx := s.Indexes
	if idx == nil {
		idx = []snapshot.Index{}
	}
	return storeWire{Name: s.Name, KeyPath: s.KeyPath, AutoIncrement: s.AutoIncrement, Indexes: idx}
}

func (w storeWire) schema() storage.StoreSchema {
	return storage.StoreSchema{Name: w.Name, KeyPath: w.KeyPath, AutoIncrement: w.AutoIncrement, Indexes: w.Indexes}
}

// recordWire is one record sent to scriptWrite.
type recordWire struct {
	HasKey bool            `json:"hasKey"`
	Key    json.RawMessage `json:"key"`
	Value  json.RawMessage `json:"value"`
}

type database struct {
	page    *Page
	name    string
	version int
}

func (d *database) Name() string { return d.name }

func (d *database) Version() int { return d.version }

func (d *database) Close() error { return nil }

func (d *database) Stores(ctx context.Context) ([]storage.StoreSchema, error) {
	var wire []storeWire
	if err := d.page.eval(ctx, scriptStores, &wire, d.name); err != nil {
		return nil, errors.Wrapf(err, "reading schema of %q", d.name)
	}
	out := make([]storage.StoreSchema, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.schema())
	}
	return out, nil
}

// scanResult pairs keys and values returned by getAllKeys and getAll.
type scanResult struct {
	Keys   []json.RawMessage `json:"keys"`
	Values []json.RawMessage `json:"values"`
}

func (d *database) Scan(ctx context.Context, store string, fn storage.ScanFunc) error {
	var res scanResult
	if err := d.page.eval(ctx, scriptScan, &res, d.name, store); err != nil {
		return errors.Wrapf(err, "reading store %q", store)
	}
	if len(res.Keys) != len(res.Values) {
		return errors.Newf("store %q returned %d keys for %d values", store, len(res.Keys), len(res.Values))
	}
	for i := range res.Keys {
		if err := fn(res.Keys[i], res.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeResult is returned by scriptWrite.
type writeResult struct {
	Errors []*string `json:"errors"`
	Abort  string    `json:"abort"`
}

func (d *database) Write(ctx context.Context, store string, records []snapshot.Record) ([]error, error) {
	wire := make([]recordWire, len(records))
	for i, r := range records {
		wire[i] = recordWire{HasKey: r.HasKey(), Key: r.Key, Value: r.Value}
		if !r.HasKey() {
			wire[i].Key = json.RawMessage("null")
		}
		if len(r.Value) == 0 {
			wire[i].Value = json.RawMessage("null")
		}
	}

	var res writeResult
	if err := d.page.eval(ctx, scriptWrite, &res, d.name, store, wire); err != nil {
		return nil, errors.Wrapf(err, "writing store %q", store)
	}
	return res.itemErrors(len(records)), res.abortError()
}

func (r writeResult) itemErrors(n int) []error {
	out := make([]error, n)
	for i := 0; i < n && i < len(r.Errors); i++ {
		if r.Errors[i] != nil {
			out[i] = scriptError(*r.Errors[i], "record rejected")
		}
	}
	return out
}

func (r writeResult) abortError() error {
	if r.Abort == "" {
		return nil
	}
	return scriptError(r.Abort, "transaction aborted")
}

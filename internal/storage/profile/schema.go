package profile

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS origin (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS kv (
	area  TEXT    NOT NULL,
	pos   INTEGER NOT NULL,
	key   TEXT    NOT NULL,
	value TEXT    NOT NULL,
	PRIMARY KEY (area, key)
);
CREATE TABLE IF NOT EXISTS cookies (
	pos   INTEGER PRIMARY KEY,
	name  TEXT NOT NULL,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS idb_databases (
	name    TEXT PRIMARY KEY,
	version INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS idb_stores (
	db             TEXT    NOT NULL REFERENCES idb_databases(name) ON DELETE CASCADE,
	name           TEXT    NOT NULL,
	key_path       TEXT    NOT NULL,
	auto_increment INTEGER NOT NULL,
	indexes        TEXT    NOT NULL,
	PRIMARY KEY (db, name)
);
CREATE TABLE IF NOT EXISTS idb_records (
	db    TEXT    NOT NULL,
	store TEXT    NOT NULL,
	pos   INTEGER NOT NULL,
	key   TEXT    NOT NULL,
	value TEXT    NOT NULL,
	PRIMARY KEY (db, store, pos),
	FOREIGN KEY (db, store) REFERENCES idb_stores(db, name) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS caches (
	name TEXT PRIMARY KEY,
	pos  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_entries (
	cache       TEXT    NOT NULL REFERENCES caches(name) ON DELETE CASCADE,
	pos         INTEGER NOT NULL,
	url         TEXT    NOT NULL,
	method      TEXT    NOT NULL,
	status      INTEGER NOT NULL,
	status_text TEXT    NOT NULL,
	headers     TEXT    NOT NULL,
	body        BLOB,
	PRIMARY KEY (cache, pos)
);
CREATE TABLE IF NOT EXISTS service_workers (
	pos          INTEGER PRIMARY KEY,
	scope        TEXT NOT NULL UNIQUE,
	registration TEXT NOT NULL
);
`

// tables lists every data table in delete order.
var tables = []string{
	"idb_records", "idb_stores", "idb_databases",
	"cache_entries", "caches",
	"kv", "cookies", "service_workers", "origin",
}

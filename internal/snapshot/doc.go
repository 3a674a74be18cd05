// Package snapshot defines the canonical in-memory representation of an
// origin's client-side state and its textual (JSON) form.
//
// A [Snapshot] holds one container per backend kind plus [Meta]. Every
// container is always initialised, so a disabled or empty backend is
// serialised as an empty object or array rather than omitted:
//
//	{
//	  "meta":           {"host": "example.com", "version": "4.0", ...},
//	  "localStorage":   {"theme": "dark"},
//	  "sessionStorage": {},
//	  "cookies":        {"sid": "abc"},
//	  "indexedDB":      {"app": {"version": 3, "stores": {...}}},
//	  "cacheStorage":   {"v1": [{"url": "...", "body": "..."}]},
//	  "serviceWorkers": []
//	}
//
// # IndexedDB stores
//
// Object stores have two accepted shapes. Older artifacts store a plain
// array of values; current artifacts store the keyed form:
//
//	{"keyPath": "id", "autoIncrement": false, "indexes": [], "data": [{"key": 1, "value": {...}}]}
//
// [Unmarshal] normalises the legacy array into the keyed form immediately:
// records get no key, the key path is none and auto-increment is on.
// [ObjectStore.Legacy] records that the store was converted.
//
// # Legacy metadata
//
// Artifacts written by older agents carry "_meta" with a "hostname" field
// instead of "meta". Both are accepted; "meta" wins when both are present.
package snapshot

// Package memory implements storage.Storage on top of in-process concurrent maps
// (xsync.MapOf, one map per namespace). Nothing is persisted; all data is lost on
// Close.
//
// Guarantees:
//   - Safe for concurrent use by multiple goroutines
//   - Count is exact
//   - IterateAll walks the live map; concurrent writes may or may not be observed
//   - Values are copied on put and on get, callers never share memory with the store
package memory

// Package badger implements storage.Storage on an embedded LSM tree
// (github.com/dgraph-io/badger/v4). All namespaces share one database and are kept
// apart by a short key prefix.
//
// Guarantees:
//   - Safe for concurrent use; every put and remove is its own transaction
//   - Count is exact (key-only scan of the namespace prefix)
//   - IterateAll is a point-in-time snapshot taken when the loop starts
//   - Read-only mode rejects writes with CodeUnsupported
//
// In read-write mode a background goroutine runs value log garbage collection
// until the storage is closed. The cache size parameter sets the block cache size.
package badger

// Package lmdb implements storage.Storage on an embedded, memory mapped B+tree file
// (go.etcd.io/bbolt). The database lives in one file inside the configured
// directory; every namespace is a bucket.
//
// Guarantees:
//   - Concurrent readers, serialized writers; every put and remove is its own transaction
//   - Count is exact
//   - IterateAll is a point-in-time snapshot taken when the loop starts
//   - Read-only mode opens the file with a shared lock; writes return CodeUnsupported
//   - Opening a file that is already opened for writing fails with CodeMedium after a
//     short lock timeout instead of blocking
//
// The cache size parameter is passed to the initial memory map size.
package lmdb

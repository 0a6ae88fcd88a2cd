// Package storage defines the backend-neutral key/value contract used throughout v-storage.
//
// The package focuses on:
//   - A single capability interface (Storage) implemented by every backend and every
//     dispatch wrapper, so application code never touches a backend's native API
//   - The closed set of namespaces (StorageID) a key lives in
//   - A uniform outcome model (ResultCode, Error, Result) that keeps "not found"
//     distinct from real failures
//
// Key Components:
//
//   - Storage Interface: put, get, remove, count and iterate over one namespace.
//     Removing an absent key succeeds. Count precision is defined by each backend and
//     documented in its package. IterateAll returns a lazy one-shot iter.Seq2.
//
//   - Error System: every failing operation returns a *Error carrying a ResultCode.
//     CodeOf maps any error to its code, errors.Is(err, ErrNotFound) matches by code.
//
//   - Legacy: an adapter offering the older boolean and value-or-nil call shapes on
//     top of any Storage.
//
// Implementations:
//
//   - engines/memory: in-process maps, exact count
//   - engines/lmdb: embedded B+tree file (bbolt), exact count, snapshot iteration
//   - engines/badger: embedded LSM file, exact count, snapshot iteration
//   - engines/tarantool: Tarantool server spaces
//   - rpc/client: a remote v-storage server reached over the rpc transport
package storage

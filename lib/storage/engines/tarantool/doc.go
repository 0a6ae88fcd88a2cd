// Package tarantool implements storage.Storage on a Tarantool server
// (github.com/tarantool/go-tarantool/v2). Every namespace is a space of
// [key, value] tuples with the key as primary index; by default the spaces
// 512 (individuals), 513 (tickets) and 514 (az) are used.
//
// Guarantees:
//   - Safe for concurrent use; requests are multiplexed over one connection
//   - Every request is bounded by the configured timeout; a timeout is a MediumError
//   - Count is space:len(): exact for memtx, an estimate for vinyl
//   - IterateAll pages through the primary index; the view is live, not a snapshot
//
// PutValue stores msgpack strings and PutRawValue stores msgpack binary; reads
// accept both.
package tarantool

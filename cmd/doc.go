// Package cmd implements the vstorage command-line interface. It can host any
// storage backend over the network and run key-value operations against a
// backend, either directly or through a remote server.
//
// The package is organized into several subpackages:
//
//   - kv: put, get, remove, count, individual, dump and perf
//   - serve: Starts a server hosting the configured backend
//   - util: Shared flag and configuration handling (internal use)
//
// See vstorage -help for a list of all commands.
package cmd

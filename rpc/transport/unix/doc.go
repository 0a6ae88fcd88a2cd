// Package unix plugs Unix domain sockets into the base transport, for a storage
// server on the same host. A stale socket file left by a crashed server is removed
// before listening.
//
// The default server read buffer is 64 KB.
package unix

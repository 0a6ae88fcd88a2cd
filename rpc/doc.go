// Package rpc exposes a storage backend over the network and provides the client
// that makes such a backend usable as a regular storage.Storage.
//
// The package is organized into several subpackages:
//
//   - common: the Message protocol, client and server configuration, address
//     parsing and the logger factory.
//
//   - transport: framed request/response transports over TCP, Unix sockets
//     and HTTP. Every request carries a route, which is the storage namespace.
//
//   - serializer: converts a Message to bytes and back (binary, JSON, GOB, msgpack).
//
//   - client: RPCStorage, the remote storage backend.
//
//   - server: RPCServer, which routes decoded requests to one hosted backend.
package rpc

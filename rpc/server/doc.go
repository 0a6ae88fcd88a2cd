// Package server exposes one storage.Storage over an RPC transport.
//
// Every request frame carries the namespace as its route; the message itself holds
// the operation. The storage adapter maps put, get, remove, count, keys and ping
// messages to the backend and returns failures as responses whose Code is the
// storage.ResultCode of the failure, so that clients restore the same error class.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface for the translation of messages into backend calls.
//
//   - NewStorageServerAdapter: The adapter for storage.Storage.
//
//   - NewRPCServer: Creates a server for a transport, a serializer and a backend.
//     Request counts and latencies are recorded with github.com/VictoriaMetrics/metrics
//     and served on ServerConfig.MetricsEndpoint when it is set.
//
//   - NewTransport: Picks the transport for a listen address (tcp://, unix://, http://).
//
// Usage Example:
//
//	t, endpoint, err := server.NewTransport("tcp://0.0.0.0:9000")
//	config := common.ServerConfig{TimeoutSecond: 5}
//	config.Transport.Endpoint = endpoint
//
//	s := server.NewRPCServer(config, t, serializer.NewBinarySerializer(), backend)
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Requests are handled concurrently, the backend must be safe for concurrent use.
//	Listen or Serve must be called only once.
package server

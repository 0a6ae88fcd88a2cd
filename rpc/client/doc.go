// Package client implements the remote storage backend. RPCStorage satisfies
// storage.Storage and forwards every operation to an RPCServer.
//
// Errors reported by the server keep their storage.ResultCode, so a NotFound on the
// server is a NotFound on the client. Failures of the transport itself (refused
// connections, timeouts, a closed client) are reported as storage.CodeMedium and
// undecodable payloads as storage.CodeSerialization.
//
// Usage Example:
//
//	remote, err := client.Dial("tcp://127.0.0.1:9000", common.ClientConfig{TimeoutSecond: 5}, nil)
//	if err != nil {
//		return err
//	}
//	defer remote.Close()
//
//	if err := remote.PutValue(storage.Individuals, "d:a", "..."); err != nil {
//		return err
//	}
//	n, _ := remote.Count(storage.Individuals)
//
// All methods are safe for concurrent use. ConnectionsPerEndpoint > 1 spreads
// concurrent requests over several connections, which mostly pays off for large
// values.
package client

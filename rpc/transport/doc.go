// Package transport defines the contract of the RPC transports. A transport moves
// opaque request and response payloads; each request carries a route that the
// server passes on to its handler. The rpc server uses the route as storage
// namespace.
//
// Key Components:
//
//   - IRPCClientTransport: connects to one or more endpoints and sends requests.
//
//   - IRPCServerTransport: binds an endpoint and answers requests with the
//     registered ServerHandleFunc.
//
//   - ErrTimeout / ErrClosed: failures every implementation reports the same way.
package transport

// Package base implements the stream transport shared by the tcp and unix packages.
// The protocol specific parts (dialing, listening, socket options) are injected as
// IClientConnector and IServerConnector.
//
// Every message is a frame:
//
//	route (8 bytes) | request id (8 bytes) | length (4 bytes) | payload
//
// The request id correlates responses with requests, so a connection carries many
// requests at once and the server may answer them out of order.
//
// Client:
//
//   - Requests are spread round robin over ConnectionsPerEndpoint connections per endpoint.
//   - A broken connection fails its pending requests and is restored in the background
//     with exponential backoff.
//   - RetryCount > 1 retries failed requests with jittered backoff.
//
// Server:
//
//   - Requests of all connections run on one ants worker pool. A full pool blocks the
//     reading connection.
//   - Read buffers are pooled. Payloads larger than the buffer get their own allocation.
//   - Close waits until all running handlers returned.
package base

// Package http implements the RPC transports on top of net/http. A request is a
// POST to /<route> with the serialized message as body, the response body is the
// serialized answer.
//
// The client spreads requests round robin over its endpoints and retries failed
// requests RetryCount times. The server logs every request at debug level.
//
// HTTP is the slowest of the transports but passes through proxies and load
// balancers unchanged.
package http

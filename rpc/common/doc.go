// Package common provides the types shared by the RPC client and server.
//
// Key Components:
//
//   - Message: the single wire structure of all requests and responses. The
//     factory functions (NewPutRequest, NewGetResponse, ...) fill only the fields
//     the operation uses. Failed responses carry the storage.ResultCode in Code and
//     the error text in Err so the client can rebuild the error on its side.
//
//   - MessageType: put, get, remove, count, keys and ping plus the generic
//     success and error responses.
//
//   - ServerConfig / ClientConfig: transport, timeout and socket settings. Both
//     render themselves for debug logs via String().
//
//   - ParseAddress: splits tcp://, unix:// and http:// addresses.
//
//   - Logger: a dragonboat compatible logger factory, see InitLoggers.
package common

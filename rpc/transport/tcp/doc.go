// Package tcp plugs TCP sockets into the base transport. The socket options of
// common.SocketConf (no delay, keep alive, linger and buffer sizes) are applied on
// both sides of a connection.
//
// The default server read buffer is 512 KB.
package tcp

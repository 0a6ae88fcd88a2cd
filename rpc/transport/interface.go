package transport

import (
	"errors"

	"github.com/semantic-machines/v-storage/rpc/common"
)

var (
	// ErrTimeout is returned by Send when no response arrived within the configured timeout
	ErrTimeout = errors.New("request timed out")
	// ErrClosed is returned by Send after Close
	ErrClosed = errors.New("transport is closed")
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes the route (the storage namespace of the request) and the request as
// parameters and returns a response
type ServerHandleFunc func(route uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the configured endpoint and serves requests in the background
	// until Close is called. Errors binding the endpoint are returned directly.
	Listen(config common.ServerConfig) error
	// Addr returns the bound address, it is empty before Listen succeeded
	Addr() string
	// Close stops accepting requests and waits for the running handlers
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(route uint64, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}

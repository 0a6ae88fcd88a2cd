package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Socket options (shared by client and server)
// --------------------------------------------------------------------------

// SocketConf holds the options applied to every tcp connection. Unix sockets and
// http ignore them.
type SocketConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int // < 0 keeps the os default
	WriteBufferSize int // socket buffer in bytes, 0 keeps the os default
	ReadBufferSize  int // socket buffer in bytes, 0 keeps the os default
}

// DefaultSocketConf returns the options used when nothing else is configured
func DefaultSocketConf() SocketConf {
	return SocketConf{
		TCPNoDelay:      true,
		TCPKeepAliveSec: 30,
		TCPLingerSec:    -1,
	}
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the settings of the listening side of a transport
type ServerTransportConfig struct {
	// Endpoint is the address to listen on: host:port for tcp and http, a socket path for unix
	Endpoint string
	// Workers bounds the number of requests processed concurrently over all connections
	Workers int
	// BufferSize is the size of the pooled read buffers in bytes
	BufferSize int
	SocketConf
}

// ServerConfig holds all configuration parameters of a storage server.
type ServerConfig struct {
	Transport ServerTransportConfig

	// TimeoutSecond bounds writing a response, 0 disables the deadline
	TimeoutSecond int64
	// IdleTimeoutSecond closes connections without a request for that long, 0 keeps them open
	IdleTimeoutSecond int64

	// Storage describes the hosted backend (only used for String)
	Storage string

	// MetricsEndpoint is the address the metrics are served on, empty disables it
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Workers", strconv.Itoa(c.Transport.Workers))
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Transport.BufferSize))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Idle Timeout", fmt.Sprintf("%d sec", c.IdleTimeoutSecond))
	addSocketFields(addField, c.Transport.SocketConf)

	// Backend
	addSection("Storage")
	addField("Backend", c.Storage)

	// Observability
	addSection("Logging")
	addField("Log Level", c.LogLevel)
	if c.MetricsEndpoint != "" {
		addField("Metrics", c.MetricsEndpoint)
	} else {
		addField("Metrics", "disabled")
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings of the connecting side of a transport
type ClientTransportConfig struct {
	Endpoints []string
	// RetryCount is the number of attempts per request, values below 1 mean a single attempt
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
}

// ClientConfig holds the configuration of a storage client
type ClientConfig struct {
	Transport ClientTransportConfig
	// TimeoutSecond bounds every request, 0 waits forever
	TimeoutSecond int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(max(1, c.Transport.RetryCount)))
	addField("Conns Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))
	addSocketFields(addField, c.Transport.SocketConf)

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

func addSocketFields(addField func(name, value string), s SocketConf) {
	addField("TCP No Delay", strconv.FormatBool(s.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", s.TCPKeepAliveSec))
	if s.TCPLingerSec >= 0 {
		addField("TCP Linger", fmt.Sprintf("%d sec", s.TCPLingerSec))
	}
}

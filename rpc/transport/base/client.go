package base

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/transport"
)

const (
	// defaultDialTimeout is used when the client has no request timeout
	defaultDialTimeout = 5 * time.Second
	// maxReconnectBackoff caps the pause between reconnect attempts
	maxReconnectBackoff = 5 * time.Second
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection. A reader goroutine
// distributes the responses and restores the connection when it breaks.
type clientConnection struct {
	endpoint     string
	parent       *clientTransport
	requestChans *xsync.MapOf[uint64, chan responseResult]
	stopCh       chan struct{} // Close signal for the reader goroutine
	stopOnce     sync.Once

	connMu sync.Mutex // Protects conn and serializes writes
	conn   net.Conn   // nil while reconnecting
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Round Robin counter
	nextRequestID atomic.Uint64 // unique request IDs
	stopping      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()

	t.config = config
	t.stopping.Store(false)

	connectionsPerEP := max(1, config.Transport.ConnectionsPerEndpoint)
	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)

	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				endpoint:     endpoint,
				stopCh:       make(chan struct{}),
				requestChans: xsync.NewMapOf[uint64, chan responseResult](),
				parent:       t,
			}

			conn, err := clientConn.dial()
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			clientConn.conn = conn
			connections = append(connections, clientConn)

			Logger.Debugf("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)

			go clientConn.readResponses(conn)
		}
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Connected to %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Transport.Endpoints)*connectionsPerEP, len(config.Transport.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(route uint64, req []byte) (resp []byte, err error) {
	if t.stopping.Load() {
		return nil, transport.ErrClosed
	}

	// We always try at least once, and up to RetryCount times
	maxAttempts := max(1, t.config.Transport.RetryCount)

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		conn := t.getNextConnection()
		if conn == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		data, err := conn.send(route, req)
		if err == nil {
			return data, nil
		}
		if t.stopping.Load() {
			return nil, transport.ErrClosed
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxAttempts, err)

		if i+1 < maxAttempts {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	if maxAttempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxAttempts, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	switch len(t.connections) {
	case 0:
		return nil
	case 1:
		return t.connections[0]
	default:
		return t.connections[t.nextConnIndex.Add(1)%uint64(len(t.connections))]
	}
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		c.stop()
	}
}

// timeout returns the configured request timeout, 0 means none
func (t *clientTransport) timeout() time.Duration {
	return time.Duration(t.config.TimeoutSecond) * time.Second
}

// send writes one request and waits for its response
func (c *clientConnection) send(route uint64, req []byte) ([]byte, error) {
	requestID := c.parent.nextRequestID.Add(1)

	// buffered so the reader never blocks on an abandoned request
	respCh := make(chan responseResult, 1)
	c.requestChans.Store(requestID, respCh)
	defer c.requestChans.Delete(requestID)

	timeout := c.parent.timeout()

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		return nil, fmt.Errorf("connection to %s is not established", c.endpoint)
	}
	var wd time.Time
	if timeout > 0 {
		wd = time.Now().Add(timeout)
	}
	err := c.conn.SetWriteDeadline(wd)
	if err == nil {
		err = writeFrame(c.conn, route, requestID, req)
	}
	c.connMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write request to %s: %v", c.endpoint, err)
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, transport.ErrTimeout
	case <-c.stopCh:
		return nil, transport.ErrClosed
	}
}

// readResponses reads responses in a loop and distributes them to waiting requests
func (c *clientConnection) readResponses(conn net.Conn) {
	for {
		_, requestID, data, err := readFrame(conn, nil)
		if err != nil {
			c.failPending(fmt.Errorf("error reading response from %s: %v", c.endpoint, err))

			select {
			case <-c.stopCh:
				return
			default:
			}

			Logger.Warningf("Lost connection to %s: %v", c.endpoint, err)
			if conn = c.reconnect(); conn == nil {
				return
			}
			continue
		}

		if respCh, found := c.requestChans.LoadAndDelete(requestID); found {
			respCh <- responseResult{data: data}
		} else {
			// the request timed out before the response arrived
			Logger.Debugf("Received response for unknown request ID %d", requestID)
		}
	}
}

// failPending fails all requests that wait for a response on this connection
func (c *clientConnection) failPending(err error) {
	c.requestChans.Range(func(id uint64, respCh chan responseResult) bool {
		if _, ok := c.requestChans.LoadAndDelete(id); ok {
			respCh <- responseResult{err: err}
		}
		return true
	})
}

// reconnect restores the connection with exponential backoff. It returns nil if
// the connection was stopped meanwhile.
func (c *clientConnection) reconnect() net.Conn {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	backoff := 50 * time.Millisecond
	for {
		conn, err := c.dial()
		if err == nil {
			c.connMu.Lock()
			select {
			case <-c.stopCh:
				c.connMu.Unlock()
				conn.Close()
				return nil
			default:
			}
			c.conn = conn
			c.connMu.Unlock()
			Logger.Infof("Reconnected to %s", c.endpoint)
			return conn
		}

		Logger.Debugf("Failed to reconnect to %s: %v", c.endpoint, err)
		select {
		case <-c.stopCh:
			return nil
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, maxReconnectBackoff)
	}
}

// dial opens and upgrades a new connection to the endpoint
func (c *clientConnection) dial() (net.Conn, error) {
	timeout := c.parent.timeout()
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	conn, err := c.parent.connector.Connect(c.endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", c.endpoint, err)
	}

	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %v", c.endpoint, err)
	}
	return conn, nil
}

// stop ends the reader goroutine and closes the connection
func (c *clientConnection) stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.failPending(transport.ErrClosed)
}

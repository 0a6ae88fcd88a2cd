package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/panjf2000/ants/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/transport"
)

var Logger = logger.GetLogger("transport/rpc")

// DefaultWorkers is the size of the worker pool if the config does not set one
const DefaultWorkers = 256

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality.
// Requests of all connections are processed by one shared worker pool.
type serverTransport struct {
	connector         IServerConnector
	handler           transport.ServerHandleFunc
	config            common.ServerConfig
	defaultBufferSize int

	listener   net.Listener
	workers    *ants.Pool
	bufferPool *sync.Pool
	conns      *xsync.MapOf[net.Conn, struct{}]
	connWg     sync.WaitGroup
	connMu     sync.Mutex // orders connWg.Add against Close
	closed     atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport. defaultBufferSize is
// used when the config does not set a buffer size.
func NewBaseServerTransport(connector IServerConnector, defaultBufferSize int) transport.IRPCServerTransport {
	return &serverTransport{
		connector:         connector,
		defaultBufferSize: defaultBufferSize,
		conns:             xsync.NewMapOf[net.Conn, struct{}](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config

	bufferSize := config.Transport.BufferSize
	if bufferSize <= 0 {
		bufferSize = t.defaultBufferSize
	}
	t.bufferPool = &sync.Pool{
		New: func() interface{} {
			return make([]byte, bufferSize)
		},
	}

	workers := config.Transport.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	// a full pool blocks the submitting connection, which is the backpressure
	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %v", err)
	}
	t.workers = pool

	listener, err := t.connector.Listen(config)
	if err != nil {
		pool.Release()
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listener = listener

	Logger.Infof("Starting %s server on %s with %d workers and %d byte buffers",
		t.connector.GetName(), listener.Addr().String(), workers, bufferSize)

	go t.acceptLoop()
	return nil
}

func (t *serverTransport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

func (t *serverTransport) Close() error {
	t.connMu.Lock()
	wasClosed := t.closed.Swap(true)
	t.connMu.Unlock()
	if wasClosed || t.listener == nil {
		return nil
	}

	err := t.listener.Close()

	// unblock all readers, the handlers of a connection finish before its goroutine returns
	t.conns.Range(func(conn net.Conn, _ struct{}) bool {
		conn.Close()
		return true
	})
	t.connWg.Wait()
	t.workers.Release()

	Logger.Infof("Stopped %s server", t.connector.GetName())
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) acceptLoop() {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		t.connMu.Lock()
		if t.closed.Load() {
			t.connMu.Unlock()
			conn.Close()
			return
		}
		t.conns.Store(conn, struct{}{})
		t.connWg.Add(1)
		t.connMu.Unlock()

		go t.handleConnection(conn)
	}
}

// handleConnection handles incoming requests for one connection
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer t.connWg.Done()
	defer t.conns.Delete(conn)
	defer conn.Close()

	// in flight requests of this connection
	var wg sync.WaitGroup

	// Create a mutex to protect writes to the connection
	var connMutex sync.Mutex

	handleResponse := func(route, requestID uint64, data []byte) {
		start := time.Now()
		resp := t.handler(route, data)
		Logger.Debugf("Processed request %d for route %d in %s", requestID, route, time.Since(start))

		connMutex.Lock()
		defer connMutex.Unlock()

		if err := conn.SetWriteDeadline(deadline(t.config.TimeoutSecond)); err != nil {
			Logger.Errorf("Failed to set write deadline: %v", err)
			return
		}

		// Write the response with the same requestID
		if err := writeFrame(conn, route, requestID, resp); err != nil {
			Logger.Errorf("Failed to write response: %v", err)
		}
	}

	handleRequest := func() error {
		if err := conn.SetReadDeadline(deadline(t.config.IdleTimeoutSecond)); err != nil {
			return fmt.Errorf("failed to set read deadline: %v", err)
		}

		buf := t.bufferPool.Get().([]byte)

		route, requestID, data, err := readFrame(conn, buf)
		if err != nil {
			t.bufferPool.Put(buf)
			return err
		}

		wg.Add(1)
		err = t.workers.Submit(func() {
			defer wg.Done()
			defer t.bufferPool.Put(buf)
			handleResponse(route, requestID, data)
		})
		if err != nil {
			wg.Done()
			t.bufferPool.Put(buf)
			return fmt.Errorf("failed to schedule request: %v", err)
		}
		return nil
	}

	for {
		err := handleRequest()

		if err == io.EOF {
			Logger.Debugf("Connection closed by client")
			break
		}

		if err != nil {
			if !t.closed.Load() {
				Logger.Warningf("Closing connection from %s: %v", conn.RemoteAddr(), err)
			}
			break
		}
	}

	// Wait for all workers to finish before closing the connection
	wg.Wait()
}

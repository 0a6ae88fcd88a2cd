package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/transport"
)

// NewHttpClientTransport creates a client transport that posts every request to
// <endpoint>/<route>
func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	conn    atomic.Pointer[httpConnection] // nil while not connected or closed
	counter atomic.Uint32
}

// httpConnection is never modified after Connect, Close swaps it out
type httpConnection struct {
	serverURLs []*url.URL
	client     *http.Client
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	parsedURLs := make([]*url.URL, len(config.Transport.Endpoints))
	for i, server := range config.Transport.Endpoints {
		if !strings.Contains(server, "://") {
			server = "http://" + server
		}
		parsedURL, err := url.Parse(strings.TrimSuffix(server, "/"))
		if err != nil {
			return err
		}
		parsedURLs[i] = parsedURL
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	conn := &httpConnection{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: max(10, config.Transport.ConnectionsPerEndpoint),
				IdleConnTimeout:     90 * time.Second,
			},
		},
		serverURLs: parsedURLs,
		retryCount: max(1, config.Transport.RetryCount),
	}
	if old := t.conn.Swap(conn); old != nil {
		old.client.CloseIdleConnections()
	}

	Logger.Infof("Using http transport with %d endpoints", len(parsedURLs))
	return nil
}

func (t *httpClientTransport) Send(route uint64, req []byte) (resp []byte, err error) {
	conn := t.conn.Load()
	if conn == nil {
		return nil, transport.ErrClosed
	}

	// Select the next server via round-robin
	idx := t.counter.Add(1) % uint32(len(conn.serverURLs))
	requestURL := fmt.Sprintf("%s/%d", conn.serverURLs[idx].String(), route)

	for i := 0; i < conn.retryCount; i++ {
		if i > 0 && t.conn.Load() != conn {
			return nil, transport.ErrClosed
		}
		resp, err = conn.post(requestURL, req)
		if err == nil {
			return resp, nil
		}
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, conn.retryCount, err)
	}
	return nil, err
}

// Close stops new requests. Requests already in flight finish on the old client.
func (t *httpClientTransport) Close() error {
	if conn := t.conn.Swap(nil); conn != nil {
		conn.client.CloseIdleConnections()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// post sends one request, the body is recreated for every attempt
func (c *httpConnection) post(requestURL string, req []byte) ([]byte, error) {
	httpResponse, err := c.client.Post(requestURL, "application/octet-stream", bytes.NewReader(req))
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return nil, transport.ErrTimeout
		}
		return nil, err
	}
	defer func() {
		if err := httpResponse.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", httpResponse.Status)
	}
	return io.ReadAll(httpResponse.Body)
}

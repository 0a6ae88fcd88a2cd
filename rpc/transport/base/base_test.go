package base_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/transport"
	"github.com/semantic-machines/v-storage/rpc/transport/tcp"
	"github.com/semantic-machines/v-storage/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo answers with the route followed by the request
func echo(route uint64, req []byte) []byte {
	return append(binary.BigEndian.AppendUint64(nil, route), req...)
}

type pair struct {
	name      string
	server    func() transport.IRPCServerTransport
	client    func() transport.IRPCClientTransport
	endpoint  func(t *testing.T) string
	dialpoint func(srv transport.IRPCServerTransport) string
}

var pairs = []pair{
	{
		name:      "tcp",
		server:    tcp.NewTCPServerTransport,
		client:    tcp.NewTCPClientTransport,
		endpoint:  func(*testing.T) string { return "127.0.0.1:0" },
		dialpoint: func(srv transport.IRPCServerTransport) string { return srv.Addr() },
	},
	{
		name:      "unix",
		server:    unix.NewUnixServerTransport,
		client:    unix.NewUnixClientTransport,
		endpoint:  func(t *testing.T) string { return filepath.Join(t.TempDir(), "t.sock") },
		dialpoint: func(srv transport.IRPCServerTransport) string { return srv.Addr() },
	},
}

func listen(t *testing.T, p pair, endpoint string, handler transport.ServerHandleFunc) transport.IRPCServerTransport {
	t.Helper()
	srv := p.server()
	srv.RegisterHandler(handler)
	config := common.ServerConfig{TimeoutSecond: 5}
	config.Transport.Endpoint = endpoint
	config.Transport.Workers = 4
	config.Transport.SocketConf = common.DefaultSocketConf()
	require.NoError(t, srv.Listen(config))
	return srv
}

func connect(t *testing.T, p pair, endpoint string, timeoutSec, conns int) transport.IRPCClientTransport {
	t.Helper()
	c := p.client()
	config := common.ClientConfig{TimeoutSecond: timeoutSec}
	config.Transport.Endpoints = []string{endpoint}
	config.Transport.ConnectionsPerEndpoint = conns
	config.Transport.SocketConf = common.DefaultSocketConf()
	require.NoError(t, c.Connect(config))
	return c
}

func TestRoundTrip(t *testing.T) {
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			srv := listen(t, p, p.endpoint(t), echo)
			defer srv.Close()
			c := connect(t, p, p.dialpoint(srv), 5, 2)
			defer c.Close()

			resp, err := c.Send(2, []byte("hello"))
			require.NoError(t, err)
			assert.Equal(t, echo(2, []byte("hello")), resp)

			// empty and large payloads
			resp, err = c.Send(1, nil)
			require.NoError(t, err)
			assert.Equal(t, echo(1, nil), resp)

			large := bytes.Repeat([]byte{7}, 2<<20)
			resp, err = c.Send(0, large)
			require.NoError(t, err)
			assert.Equal(t, echo(0, large), resp)
		})
	}
}

func TestConcurrentRequests(t *testing.T) {
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			srv := listen(t, p, p.endpoint(t), echo)
			defer srv.Close()
			c := connect(t, p, p.dialpoint(srv), 5, 3)
			defer c.Close()

			var wg sync.WaitGroup
			errs := make(chan error, 16*50)
			for g := 0; g < 16; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						req := []byte(fmt.Sprintf("%d-%d", g, i))
						resp, err := c.Send(uint64(g%3), req)
						if err != nil {
							errs <- err
							continue
						}
						if !bytes.Equal(resp, echo(uint64(g%3), req)) {
							errs <- fmt.Errorf("response for %s does not match: %q", req, resp)
						}
					}
				}(g)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Error(err)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	p := pairs[0]
	release := make(chan struct{})
	srv := listen(t, p, p.endpoint(t), func(route uint64, req []byte) []byte {
		<-release
		return req
	})
	defer srv.Close()
	defer close(release)

	c := connect(t, p, p.dialpoint(srv), 1, 1)
	defer c.Close()

	start := time.Now()
	_, err := c.Send(0, []byte("slow"))
	assert.ErrorIs(t, err, transport.ErrTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestReconnect(t *testing.T) {
	p := pairs[1]
	endpoint := p.endpoint(t)

	srv := listen(t, p, endpoint, echo)
	c := connect(t, p, endpoint, 2, 1)
	defer c.Close()

	_, err := c.Send(0, []byte("before"))
	require.NoError(t, err)

	// restart the server on the same socket
	require.NoError(t, srv.Close())
	srv = listen(t, p, endpoint, echo)
	defer srv.Close()

	require.Eventually(t, func() bool {
		resp, err := c.Send(0, []byte("after"))
		return err == nil && bytes.Equal(resp, echo(0, []byte("after")))
	}, 5*time.Second, 50*time.Millisecond)
}

func TestClose(t *testing.T) {
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			srv := listen(t, p, p.endpoint(t), echo)
			c := connect(t, p, p.dialpoint(srv), 1, 1)

			require.NoError(t, c.Close())
			_, err := c.Send(0, []byte("x"))
			assert.ErrorIs(t, err, transport.ErrClosed)

			require.NoError(t, srv.Close())
			require.NoError(t, srv.Close())

			// nothing listens anymore
			c = p.client()
			config := common.ClientConfig{TimeoutSecond: 1}
			config.Transport.Endpoints = []string{p.dialpoint(srv)}
			assert.Error(t, c.Connect(config))
		})
	}
}

func TestConnectWithoutEndpoints(t *testing.T) {
	for _, p := range pairs {
		assert.Error(t, p.client().Connect(common.ClientConfig{}))
	}
}

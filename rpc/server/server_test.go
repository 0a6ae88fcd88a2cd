package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/storage/engines/memory"
	storagetesting "github.com/semantic-machines/v-storage/lib/storage/testing"
	"github.com/semantic-machines/v-storage/rpc/client"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
	"github.com/semantic-machines/v-storage/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer serves a fresh memory storage on address and returns the server and
// the address a client can dial
func startServer(t testing.TB, address string, config common.ServerConfig, ser serializer.IRPCSerializer) (*RPCServer, string) {
	t.Helper()

	tr, endpoint, err := NewTransport(address)
	require.NoError(t, err)
	config.Transport.Endpoint = endpoint
	if config.TimeoutSecond == 0 {
		config.TimeoutSecond = 5
	}

	backend := memory.New()
	s := NewRPCServer(config, tr, ser, backend)
	require.NoError(t, s.Listen())
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
		assert.NoError(t, backend.Close())
	})

	scheme, _, err := common.ParseAddress(address)
	require.NoError(t, err)
	return s, scheme + "://" + s.Addr()
}

func dial(t testing.TB, address string, ser serializer.IRPCSerializer) *client.RPCStorage {
	t.Helper()
	c, err := client.Dial(address, common.ClientConfig{TimeoutSecond: 5}, ser)
	require.NoError(t, err)
	return c
}

func TestRemoteStorage(t *testing.T) {
	cases := []struct {
		name       string
		address    func(t testing.TB) string
		serializer func() serializer.IRPCSerializer
	}{
		{"TCP_Binary", func(testing.TB) string { return "tcp://127.0.0.1:0" }, serializer.NewBinarySerializer},
		{"Unix_Msgpack", func(t testing.TB) string { return "unix://" + filepath.Join(t.TempDir(), "s.sock") }, serializer.NewMsgpackSerializer},
		{"HTTP_JSON", func(testing.TB) string { return "http://127.0.0.1:0" }, serializer.NewJSONSerializer},
		{"TCP_GOB", func(testing.TB) string { return "tcp://127.0.0.1:0" }, serializer.NewGOBSerializer},
	}

	for _, tc := range cases {
		storagetesting.RunStorageTests(t, tc.name, func(t testing.TB) storage.Storage {
			_, addr := startServer(t, tc.address(t), common.ServerConfig{}, tc.serializer())
			return dial(t, addr, tc.serializer())
		}, storagetesting.Options{ExactCount: true})
	}
}

func TestErrorCodesCrossTheWire(t *testing.T) {
	ser := serializer.NewBinarySerializer()
	_, addr := startServer(t, "tcp://127.0.0.1:0", common.ServerConfig{}, ser)
	c := dial(t, addr, ser)
	defer c.Close()

	_, err := c.GetRawValue(storage.Tickets, "missing")
	assert.Equal(t, storage.CodeNotFound, storage.CodeOf(err))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, c.PutValue(storage.Individuals, "bad", "not an individual"))
	assert.Equal(t, storage.CodeSerialization, storage.CodeOf(c.GetIndividual(storage.Individuals, "bad", individual.New(""))))

	// requests to an unknown namespace never leave the client
	_, err = c.GetRawValue(storage.StorageID(9), "k")
	assert.Equal(t, storage.CodeInvalidArgument, storage.CodeOf(err))

	require.NoError(t, c.Ping())
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	ser := serializer.NewBinarySerializer()
	s := NewRPCServer(common.ServerConfig{}, nil, ser, memory.New())

	handle := func(route uint64, req []byte) common.Message {
		var handler func(uint64, []byte) []byte
		s.transport = &captureTransport{register: func(h func(uint64, []byte) []byte) { handler = h }}
		s.registerTransportHandler()
		var resp common.Message
		require.NoError(t, ser.Deserialize(handler(route, req), &resp))
		return resp
	}

	get, err := ser.Serialize(*common.NewGetRequest("k"))
	require.NoError(t, err)

	resp := handle(42, get)
	assert.Equal(t, common.MsgTError, resp.MsgType)
	assert.Equal(t, uint8(storage.CodeInvalidArgument), resp.Code)

	resp = handle(uint64(storage.Az), []byte{1})
	assert.Equal(t, common.MsgTError, resp.MsgType)
	assert.Equal(t, uint8(storage.CodeSerialization), resp.Code)

	unknown, err := ser.Serialize(common.Message{MsgType: common.MsgTSuccess})
	require.NoError(t, err)
	resp = handle(uint64(storage.Az), unknown)
	assert.Equal(t, uint8(storage.CodeUnsupported), resp.Code)
}

// captureTransport hands the registered handler to the test
type captureTransport struct {
	register func(h func(uint64, []byte) []byte)
}

func (c *captureTransport) RegisterHandler(h transport.ServerHandleFunc) { c.register(h) }
func (c *captureTransport) Listen(common.ServerConfig) error             { return nil }
func (c *captureTransport) Addr() string                                 { return "" }
func (c *captureTransport) Close() error                                 { return nil }

func TestGetRawValueAsync(t *testing.T) {
	ser := serializer.NewBinarySerializer()
	_, addr := startServer(t, "tcp://127.0.0.1:0", common.ServerConfig{}, ser)
	c := dial(t, addr, ser)
	defer c.Close()

	require.NoError(t, c.PutRawValue(storage.Az, "k", []byte{1, 2, 3}))

	chans := make([]<-chan storage.Result[[]byte], 10)
	for i := range chans {
		chans[i] = c.GetRawValueAsync(storage.Az, "k")
	}
	for _, ch := range chans {
		r := <-ch
		require.True(t, r.Ok(), "%v", r.Err)
		assert.Equal(t, []byte{1, 2, 3}, r.Value)
	}

	r := <-c.GetRawValueAsync(storage.Az, "missing")
	assert.Equal(t, storage.CodeNotFound, r.Code)

	// abandoned requests leave nothing behind
	_ = c.GetRawValueAsync(storage.Az, "k")
}

func TestMetrics(t *testing.T) {
	ser := serializer.NewBinarySerializer()
	config := common.ServerConfig{MetricsEndpoint: "127.0.0.1:0"}
	s, addr := startServer(t, "tcp://127.0.0.1:0", config, ser)
	c := dial(t, addr, ser)
	defer c.Close()

	require.NoError(t, c.PutValue(storage.Tickets, "k", "v"))
	_, err := c.GetValue(storage.Tickets, "k")
	require.NoError(t, err)
	_, err = c.GetValue(storage.Tickets, "missing")
	require.Error(t, err)

	assert.Equal(t, uint64(1), s.metrics.requests(common.MsgTPut, storage.CodeOk))
	assert.Equal(t, uint64(1), s.metrics.requests(common.MsgTGet, storage.CodeOk))
	assert.Equal(t, uint64(1), s.metrics.requests(common.MsgTGet, storage.CodeNotFound))

	require.NotNil(t, s.metricsServer)
	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", s.metricsAddr))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vstorage_requests_total{op="put",code="Ok"} 1`)
}

func TestNewTransport(t *testing.T) {
	_, endpoint, err := NewTransport("http://0.0.0.0:8080")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", endpoint)

	_, endpoint, err = NewTransport("127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", endpoint)

	_, _, err = NewTransport("grpc://x")
	assert.Error(t, err)
}

package client

import (
	"errors"
	"testing"

	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
	"github.com/semantic-machines/v-storage/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers every request with reply
type fakeTransport struct {
	ser        serializer.IRPCSerializer
	connectErr error
	sendErr    error
	reply      func(route uint64, req common.Message) *common.Message
	raw        []byte
	routes     []uint64
	closed     int
}

func (f *fakeTransport) Connect(common.ClientConfig) error { return f.connectErr }

func (f *fakeTransport) Send(route uint64, req []byte) ([]byte, error) {
	f.routes = append(f.routes, route)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.raw != nil {
		return f.raw, nil
	}
	var msg common.Message
	if err := f.ser.Deserialize(req, &msg); err != nil {
		return nil, err
	}
	return f.ser.Serialize(*f.reply(route, msg))
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func newFake(t *testing.T, reply func(uint64, common.Message) *common.Message) (*RPCStorage, *fakeTransport) {
	t.Helper()
	f := &fakeTransport{ser: serializer.NewBinarySerializer(), reply: reply}
	s, err := NewRPCStorage(common.ClientConfig{}, f, f.ser)
	require.NoError(t, err)
	return s, f
}

func TestConnectFailure(t *testing.T) {
	f := &fakeTransport{connectErr: errors.New("refused")}
	_, err := NewRPCStorage(common.ClientConfig{}, f, serializer.NewBinarySerializer())
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))
}

func TestNamespaceIsRoute(t *testing.T) {
	s, f := newFake(t, func(_ uint64, req common.Message) *common.Message {
		return common.NewPutResponse(0, nil)
	})
	require.NoError(t, s.PutValue(storage.Tickets, "k", "v"))
	require.NoError(t, s.PutValue(storage.Az, "k", "v"))
	assert.Equal(t, []uint64{uint64(storage.Tickets), uint64(storage.Az)}, f.routes)
}

func TestServerCodesAreKept(t *testing.T) {
	s, _ := newFake(t, func(_ uint64, req common.Message) *common.Message {
		switch req.MsgType {
		case common.MsgTGet:
			return common.NewGetResponse(nil, uint8(storage.CodeNotFound), errors.New("missing"))
		case common.MsgTCount:
			return common.NewErrorResponse(uint8(storage.CodeNotReady), "")
		default:
			// error text without a code
			return &common.Message{MsgType: req.MsgType, Err: "boom"}
		}
	})

	_, err := s.GetRawValue(storage.Individuals, "k")
	assert.True(t, storage.IsNotFound(err))
	assert.Contains(t, err.Error(), "missing")

	_, err = s.Count(storage.Individuals)
	assert.Equal(t, storage.CodeNotReady, storage.CodeOf(err))

	err = s.RemoveValue(storage.Individuals, "k")
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))
}

func TestTransportFailures(t *testing.T) {
	s, f := newFake(t, nil)

	f.sendErr = transport.ErrTimeout
	_, err := s.GetRawValue(storage.Az, "k")
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))
	assert.ErrorIs(t, err, transport.ErrTimeout)

	f.sendErr = nil
	f.raw = []byte{0xff}
	_, err = s.GetRawValue(storage.Az, "k")
	assert.Equal(t, storage.CodeSerialization, storage.CodeOf(err))
}

func TestUnexpectedResponseType(t *testing.T) {
	s, _ := newFake(t, func(uint64, common.Message) *common.Message {
		return common.NewCountResponse(1, 0, nil)
	})
	_, err := s.GetRawValue(storage.Az, "k")
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))
}

func TestEmptyValueIsNotNil(t *testing.T) {
	s, _ := newFake(t, func(uint64, common.Message) *common.Message {
		return common.NewGetResponse(nil, 0, nil)
	})
	v, err := s.GetRawValue(storage.Az, "k")
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Empty(t, v)
}

func TestLocalChecks(t *testing.T) {
	s, f := newFake(t, nil)

	_, err := s.GetRawValue(storage.Az, "")
	assert.Equal(t, storage.CodeInvalidArgument, storage.CodeOf(err))
	_, err = s.Count(storage.StorageID(7))
	assert.Equal(t, storage.CodeInvalidArgument, storage.CodeOf(err))
	assert.Empty(t, f.routes)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, f.closed)

	err = s.PutValue(storage.Az, "k", "v")
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(s.Ping()))
	assert.Empty(t, f.routes)
}

func TestIterateAllSkipsRemovedKeys(t *testing.T) {
	s, _ := newFake(t, func(_ uint64, req common.Message) *common.Message {
		switch req.MsgType {
		case common.MsgTKeys:
			return common.NewKeysResponse([]string{"a", "gone", "b"}, 0, nil)
		case common.MsgTGet:
			if req.Key == "gone" {
				return common.NewGetResponse(nil, uint8(storage.CodeNotFound), storage.ErrNotFound)
			}
			return common.NewGetResponse([]byte(req.Key), 0, nil)
		}
		return common.NewErrorResponse(uint8(storage.CodeUnsupported), "unexpected")
	})

	seq, err := s.IterateAll(storage.Individuals)
	require.NoError(t, err)
	got := map[string]string{}
	for k, v := range seq {
		got[k] = string(v)
	}
	assert.Equal(t, map[string]string{"a": "a", "b": "b"}, got)
}

func TestDialErrors(t *testing.T) {
	_, err := Dial("", common.ClientConfig{}, nil)
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))

	_, err = Dial("grpc://localhost:1", common.ClientConfig{}, nil)
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))

	_, err = NewTransport("smtp")
	assert.Error(t, err)
}

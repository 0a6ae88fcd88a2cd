package tarantool

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/semantic-machines/v-storage/lib/storage"
	storagetesting "github.com/semantic-machines/v-storage/lib/storage/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test runs the conformance suite against a live server when VSTORAGE_TARANTOOL_ADDRESS
// is set. The server needs the spaces 512, 513 and 514 with a string primary key.
func Test(t *testing.T) {
	addr := os.Getenv("VSTORAGE_TARANTOOL_ADDRESS")
	if addr == "" {
		t.Skip("VSTORAGE_TARANTOOL_ADDRESS not set")
	}
	opts := Options{
		Address:  addr,
		User:     os.Getenv("VSTORAGE_TARANTOOL_USER"),
		Password: os.Getenv("VSTORAGE_TARANTOOL_PASSWORD"),
	}

	storagetesting.RunStorageTests(t, "Tarantool", func(t testing.TB) storage.Storage {
		s, err := New(opts)
		require.NoError(t, err)
		// start every case from empty spaces
		for _, id := range storage.StorageIDs() {
			seq, err := s.IterateAll(id)
			require.NoError(t, err)
			for k := range seq {
				require.NoError(t, s.RemoveValue(id, k))
			}
		}
		return s
	}, storagetesting.Options{ExactCount: true})
}

func TestValidate(t *testing.T) {
	_, err := New(Options{})
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))

	opts := Options{Address: "localhost:3301"}
	require.NoError(t, opts.validate())
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultSpaces, opts.Spaces)
}

func TestConnectionFailure(t *testing.T) {
	// reserve a port and release it so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = New(Options{Address: addr, Timeout: 200 * time.Millisecond})
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))
}

func TestDecodeTuple(t *testing.T) {
	k, v, err := decodeTuple([]interface{}{"key", "text"})
	require.NoError(t, err)
	assert.Equal(t, "key", k)
	assert.Equal(t, []byte("text"), v)

	_, v, err = decodeTuple([]interface{}{"key", []byte{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, v)

	_, v, err = decodeTuple([]interface{}{"key", nil})
	require.NoError(t, err)
	assert.NotNil(t, v)

	_, _, err = decodeTuple([]interface{}{"key"})
	assert.Error(t, err)
	_, _, err = decodeTuple([]interface{}{42, "v"})
	assert.Error(t, err)
	_, _, err = decodeTuple("not a tuple")
	assert.Error(t, err)
}

func TestToInt(t *testing.T) {
	for _, v := range []interface{}{int8(7), uint16(7), int64(7), uint64(7), 7} {
		n, ok := toInt(v)
		assert.True(t, ok)
		assert.Equal(t, 7, n)
	}
	_, ok := toInt("7")
	assert.False(t, ok)
}

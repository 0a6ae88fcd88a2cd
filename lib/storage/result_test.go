package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOk, CodeOf(nil))
	assert.Equal(t, CodeNotFound, CodeOf(NotFound(Individuals, "k")))
	assert.Equal(t, CodeMedium, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeSerialization, CodeOf(fmt.Errorf("ctx: %w", NewError(CodeSerialization, "bad"))))
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound(Tickets, "k"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrNotReady))
	assert.True(t, IsNotFound(err))

	cause := errors.New("disk full")
	wrapped := WrapError(CodeMedium, "put failed", cause)
	assert.True(t, errors.Is(wrapped, cause))
	assert.Contains(t, wrapped.Error(), "disk full")
	assert.Contains(t, wrapped.Error(), "MediumError")
}

func TestNewResult(t *testing.T) {
	ok := NewResult("v", nil)
	assert.True(t, ok.Ok())
	assert.Equal(t, "v", ok.Value)

	miss := NewResult("ignored", NotFound(Az, "k"))
	assert.Equal(t, CodeNotFound, miss.Code)
	assert.Equal(t, "", miss.Value)

	v, err := miss.Unpack()
	assert.Empty(t, v)
	assert.True(t, IsNotFound(err))
}

func TestCheckKey(t *testing.T) {
	assert.NoError(t, CheckKey(Individuals, "k"))
	assert.Equal(t, CodeInvalidArgument, CodeOf(CheckKey(Individuals, "")))
	assert.Equal(t, CodeInvalidArgument, CodeOf(CheckKey(StorageID(9), "k")))
	assert.Equal(t, CodeInvalidArgument, CodeOf(CheckID(StorageID(9))))
}

func TestParsers(t *testing.T) {
	for _, id := range StorageIDs() {
		parsed, err := ParseStorageID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
	_, err := ParseStorageID("nope")
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	m, err := ParseMode("ro")
	require.NoError(t, err)
	assert.Equal(t, ModeReadOnly, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeReadWrite, m)
	_, err = ParseMode("append")
	assert.Equal(t, CodeConfiguration, CodeOf(err))

	for _, k := range Kinds() {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err = ParseKind("redis")
	assert.Equal(t, CodeConfiguration, CodeOf(err))
}

func TestOneShot(t *testing.T) {
	seq := OneShot(func(yield func(string, int) bool) {
		for i, k := range []string{"a", "b", "c"} {
			if !yield(k, i) {
				return
			}
		}
	})

	var first []string
	for k := range seq {
		first = append(first, k)
	}
	assert.Equal(t, []string{"a", "b", "c"}, first)

	n := 0
	for range seq {
		n++
	}
	assert.Zero(t, n)
}

func TestStringValue(t *testing.T) {
	s, err := StringValue(Az, "k", []byte("héllo"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)

	_, err = StringValue(Az, "k", []byte{0xff, 0xfe})
	assert.Equal(t, CodeSerialization, CodeOf(err))
}

package lmdb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/semantic-machines/v-storage/lib/storage"
	storagetesting "github.com/semantic-machines/v-storage/lib/storage/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t testing.TB) storage.Storage {
	s, err := New(t.TempDir(), storage.ModeReadWrite, 0)
	require.NoError(t, err)
	return s
}

func Test(t *testing.T) {
	storagetesting.RunStorageTests(t, "LMDB", newTestStorage, storagetesting.Options{ExactCount: true})
}

func TestReadOnlyMode(t *testing.T) {
	dir := t.TempDir()

	rw, err := New(dir, storage.ModeReadWrite, 1<<20)
	require.NoError(t, err)
	require.NoError(t, rw.PutValue(storage.Individuals, "k", "v"))
	require.NoError(t, rw.Close())

	ro, err := New(dir, storage.ModeReadOnly, 0)
	require.NoError(t, err)
	defer ro.Close()

	v, err := ro.GetValue(storage.Individuals, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	n, err := ro.Count(storage.Individuals)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, storage.CodeUnsupported, storage.CodeOf(ro.PutValue(storage.Individuals, "k", "x")))
	assert.Equal(t, storage.CodeUnsupported, storage.CodeOf(ro.RemoveValue(storage.Individuals, "k")))
	assert.Equal(t, storage.ModeReadOnly, ro.Mode())
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, storage.ModeReadWrite, 0)
	require.NoError(t, err)
	require.NoError(t, s.PutValue(storage.Tickets, "ticket", "data"))
	require.NoError(t, s.Close())

	s, err = New(dir, storage.ModeReadWrite, 0)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.GetValue(storage.Tickets, "ticket")
	require.NoError(t, err)
	assert.Equal(t, "data", v)
}

func TestOpenErrors(t *testing.T) {
	_, err := New("", storage.ModeReadWrite, 0)
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))

	_, err = New(filepath.Join(t.TempDir(), "missing"), storage.ModeReadOnly, 0)
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))

	dir := t.TempDir()
	first, err := New(dir, storage.ModeReadWrite, 0)
	require.NoError(t, err)
	defer first.Close()

	// the file lock is held by the first handle
	_, err = New(dir, storage.ModeReadWrite, 0)
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))
}

func TestSnapshotIteration(t *testing.T) {
	s, err := New(t.TempDir(), storage.ModeReadWrite, 0)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutValue(storage.Az, "a", "1"))
	require.NoError(t, s.PutValue(storage.Az, "b", "2"))

	seq, err := s.IterateAll(storage.Az)
	require.NoError(t, err)

	var keys []string
	for k := range seq {
		keys = append(keys, k)
	}
	// bbolt iterates in key order
	assert.Equal(t, []string{"a", "b"}, keys)
}

func Benchmark(b *testing.B) {
	storagetesting.RunStorageBenchmarks(b, "LMDB", newTestStorage)
}

func TestView(t *testing.T) {
	s, err := New(t.TempDir(), storage.ModeReadWrite, 0)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutRawValue(storage.Individuals, "k", []byte("value")))
	require.NoError(t, s.PutRawValue(storage.Individuals, "empty", []byte{}))

	var seen string
	require.NoError(t, s.View(storage.Individuals, "k", func(v []byte) error {
		seen = string(v)
		return nil
	}))
	assert.Equal(t, "value", seen)

	called := false
	require.NoError(t, s.View(storage.Individuals, "empty", func(v []byte) error {
		called = true
		assert.Empty(t, v)
		return nil
	}))
	assert.True(t, called)

	err = s.View(storage.Tickets, "k", func([]byte) error {
		t.Fatal("called for a missing key")
		return nil
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	errStop := errors.New("stop")
	assert.ErrorIs(t, s.View(storage.Individuals, "k", func([]byte) error { return errStop }), errStop)

	assert.Equal(t, storage.CodeInvalidArgument, storage.CodeOf(s.View(storage.Individuals, "", func([]byte) error { return nil })))
}

package vstorage

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/storage/engines/badger"
	"github.com/semantic-machines/v-storage/lib/storage/engines/lmdb"
	"github.com/semantic-machines/v-storage/lib/storage/engines/memory"
	storagetesting "github.com/semantic-machines/v-storage/lib/storage/testing"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
	"github.com/semantic-machines/v-storage/rpc/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Conformance of every wrapper
// --------------------------------------------------------------------------

func TestWrappers(t *testing.T) {
	opts := storagetesting.Options{ExactCount: true}

	storagetesting.RunStorageTests(t, "Dynamic", func(testing.TB) storage.Storage {
		return VStorageMemory()
	}, opts)

	storagetesting.RunStorageTests(t, "Generic", func(testing.TB) storage.Storage {
		return MemoryGeneric()
	}, opts)

	storagetesting.RunStorageTests(t, "Enum", func(testing.TB) storage.Storage {
		return EnumMemory(memory.New())
	}, opts)

	storagetesting.RunStorageTests(t, "DynamicLMDB", func(t testing.TB) storage.Storage {
		s, err := NewBuilder().LMDB(t.TempDir(), storage.ModeReadWrite, 0).BuildVStorage()
		require.NoError(t, err)
		return s
	}, opts)

	storagetesting.RunStorageTests(t, "GenericBadger", func(t testing.TB) storage.Storage {
		s, err := NewBuilder().Badger(t.TempDir(), storage.ModeReadWrite, 0).BuildBadgerGeneric()
		require.NoError(t, err)
		return s
	}, opts)

	storagetesting.RunStorageTests(t, "EnumLMDB", func(t testing.TB) storage.Storage {
		s, err := EnumFromConfig(Config{Kind: storage.KindLMDB, Path: t.TempDir()})
		require.NoError(t, err)
		return s
	}, opts)
}

func TestRemoteThroughBuilder(t *testing.T) {
	storagetesting.RunStorageTests(t, "GenericRemote", func(t testing.TB) storage.Storage {
		addr := serve(t)
		s, err := NewBuilder().Remote(addr).WithSerializer("msgpack").WithTimeout(2).BuildRemoteGeneric()
		require.NoError(t, err)
		return s
	}, storagetesting.Options{ExactCount: true})
}

// serve hosts a memory storage over a unix socket and returns its address
func serve(t testing.TB) string {
	t.Helper()
	address := "unix://" + filepath.Join(t.TempDir(), "vs.sock")
	tr, endpoint, err := server.NewTransport(address)
	require.NoError(t, err)

	config := common.ServerConfig{TimeoutSecond: 5}
	config.Transport.Endpoint = endpoint
	backend := memory.New()
	s := server.NewRPCServer(config, tr, serializer.NewMsgpackSerializer(), backend)
	require.NoError(t, s.Listen())
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
		assert.NoError(t, backend.Close())
	})
	return address
}

// --------------------------------------------------------------------------
// Equivalence
// --------------------------------------------------------------------------

// outcome is what an observer sees of one operation
type outcome struct {
	value string
	code  storage.ResultCode
}

// script runs a fixed operation sequence and records every outcome
func script(s storage.Storage) []outcome {
	var out []outcome
	record := func(value any, err error) {
		out = append(out, outcome{value: fmt.Sprint(value), code: storage.CodeOf(err)})
	}
	get := func(id storage.StorageID, key string) {
		v, err := s.GetValue(id, key)
		record(v, err)
	}
	count := func(id storage.StorageID) {
		n, err := s.Count(id)
		record(n, err)
	}

	doc := individual.New("d:doc")
	doc.AddResource("rdfs:label", individual.NewString("doc", individual.LangNone))
	payload, _ := individual.Encode(doc)

	record(nil, s.PutValue(storage.Individuals, "a", "1"))
	record(nil, s.PutValue(storage.Tickets, "a", "2"))
	get(storage.Individuals, "a")
	get(storage.Tickets, "a")
	get(storage.Az, "a")
	record(nil, s.PutValue(storage.Individuals, "a", "3"))
	get(storage.Individuals, "a")
	count(storage.Individuals)
	record(nil, s.RemoveValue(storage.Individuals, "a"))
	record(nil, s.RemoveValue(storage.Individuals, "a"))
	get(storage.Individuals, "a")
	count(storage.Individuals)
	record(nil, s.PutValue(storage.Az, "", "x"))
	record(nil, s.PutRawValue(storage.Individuals, "d:doc", payload))
	var loaded individual.Individual
	err := s.GetIndividual(storage.Individuals, "d:doc", &loaded)
	record(loaded.URI(), err)
	record(nil, s.PutRawValue(storage.Individuals, "broken", []byte{0xc1}))
	record(nil, s.GetIndividual(storage.Individuals, "broken", &individual.Individual{}))
	count(storage.StorageID(42))
	record(nil, s.Close())
	return out
}

func TestDispatchEquivalence(t *testing.T) {
	dynamic := script(New(memory.New()))
	generic := script(NewGeneric(memory.New()))
	enum := script(EnumMemory(memory.New()))

	assert.Equal(t, dynamic, generic)
	assert.Equal(t, dynamic, enum)

	openLMDB := func() *lmdb.Storage {
		s, err := lmdb.New(t.TempDir(), storage.ModeReadWrite, 0)
		require.NoError(t, err)
		return s
	}
	openBadger := func() *badger.Storage {
		s, err := badger.New(t.TempDir(), storage.ModeReadWrite, 0)
		require.NoError(t, err)
		return s
	}

	t.Run("LMDB", func(t *testing.T) {
		want := script(New(openLMDB()))
		assert.Equal(t, want, script(NewGeneric(openLMDB())))
		assert.Equal(t, want, script(EnumLMDB(openLMDB())))
	})
	t.Run("Badger", func(t *testing.T) {
		want := script(New(openBadger()))
		assert.Equal(t, want, script(NewGeneric(openBadger())))
		assert.Equal(t, want, script(EnumBadger(openBadger())))
	})

	// the empty wrappers agree as well
	assert.Equal(t, script(None()), script(NoneGeneric[*memory.Storage]()))
	assert.Equal(t, script(None()), script(EnumNone()))
}

func TestConstructionEquivalence(t *testing.T) {
	viaBuilder, err := NewBuilder().Memory().Build()
	require.NoError(t, err)
	viaConfig, err := NewStorage(Config{Kind: storage.KindMemory})
	require.NoError(t, err)
	viaProvider := ProvideMemory()

	want := script(viaBuilder)
	assert.Equal(t, want, script(viaConfig))
	assert.Equal(t, want, script(viaProvider))
}

// --------------------------------------------------------------------------
// Empty wrappers
// --------------------------------------------------------------------------

func mustEnumOf(t *testing.T, s storage.Storage) *Enum {
	e, err := EnumOf(s)
	require.NoError(t, err)
	return e
}

func TestEmptyWrappers(t *testing.T) {
	wrappers := map[string]interface {
		storage.Storage
		IsEmpty() bool
	}{
		"Dynamic": None(),
		"Generic": NoneGeneric[*memory.Storage](),
		"Enum":    EnumNone(),
		"ZeroVal": &VStorage{},
		// typed nil backends
		"DynamicNil": New((*memory.Storage)(nil)),
		"GenericNil": NewGeneric[*memory.Storage](nil),
		"EnumNil":    EnumMemory(nil),
		"EnumOfNil":  mustEnumOf(t, (*lmdb.Storage)(nil)),
	}

	for name, w := range wrappers {
		t.Run(name, func(t *testing.T) {
			assert.True(t, w.IsEmpty())

			_, err := w.GetValue(storage.Individuals, "k")
			assert.ErrorIs(t, err, storage.ErrNotReady)
			assert.Equal(t, storage.CodeNotReady, storage.CodeOf(w.PutValue(storage.Az, "k", "v")))
			assert.Equal(t, storage.CodeNotReady, storage.CodeOf(w.RemoveValue(storage.Az, "k")))
			_, err = w.Count(storage.Tickets)
			assert.Equal(t, storage.CodeNotReady, storage.CodeOf(err))
			seq, err := w.IterateAll(storage.Tickets)
			assert.Nil(t, seq)
			assert.Equal(t, storage.CodeNotReady, storage.CodeOf(err))

			assert.NoError(t, w.Close())
			assert.NoError(t, w.Close())
		})
	}
}

func TestLegacyMethods(t *testing.T) {
	v := VStorageMemory()
	defer v.Close()

	assert.True(t, v.PutKV(storage.Individuals, "k", "v"))
	got, ok := v.GetV(storage.Individuals, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
	assert.True(t, v.PutKVRaw(storage.Tickets, "k", []byte{1}))
	assert.Equal(t, []byte{1}, v.GetRaw(storage.Tickets, "k"))
	assert.True(t, v.Remove(storage.Tickets, "k"))
	assert.Nil(t, v.GetRaw(storage.Tickets, "k"))
	assert.Equal(t, storage.CodeNotFound, v.GetIndividualFromDB(storage.Individuals, "missing", &individual.Individual{}))

	// empty wrapper
	empty := None()
	_, ok = empty.GetV(storage.Individuals, "k")
	assert.False(t, ok)
	assert.False(t, empty.PutKV(storage.Individuals, "k", "v"))
	assert.Equal(t, storage.CodeNotReady, empty.GetIndividualFromDB(storage.Individuals, "k", &individual.Individual{}))
}

func TestLoadIndividual(t *testing.T) {
	doc := individual.New("d:x")
	doc.AddResource("rdfs:label", individual.NewString("x", individual.LangNone))
	payload, err := individual.Encode(doc)
	require.NoError(t, err)

	for name, s := range map[string]interface {
		storage.Storage
		LoadIndividual(string, *individual.Individual) error
	}{
		"Dynamic": VStorageMemory(),
		"Generic": MemoryGeneric(),
		"Enum":    EnumMemory(memory.New()),
	} {
		require.NoError(t, s.PutRawValue(storage.Individuals, "d:x", payload), name)
		var out individual.Individual
		require.NoError(t, s.LoadIndividual("d:x", &out), name)
		assert.Equal(t, "d:x", out.URI(), name)
		assert.True(t, storage.IsNotFound(s.LoadIndividual("d:y", &out)), name)
		require.NoError(t, s.Close())
	}
}

// --------------------------------------------------------------------------
// Generic and enum specifics
// --------------------------------------------------------------------------

func TestTakeStorage(t *testing.T) {
	g := MemoryGeneric()
	require.NoError(t, g.PutValue(storage.Az, "k", "v"))

	s, ok := g.TakeStorage()
	require.True(t, ok)
	defer s.Close()

	assert.True(t, g.IsEmpty())
	_, ok = g.Storage()
	assert.False(t, ok)

	// the backend keeps its data after it left the wrapper
	v, err := s.GetValue(storage.Az, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	_, ok = g.TakeStorage()
	assert.False(t, ok)
}

// foreign is a backend outside the closed set of the enum
type foreign struct{ storage.Storage }

func TestEnumOf(t *testing.T) {
	e, err := EnumOf(memory.New())
	require.NoError(t, err)
	assert.Equal(t, storage.KindMemory, e.Kind())
	require.NoError(t, e.Close())

	e, err = EnumOf(nil)
	require.NoError(t, err)
	assert.True(t, e.IsEmpty())

	_, err = EnumOf(foreign{memory.New()})
	assert.Equal(t, storage.CodeUnsupported, storage.CodeOf(err))

	// the enum does not look through other wrappers
	_, err = EnumOf(VStorageMemory())
	assert.Equal(t, storage.CodeUnsupported, storage.CodeOf(err))
}

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

func TestBuilder(t *testing.T) {
	b := NewBuilder().WithTimeout(3).WithSerializer("json").Remote("tcp://127.0.0.1:1")
	assert.Equal(t, Config{Kind: storage.KindRemote, Address: "tcp://127.0.0.1:1", Serializer: "json", TimeoutSecond: 3}, b.Config())

	// switching the kind drops the remote address but keeps the modifiers
	b.LMDB("/tmp/x", storage.ModeReadOnly, 1024)
	assert.Equal(t, Config{Kind: storage.KindLMDB, Path: "/tmp/x", Mode: storage.ModeReadOnly, CacheSize: 1024, Serializer: "json", TimeoutSecond: 3}, b.Config())

	_, err := NewBuilder().Build()
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))

	_, err = NewBuilder().LMDB("", storage.ModeReadWrite, 0).Build()
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))
}

func TestBuilderKindMismatch(t *testing.T) {
	b := NewBuilder().Memory()

	_, err := b.BuildLMDBGeneric()
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))
	_, err = b.BuildBadgerGeneric()
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))
	_, err = b.BuildTarantoolGeneric()
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))
	_, err = b.BuildRemoteGeneric()
	assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err))

	g, err := b.BuildMemoryGeneric()
	require.NoError(t, err)
	assert.False(t, g.IsEmpty())
	require.NoError(t, g.Close())

	e, err := b.BuildEnum()
	require.NoError(t, err)
	assert.Equal(t, storage.KindMemory, e.Kind())
	require.NoError(t, e.Close())
}

func TestConfigValidate(t *testing.T) {
	invalid := map[string]Config{
		"no kind":            {},
		"unknown kind":       {Kind: "mdbx"},
		"lmdb without path":  {Kind: storage.KindLMDB},
		"badger blank path":  {Kind: storage.KindBadger, Path: "  "},
		"tarantool address":  {Kind: storage.KindTarantool},
		"remote address":     {Kind: storage.KindRemote},
		"remote scheme":      {Kind: storage.KindRemote, Address: "grpc://host:1"},
		"remote serializer":  {Kind: storage.KindRemote, Address: "host:1", Serializer: "xml"},
		"negative timeout":   {Kind: storage.KindMemory, TimeoutSecond: -1},
		"invalid mode value": {Kind: storage.KindLMDB, Path: "/tmp", Mode: storage.Mode(9)},
	}
	for name, cfg := range invalid {
		err := cfg.Validate()
		assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err), name)

		// no backend is touched for an invalid config
		_, err = NewStorage(cfg)
		assert.Equal(t, storage.CodeConfiguration, storage.CodeOf(err), name)
	}

	valid := []Config{
		{Kind: storage.KindMemory},
		{Kind: "MEMORY"},
		{Kind: storage.KindLMDB, Path: "/tmp/db", Mode: storage.ModeReadOnly},
		{Kind: storage.KindTarantool, Address: "127.0.0.1:3301"},
		{Kind: storage.KindRemote, Address: "unix:///run/vs.sock", Serializer: "GOB"},
	}
	for _, cfg := range valid {
		assert.NoError(t, cfg.Validate(), cfg.String())
	}
}

func TestConfigString(t *testing.T) {
	cfg := Config{Kind: storage.KindTarantool, Address: "127.0.0.1:3301", User: "admin", Password: "secret"}
	out := cfg.String()
	assert.Contains(t, out, "127.0.0.1:3301")
	assert.Contains(t, out, "admin")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "5 sec")
}

func TestOpenFailures(t *testing.T) {
	// the second writer on the same file fails instead of blocking
	dir := t.TempDir()
	first, err := ProvideLMDB(dir, storage.ModeReadWrite, 0)
	require.NoError(t, err)
	defer first.Close()

	_, err = ProvideLMDB(dir, storage.ModeReadWrite, 0)
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))

	// nothing listens there
	_, err = ProvideRemote("unix://" + filepath.Join(t.TempDir(), "none.sock"))
	assert.Equal(t, storage.CodeMedium, storage.CodeOf(err))
}

func TestFailureIsolation(t *testing.T) {
	healthy := VStorageMemory()
	defer healthy.Close()

	broken, err := FromConfig(Config{Kind: storage.KindMemory})
	require.NoError(t, err)
	require.NoError(t, broken.Close())

	require.NoError(t, healthy.PutValue(storage.Az, "k", "v"))
	assert.Error(t, broken.PutValue(storage.Az, "k", "v"))

	v, err := healthy.GetValue(storage.Az, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

package vstorage

import (
	"fmt"
	"iter"

	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/storage/engines/badger"
	"github.com/semantic-machines/v-storage/lib/storage/engines/lmdb"
	"github.com/semantic-machines/v-storage/lib/storage/engines/memory"
	"github.com/semantic-machines/v-storage/lib/storage/engines/tarantool"
	"github.com/semantic-machines/v-storage/rpc/client"
)

// Enum holds one backend out of the closed set of built-in kinds and switches on
// the active kind in every call. A new backend kind needs a new case in every method.
// The zero value is an empty wrapper.
type Enum struct {
	kind      storage.Kind // empty for no backend
	memory    *memory.Storage
	lmdb      *lmdb.Storage
	badger    *badger.Storage
	tarantool *tarantool.Storage
	remote    *client.RPCStorage
}

// EnumMemory and the other variant constructors return an empty wrapper for a nil backend.
func EnumMemory(s *memory.Storage) *Enum {
	if s == nil {
		return EnumNone()
	}
	return &Enum{kind: storage.KindMemory, memory: s}
}

func EnumLMDB(s *lmdb.Storage) *Enum {
	if s == nil {
		return EnumNone()
	}
	return &Enum{kind: storage.KindLMDB, lmdb: s}
}

func EnumBadger(s *badger.Storage) *Enum {
	if s == nil {
		return EnumNone()
	}
	return &Enum{kind: storage.KindBadger, badger: s}
}

func EnumTarantool(s *tarantool.Storage) *Enum {
	if s == nil {
		return EnumNone()
	}
	return &Enum{kind: storage.KindTarantool, tarantool: s}
}

func EnumRemote(s *client.RPCStorage) *Enum {
	if s == nil {
		return EnumNone()
	}
	return &Enum{kind: storage.KindRemote, remote: s}
}

// EnumNone returns an empty wrapper. Every operation of it fails with CodeNotReady.
func EnumNone() *Enum {
	return &Enum{}
}

// EnumOf picks the variant matching the concrete type of s. Backends outside the
// closed set yield CodeUnsupported, a nil s an empty wrapper.
func EnumOf(s storage.Storage) (*Enum, error) {
	switch b := s.(type) {
	case nil:
		return EnumNone(), nil
	case *memory.Storage:
		return EnumMemory(b), nil
	case *lmdb.Storage:
		return EnumLMDB(b), nil
	case *badger.Storage:
		return EnumBadger(b), nil
	case *tarantool.Storage:
		return EnumTarantool(b), nil
	case *client.RPCStorage:
		return EnumRemote(b), nil
	default:
		return nil, storage.NewError(storage.CodeUnsupported, fmt.Sprintf("vstorage: %T has no enum variant", s))
	}
}

// Kind returns the active variant, empty for an empty wrapper.
func (e *Enum) Kind() storage.Kind {
	return e.kind
}

// IsEmpty reports whether the wrapper holds no backend.
func (e *Enum) IsEmpty() bool {
	return e.kind == ""
}

// --------------------------------------------------------------------------
// Interface Methods (docu see storage.Storage)
// --------------------------------------------------------------------------

func (e *Enum) GetIndividual(id storage.StorageID, key string, out *individual.Individual) error {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.GetIndividual(id, key, out)
	case storage.KindLMDB:
		return e.lmdb.GetIndividual(id, key, out)
	case storage.KindBadger:
		return e.badger.GetIndividual(id, key, out)
	case storage.KindTarantool:
		return e.tarantool.GetIndividual(id, key, out)
	case storage.KindRemote:
		return e.remote.GetIndividual(id, key, out)
	default:
		return errNotReady()
	}
}

func (e *Enum) GetValue(id storage.StorageID, key string) (string, error) {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.GetValue(id, key)
	case storage.KindLMDB:
		return e.lmdb.GetValue(id, key)
	case storage.KindBadger:
		return e.badger.GetValue(id, key)
	case storage.KindTarantool:
		return e.tarantool.GetValue(id, key)
	case storage.KindRemote:
		return e.remote.GetValue(id, key)
	default:
		return "", errNotReady()
	}
}

func (e *Enum) GetRawValue(id storage.StorageID, key string) ([]byte, error) {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.GetRawValue(id, key)
	case storage.KindLMDB:
		return e.lmdb.GetRawValue(id, key)
	case storage.KindBadger:
		return e.badger.GetRawValue(id, key)
	case storage.KindTarantool:
		return e.tarantool.GetRawValue(id, key)
	case storage.KindRemote:
		return e.remote.GetRawValue(id, key)
	default:
		return nil, errNotReady()
	}
}

func (e *Enum) PutValue(id storage.StorageID, key string, value string) error {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.PutValue(id, key, value)
	case storage.KindLMDB:
		return e.lmdb.PutValue(id, key, value)
	case storage.KindBadger:
		return e.badger.PutValue(id, key, value)
	case storage.KindTarantool:
		return e.tarantool.PutValue(id, key, value)
	case storage.KindRemote:
		return e.remote.PutValue(id, key, value)
	default:
		return errNotReady()
	}
}

func (e *Enum) PutRawValue(id storage.StorageID, key string, value []byte) error {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.PutRawValue(id, key, value)
	case storage.KindLMDB:
		return e.lmdb.PutRawValue(id, key, value)
	case storage.KindBadger:
		return e.badger.PutRawValue(id, key, value)
	case storage.KindTarantool:
		return e.tarantool.PutRawValue(id, key, value)
	case storage.KindRemote:
		return e.remote.PutRawValue(id, key, value)
	default:
		return errNotReady()
	}
}

func (e *Enum) RemoveValue(id storage.StorageID, key string) error {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.RemoveValue(id, key)
	case storage.KindLMDB:
		return e.lmdb.RemoveValue(id, key)
	case storage.KindBadger:
		return e.badger.RemoveValue(id, key)
	case storage.KindTarantool:
		return e.tarantool.RemoveValue(id, key)
	case storage.KindRemote:
		return e.remote.RemoveValue(id, key)
	default:
		return errNotReady()
	}
}

func (e *Enum) Count(id storage.StorageID) (int, error) {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.Count(id)
	case storage.KindLMDB:
		return e.lmdb.Count(id)
	case storage.KindBadger:
		return e.badger.Count(id)
	case storage.KindTarantool:
		return e.tarantool.Count(id)
	case storage.KindRemote:
		return e.remote.Count(id)
	default:
		return 0, errNotReady()
	}
}

func (e *Enum) IterateAll(id storage.StorageID) (iter.Seq2[string, []byte], error) {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.IterateAll(id)
	case storage.KindLMDB:
		return e.lmdb.IterateAll(id)
	case storage.KindBadger:
		return e.badger.IterateAll(id)
	case storage.KindTarantool:
		return e.tarantool.IterateAll(id)
	case storage.KindRemote:
		return e.remote.IterateAll(id)
	default:
		return nil, errNotReady()
	}
}

func (e *Enum) Close() error {
	switch e.kind {
	case storage.KindMemory:
		return e.memory.Close()
	case storage.KindLMDB:
		return e.lmdb.Close()
	case storage.KindBadger:
		return e.badger.Close()
	case storage.KindTarantool:
		return e.tarantool.Close()
	case storage.KindRemote:
		return e.remote.Close()
	default:
		return nil
	}
}

// --------------------------------------------------------------------------
// Additional Methods
// --------------------------------------------------------------------------

// LoadIndividual reads the individual stored under uri in the Individuals namespace.
func (e *Enum) LoadIndividual(uri string, out *individual.Individual) error {
	return e.GetIndividual(storage.Individuals, uri, out)
}

package vstorage

import (
	"iter"
	"reflect"

	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/storage/engines/badger"
	"github.com/semantic-machines/v-storage/lib/storage/engines/lmdb"
	"github.com/semantic-machines/v-storage/lib/storage/engines/memory"
	"github.com/semantic-machines/v-storage/lib/storage/engines/tarantool"
	"github.com/semantic-machines/v-storage/rpc/client"
)

// Generic fixes the backend type at compile time. Calls go straight to the
// concrete methods of S without an interface value in between.
type Generic[S storage.Storage] struct {
	backend S
	present bool
}

// Generic wrappers of the built-in backends
type (
	MemoryStorage    = Generic[*memory.Storage]
	LMDBStorage      = Generic[*lmdb.Storage]
	BadgerStorage    = Generic[*badger.Storage]
	TarantoolStorage = Generic[*tarantool.Storage]
	RemoteStorage    = Generic[*client.RPCStorage]
)

// NewGeneric wraps s. A nil s gives the empty wrapper.
func NewGeneric[S storage.Storage](s S) *Generic[S] {
	if isNil(s) {
		return NoneGeneric[S]()
	}
	return &Generic[S]{backend: s, present: true}
}

// NoneGeneric returns an empty wrapper. Every operation of it fails with CodeNotReady.
func NoneGeneric[S storage.Storage]() *Generic[S] {
	return &Generic[S]{}
}

// IsEmpty reports whether the wrapper holds no backend.
func (g *Generic[S]) IsEmpty() bool {
	return !g.present
}

// Storage returns the backend and whether there is one.
func (g *Generic[S]) Storage() (S, bool) {
	return g.backend, g.present
}

// TakeStorage moves the backend out of the wrapper, which is empty afterwards.
// The caller becomes responsible for closing it.
func (g *Generic[S]) TakeStorage() (S, bool) {
	s, ok := g.backend, g.present
	var zero S
	g.backend, g.present = zero, false
	return s, ok
}

// --------------------------------------------------------------------------
// Interface Methods (docu see storage.Storage)
// --------------------------------------------------------------------------

func (g *Generic[S]) GetIndividual(id storage.StorageID, key string, out *individual.Individual) error {
	if !g.present {
		return errNotReady()
	}
	return g.backend.GetIndividual(id, key, out)
}

func (g *Generic[S]) GetValue(id storage.StorageID, key string) (string, error) {
	if !g.present {
		return "", errNotReady()
	}
	return g.backend.GetValue(id, key)
}

func (g *Generic[S]) GetRawValue(id storage.StorageID, key string) ([]byte, error) {
	if !g.present {
		return nil, errNotReady()
	}
	return g.backend.GetRawValue(id, key)
}

func (g *Generic[S]) PutValue(id storage.StorageID, key string, value string) error {
	if !g.present {
		return errNotReady()
	}
	return g.backend.PutValue(id, key, value)
}

func (g *Generic[S]) PutRawValue(id storage.StorageID, key string, value []byte) error {
	if !g.present {
		return errNotReady()
	}
	return g.backend.PutRawValue(id, key, value)
}

func (g *Generic[S]) RemoveValue(id storage.StorageID, key string) error {
	if !g.present {
		return errNotReady()
	}
	return g.backend.RemoveValue(id, key)
}

func (g *Generic[S]) Count(id storage.StorageID) (int, error) {
	if !g.present {
		return 0, errNotReady()
	}
	return g.backend.Count(id)
}

func (g *Generic[S]) IterateAll(id storage.StorageID) (iter.Seq2[string, []byte], error) {
	if !g.present {
		return nil, errNotReady()
	}
	return g.backend.IterateAll(id)
}

func (g *Generic[S]) Close() error {
	if !g.present {
		return nil
	}
	return g.backend.Close()
}

// --------------------------------------------------------------------------
// Additional Methods
// --------------------------------------------------------------------------

// LoadIndividual reads the individual stored under uri in the Individuals namespace.
func (g *Generic[S]) LoadIndividual(uri string, out *individual.Individual) error {
	return g.GetIndividual(storage.Individuals, uri, out)
}

// isNil also catches typed nil pointers, which compare unequal to a nil interface
func isNil(s storage.Storage) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

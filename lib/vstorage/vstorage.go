package vstorage

import (
	"iter"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
)

var Logger = logger.GetLogger("vstorage")

// errNotReady is returned by every operation of an empty wrapper
func errNotReady() error {
	return storage.NewError(storage.CodeNotReady, "vstorage: no storage configured")
}

// --------------------------------------------------------------------------
// Dynamic dispatch wrapper
// --------------------------------------------------------------------------

// VStorage routes every operation through a storage.Storage interface value, so
// the backend can be chosen at runtime. The zero value is an empty wrapper.
type VStorage struct {
	backend storage.Storage
}

// New wraps s. A nil s yields an empty wrapper.
func New(s storage.Storage) *VStorage {
	if isNil(s) {
		return None()
	}
	return &VStorage{backend: s}
}

// None returns an empty wrapper. Every operation of it fails with CodeNotReady.
func None() *VStorage {
	return &VStorage{}
}

// IsEmpty reports whether the wrapper holds no backend.
func (v *VStorage) IsEmpty() bool {
	return v.backend == nil
}

// Storage returns the wrapped backend, nil for an empty wrapper.
func (v *VStorage) Storage() storage.Storage {
	return v.backend
}

// --------------------------------------------------------------------------
// Interface Methods (docu see storage.Storage)
// --------------------------------------------------------------------------

func (v *VStorage) GetIndividual(id storage.StorageID, key string, out *individual.Individual) error {
	if v.backend == nil {
		return errNotReady()
	}
	return v.backend.GetIndividual(id, key, out)
}

func (v *VStorage) GetValue(id storage.StorageID, key string) (string, error) {
	if v.backend == nil {
		return "", errNotReady()
	}
	return v.backend.GetValue(id, key)
}

func (v *VStorage) GetRawValue(id storage.StorageID, key string) ([]byte, error) {
	if v.backend == nil {
		return nil, errNotReady()
	}
	return v.backend.GetRawValue(id, key)
}

func (v *VStorage) PutValue(id storage.StorageID, key string, value string) error {
	if v.backend == nil {
		return errNotReady()
	}
	return v.backend.PutValue(id, key, value)
}

func (v *VStorage) PutRawValue(id storage.StorageID, key string, value []byte) error {
	if v.backend == nil {
		return errNotReady()
	}
	return v.backend.PutRawValue(id, key, value)
}

func (v *VStorage) RemoveValue(id storage.StorageID, key string) error {
	if v.backend == nil {
		return errNotReady()
	}
	return v.backend.RemoveValue(id, key)
}

func (v *VStorage) Count(id storage.StorageID) (int, error) {
	if v.backend == nil {
		return 0, errNotReady()
	}
	return v.backend.Count(id)
}

func (v *VStorage) IterateAll(id storage.StorageID) (iter.Seq2[string, []byte], error) {
	if v.backend == nil {
		return nil, errNotReady()
	}
	return v.backend.IterateAll(id)
}

func (v *VStorage) Close() error {
	if v.backend == nil {
		return nil
	}
	return v.backend.Close()
}

// --------------------------------------------------------------------------
// Additional Methods
// --------------------------------------------------------------------------

// LoadIndividual reads the individual stored under uri in the Individuals namespace.
func (v *VStorage) LoadIndividual(uri string, out *individual.Individual) error {
	return v.GetIndividual(storage.Individuals, uri, out)
}

// --------------------------------------------------------------------------
// Legacy Methods
// --------------------------------------------------------------------------

// Deprecated: use GetIndividual.
func (v *VStorage) GetIndividualFromDB(id storage.StorageID, key string, out *individual.Individual) storage.ResultCode {
	return storage.NewLegacy(v).GetIndividualFromDB(id, key, out)
}

// Deprecated: use GetValue.
func (v *VStorage) GetV(id storage.StorageID, key string) (string, bool) {
	return storage.NewLegacy(v).GetV(id, key)
}

// Deprecated: use GetRawValue.
func (v *VStorage) GetRaw(id storage.StorageID, key string) []byte {
	return storage.NewLegacy(v).GetRaw(id, key)
}

// Deprecated: use PutValue.
func (v *VStorage) PutKV(id storage.StorageID, key, value string) bool {
	return storage.NewLegacy(v).PutKV(id, key, value)
}

// Deprecated: use PutRawValue.
func (v *VStorage) PutKVRaw(id storage.StorageID, key string, value []byte) bool {
	return storage.NewLegacy(v).PutKVRaw(id, key, value)
}

// Deprecated: use RemoveValue.
func (v *VStorage) Remove(id storage.StorageID, key string) bool {
	return storage.NewLegacy(v).Remove(id, key)
}

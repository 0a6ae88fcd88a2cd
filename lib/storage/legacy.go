package storage

import "github.com/semantic-machines/v-storage/lib/individual"

// Legacy exposes the older call shapes on top of any Storage.
// Each method is a plain translation of a contract operation and has no
// semantics of its own.
type Legacy struct {
	Storage Storage
}

// NewLegacy wraps s.
func NewLegacy(s Storage) Legacy {
	return Legacy{Storage: s}
}

// GetIndividualFromDB is the older name of GetIndividual.
func (l Legacy) GetIndividualFromDB(id StorageID, key string, out *individual.Individual) ResultCode {
	return CodeOf(l.Storage.GetIndividual(id, key, out))
}

// GetV returns the value and whether the lookup succeeded.
func (l Legacy) GetV(id StorageID, key string) (string, bool) {
	v, err := l.Storage.GetValue(id, key)
	if err != nil {
		return "", false
	}
	return v, true
}

// GetRaw returns the stored bytes or nil on any non-Ok outcome.
func (l Legacy) GetRaw(id StorageID, key string) []byte {
	v, err := l.Storage.GetRawValue(id, key)
	if err != nil {
		return nil
	}
	return v
}

// PutKV stores a string value and reports success.
func (l Legacy) PutKV(id StorageID, key, value string) bool {
	return l.Storage.PutValue(id, key, value) == nil
}

// PutKVRaw stores a byte value and reports success.
func (l Legacy) PutKVRaw(id StorageID, key string, value []byte) bool {
	return l.Storage.PutRawValue(id, key, value) == nil
}

// Remove deletes a key and reports success.
func (l Legacy) Remove(id StorageID, key string) bool {
	return l.Storage.RemoveValue(id, key) == nil
}

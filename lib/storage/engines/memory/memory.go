package memory

import (
	"iter"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
)

var Logger = logger.GetLogger("storage")

// --------------------------------------------------------------------------
// Core Memory storage structure
// --------------------------------------------------------------------------

// Storage keeps all namespaces in concurrent hash maps.
// Values are copied on the way in and on the way out.
type Storage struct {
	spaces [3]*xsync.MapOf[string, []byte]
	closed atomic.Bool
}

// New creates an empty memory storage.
//
// Thread-safety: the returned storage is safe for concurrent use.
func New() *Storage {
	s := &Storage{}
	for i := range s.spaces {
		s.spaces[i] = xsync.NewMapOf[string, []byte]()
	}
	Logger.Debugf("created memory storage")
	return s
}

// space returns the map of a namespace or an error if the storage is closed
func (s *Storage) space(id storage.StorageID) (*xsync.MapOf[string, []byte], error) {
	if s.closed.Load() {
		return nil, storage.NewError(storage.CodeMedium, "memory storage is closed")
	}
	return s.spaces[id], nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see storage.Storage)
// --------------------------------------------------------------------------

func (s *Storage) GetIndividual(id storage.StorageID, key string, out *individual.Individual) error {
	raw, err := s.GetRawValue(id, key)
	if err != nil {
		return err
	}
	return storage.DecodeIndividual(id, key, raw, out)
}

func (s *Storage) GetValue(id storage.StorageID, key string) (string, error) {
	raw, err := s.get(id, key)
	if err != nil {
		return "", err
	}
	return storage.StringValue(id, key, raw)
}

func (s *Storage) GetRawValue(id storage.StorageID, key string) ([]byte, error) {
	raw, err := s.get(id, key)
	if err != nil {
		return nil, err
	}
	return storage.Copy(raw), nil
}

func (s *Storage) PutValue(id storage.StorageID, key string, value string) error {
	return s.put(id, key, []byte(value))
}

func (s *Storage) PutRawValue(id storage.StorageID, key string, value []byte) error {
	return s.put(id, key, storage.Copy(value))
}

func (s *Storage) RemoveValue(id storage.StorageID, key string) error {
	if err := storage.CheckKey(id, key); err != nil {
		return err
	}
	m, err := s.space(id)
	if err != nil {
		return err
	}
	m.Delete(key)
	return nil
}

// Count is exact.
func (s *Storage) Count(id storage.StorageID) (int, error) {
	if err := storage.CheckID(id); err != nil {
		return 0, err
	}
	m, err := s.space(id)
	if err != nil {
		return 0, err
	}
	return m.Size(), nil
}

// IterateAll walks the live map. Entries written or removed during the
// iteration may or may not be observed.
func (s *Storage) IterateAll(id storage.StorageID) (iter.Seq2[string, []byte], error) {
	if err := storage.CheckID(id); err != nil {
		return nil, err
	}
	m, err := s.space(id)
	if err != nil {
		return nil, err
	}
	return storage.OneShot(func(yield func(string, []byte) bool) {
		m.Range(func(key string, value []byte) bool {
			return yield(key, storage.Copy(value))
		})
	}), nil
}

func (s *Storage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	for _, m := range s.spaces {
		m.Clear()
	}
	Logger.Debugf("closed memory storage")
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *Storage) get(id storage.StorageID, key string) ([]byte, error) {
	if err := storage.CheckKey(id, key); err != nil {
		return nil, err
	}
	m, err := s.space(id)
	if err != nil {
		return nil, err
	}
	raw, ok := m.Load(key)
	if !ok {
		return nil, storage.NotFound(id, key)
	}
	return raw, nil
}

func (s *Storage) put(id storage.StorageID, key string, value []byte) error {
	if err := storage.CheckKey(id, key); err != nil {
		return err
	}
	m, err := s.space(id)
	if err != nil {
		return err
	}
	m.Store(key, value)
	return nil
}

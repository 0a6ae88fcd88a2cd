package badger

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
)

var Logger = logger.GetLogger("badger")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// gcInterval is the time between two value log garbage collection runs
	gcInterval = 5 * time.Minute
	// gcDiscardRatio is the share of stale data a value log file needs to be rewritten
	gcDiscardRatio = 0.5
)

// prefixes separates the namespaces inside the single key space of badger
var prefixes = [3][]byte{
	storage.Individuals: []byte("i:"),
	storage.Tickets:     []byte("t:"),
	storage.Az:          []byte("a:"),
}

// --------------------------------------------------------------------------
// Core Badger storage structure
// --------------------------------------------------------------------------

// Storage keeps all namespaces in one badger database, separated by key prefix.
type Storage struct {
	db     *badger.DB
	path   string
	mode   storage.Mode
	closed atomic.Bool
	stopGC chan struct{}
	gcDone sync.WaitGroup
}

// New opens (and in read-write mode creates) a badger database in the directory path.
// cacheSize is the block cache size in bytes; zero keeps the badger default.
//
// Thread-safety: the returned storage is safe for concurrent use.
func New(path string, mode storage.Mode, cacheSize uint64) (*Storage, error) {
	if path == "" {
		return nil, storage.NewError(storage.CodeConfiguration, "badger: path must not be empty")
	}

	if mode == storage.ModeReadWrite {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, storage.WrapError(storage.CodeMedium, fmt.Sprintf("badger: failed to create directory %s", path), err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, storage.WrapError(storage.CodeMedium, fmt.Sprintf("badger: cannot open %s read-only", path), err)
	}

	opts := badger.DefaultOptions(path).
		WithReadOnly(mode == storage.ModeReadOnly).
		WithLogger(Logger).
		WithCompression(options.None)
	if cacheSize > 0 {
		opts = opts.WithBlockCacheSize(int64(cacheSize))
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, storage.WrapError(storage.CodeMedium, fmt.Sprintf("badger: failed to open %s", path), err)
	}

	s := &Storage{
		db:     db,
		path:   path,
		mode:   mode,
		stopGC: make(chan struct{}),
	}
	if mode == storage.ModeReadWrite {
		s.startGC()
	}

	Logger.Infof("opened %s (%s)", path, mode)
	return s, nil
}

// --------------------------------------------------------------------------
// Zero-copy access
// --------------------------------------------------------------------------

// View calls fn with the value of key inside a read transaction. The slice is
// only valid until fn returns. An error of fn is returned unchanged.
func (s *Storage) View(id storage.StorageID, key string, fn func(value []byte) error) error {
	if err := s.check(id, key); err != nil {
		return err
	}

	var fnErr error
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(id, key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			fnErr = fn(v)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return storage.NotFound(id, key)
	}
	if err != nil {
		return storage.WrapError(storage.CodeMedium, fmt.Sprintf("badger: failed to read %q from %s", key, id), err)
	}
	return fnErr
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
	raw, err := s.GetRawValue(id, key)
	if err != nil {
		return "", err
	}
	return storage.StringValue(id, key, raw)
}

func (s *Storage) GetRawValue(id storage.StorageID, key string) ([]byte, error) {
	var value []byte
	err := s.View(id, key, func(v []byte) error {
		value = storage.Copy(v)
		return nil
	})
	return value, err
}

func (s *Storage) PutValue(id storage.StorageID, key string, value string) error {
	return s.PutRawValue(id, key, []byte(value))
}

func (s *Storage) PutRawValue(id storage.StorageID, key string, value []byte) error {
	if err := s.checkWrite(id, key); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(id, key), storage.Copy(value))
	})
	if err != nil {
		return storage.WrapError(storage.CodeMedium, fmt.Sprintf("badger: failed to write %q to %s", key, id), err)
	}
	return nil
}

func (s *Storage) RemoveValue(id storage.StorageID, key string) error {
	if err := s.checkWrite(id, key); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dbKey(id, key))
	})
	if err != nil {
		return storage.WrapError(storage.CodeMedium, fmt.Sprintf("badger: failed to remove %q from %s", key, id), err)
	}
	return nil
}

// Count is exact: it walks the keys of the namespace without loading values.
func (s *Storage) Count(id storage.StorageID) (int, error) {
	if err := storage.CheckID(id); err != nil {
		return 0, err
	}
	if s.closed.Load() {
		return 0, storage.NewError(storage.CodeMedium, "badger: storage is closed")
	}

	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefixes[id]
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, storage.WrapError(storage.CodeMedium, fmt.Sprintf("badger: failed to count %s", id), err)
	}
	return n, nil
}

// IterateAll yields a point-in-time snapshot of the namespace taken when the loop starts.
func (s *Storage) IterateAll(id storage.StorageID) (iter.Seq2[string, []byte], error) {
	if err := storage.CheckID(id); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, storage.NewError(storage.CodeMedium, "badger: storage is closed")
	}

	prefix := prefixes[id]
	return storage.OneShot(func(yield func(string, []byte) bool) {
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				item := it.Item()
				var value []byte
				if err := item.Value(func(v []byte) error {
					value = storage.Copy(v)
					return nil
				}); err != nil {
					return err
				}
				if !yield(string(item.Key()[len(prefix):]), value) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			Logger.Errorf("iteration over %s aborted: %v", id, err)
		}
	}), nil
}

func (s *Storage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stopGC)
	s.gcDone.Wait()

	if err := s.db.Close(); err != nil {
		return storage.WrapError(storage.CodeMedium, "badger: failed to close", err)
	}
	Logger.Infof("closed %s", s.path)
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dbKey builds the badger key of a namespaced key
func dbKey(id storage.StorageID, key string) []byte {
	p := prefixes[id]
	k := make([]byte, 0, len(p)+len(key))
	k = append(k, p...)
	return append(k, key...)
}

func (s *Storage) check(id storage.StorageID, key string) error {
	if err := storage.CheckKey(id, key); err != nil {
		return err
	}
	if s.closed.Load() {
		return storage.NewError(storage.CodeMedium, "badger: storage is closed")
	}
	return nil
}

func (s *Storage) checkWrite(id storage.StorageID, key string) error {
	if err := s.check(id, key); err != nil {
		return err
	}
	if s.mode == storage.ModeReadOnly {
		return storage.NewError(storage.CodeUnsupported, "badger: storage is opened read-only")
	}
	return nil
}

// startGC periodically rewrites value log files with mostly stale data
func (s *Storage) startGC() {
	s.gcDone.Add(1)
	go func() {
		defer s.gcDone.Done()
		ticker := time.NewTicker(gcInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopGC:
				return
			case <-ticker.C:
				// one call rewrites at most one file, repeat until nothing is left
				for s.db.RunValueLogGC(gcDiscardRatio) == nil {
				}
			}
		}
	}()
}

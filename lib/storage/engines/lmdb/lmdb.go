package lmdb

import (
	"bytes"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
	bolt "go.etcd.io/bbolt"
)

var Logger = logger.GetLogger("lmdb")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// FileName is the name of the database file inside the storage directory
	FileName = "vstorage.db"

	// lockTimeout bounds the wait for the file lock, a second writer fails instead of blocking
	lockTimeout = time.Second
)

// bucketNames maps namespaces to bucket names
var bucketNames = [3][]byte{
	storage.Individuals: []byte("individuals"),
	storage.Tickets:     []byte("tickets"),
	storage.Az:          []byte("az"),
}

// --------------------------------------------------------------------------
// Core LMDB storage structure
// --------------------------------------------------------------------------

// Storage keeps each namespace in its own bucket of a single memory mapped B+tree file.
type Storage struct {
	db     *bolt.DB
	path   string
	mode   storage.Mode
	closed atomic.Bool
}

// New opens (and in read-write mode creates) the database in the directory path.
// cacheSize is the initial size of the memory map in bytes; zero keeps the default.
//
// Thread-safety: the returned storage is safe for concurrent use. Writers are
// serialized, readers run in parallel.
func New(path string, mode storage.Mode, cacheSize uint64) (*Storage, error) {
	if path == "" {
		return nil, storage.NewError(storage.CodeConfiguration, "lmdb: path must not be empty")
	}

	if mode == storage.ModeReadWrite {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, storage.WrapError(storage.CodeMedium, fmt.Sprintf("lmdb: failed to create directory %s", path), err)
		}
	}

	file := filepath.Join(path, FileName)
	opts := &bolt.Options{
		Timeout:         lockTimeout,
		ReadOnly:        mode == storage.ModeReadOnly,
		InitialMmapSize: int(cacheSize),
	}

	db, err := bolt.Open(file, 0o644, opts)
	if err != nil {
		return nil, storage.WrapError(storage.CodeMedium, fmt.Sprintf("lmdb: failed to open %s", file), err)
	}

	// buckets are created once so read transactions never have to
	if mode == storage.ModeReadWrite {
		err = db.Update(func(tx *bolt.Tx) error {
			for _, name := range bucketNames {
				if _, err := tx.CreateBucketIfNotExists(name); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			_ = db.Close()
			return nil, storage.WrapError(storage.CodeMedium, "lmdb: failed to create buckets", err)
		}
	}

	Logger.Infof("opened %s (%s, mmap %d bytes)", file, mode, cacheSize)

	return &Storage{
		db:   db,
		path: path,
		mode: mode,
	}, nil
}

// Path returns the directory the database lives in
func (s *Storage) Path() string {
	return s.path
}

// Mode returns the access mode the database was opened with
func (s *Storage) Mode() storage.Mode {
	return s.mode
}

// --------------------------------------------------------------------------
// Zero-copy access
// --------------------------------------------------------------------------

// View calls fn with the value of key inside a read transaction. The slice points
// into the memory map and is only valid until fn returns. An error of fn is
// returned unchanged.
func (s *Storage) View(id storage.StorageID, key string, fn func(value []byte) error) error {
	if err := storage.CheckKey(id, key); err != nil {
		return err
	}

	var fnErr error
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNames[id])
		if b == nil {
			return nil
		}
		// a cursor tells an empty value apart from a missing key
		k, v := b.Cursor().Seek([]byte(key))
		if k != nil && bytes.Equal(k, []byte(key)) {
			found = true
			fnErr = fn(v)
		}
		return nil
	})
	if err != nil {
		return storage.WrapError(storage.CodeMedium, fmt.Sprintf("lmdb: failed to read %q from %s", key, id), err)
	}
	if !found {
		return storage.NotFound(id, key)
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
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNames[id]).Put([]byte(key), storage.Copy(value))
	})
	if err != nil {
		return storage.WrapError(storage.CodeMedium, fmt.Sprintf("lmdb: failed to write %q to %s", key, id), err)
	}
	return nil
}

func (s *Storage) RemoveValue(id storage.StorageID, key string) error {
	if err := s.checkWrite(id, key); err != nil {
		return err
	}
	// deleting a missing key is not an error in bbolt
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNames[id]).Delete([]byte(key))
	})
	if err != nil {
		return storage.WrapError(storage.CodeMedium, fmt.Sprintf("lmdb: failed to remove %q from %s", key, id), err)
	}
	return nil
}

// Count is exact: it reads the key count of the bucket in one read transaction.
func (s *Storage) Count(id storage.StorageID) (int, error) {
	if err := storage.CheckID(id); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketNames[id]); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return 0, storage.WrapError(storage.CodeMedium, fmt.Sprintf("lmdb: failed to count %s", id), err)
	}
	return n, nil
}

// IterateAll yields a point-in-time snapshot: the whole iteration runs inside one
// read transaction that is opened on the first pull and closed when the loop ends.
// Writing to the same storage from inside the loop body may block.
func (s *Storage) IterateAll(id storage.StorageID) (iter.Seq2[string, []byte], error) {
	if err := storage.CheckID(id); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, storage.NewError(storage.CodeMedium, "lmdb: storage is closed")
	}
	return storage.OneShot(func(yield func(string, []byte) bool) {
		err := s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketNames[id])
			if b == nil {
				return nil
			}
			c := b.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				if !yield(string(k), storage.Copy(v)) {
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
	if err := s.db.Close(); err != nil {
		return storage.WrapError(storage.CodeMedium, "lmdb: failed to close", err)
	}
	Logger.Infof("closed %s", s.path)
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *Storage) checkWrite(id storage.StorageID, key string) error {
	if err := storage.CheckKey(id, key); err != nil {
		return err
	}
	if s.mode == storage.ModeReadOnly {
		return storage.NewError(storage.CodeUnsupported, "lmdb: storage is opened read-only")
	}
	return nil
}

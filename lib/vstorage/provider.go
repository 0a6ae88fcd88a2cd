package vstorage

import (
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/storage/engines/memory"
)

// --------------------------------------------------------------------------
// One call factories
// --------------------------------------------------------------------------

// ProvideMemory returns a new memory backend.
func ProvideMemory() storage.Storage {
	s, err := provide(Config{Kind: storage.KindMemory})
	if err != nil {
		// a memory config cannot fail validation
		panic(err)
	}
	return s
}

func ProvideLMDB(path string, mode storage.Mode, cacheSize uint64) (storage.Storage, error) {
	return provide(Config{Kind: storage.KindLMDB, Path: path, Mode: mode, CacheSize: cacheSize})
}

func ProvideBadger(path string, mode storage.Mode, cacheSize uint64) (storage.Storage, error) {
	return provide(Config{Kind: storage.KindBadger, Path: path, Mode: mode, CacheSize: cacheSize})
}

func ProvideTarantool(address, user, password string) (storage.Storage, error) {
	return provide(Config{Kind: storage.KindTarantool, Address: address, User: user, Password: password})
}

func ProvideRemote(address string) (storage.Storage, error) {
	return provide(Config{Kind: storage.KindRemote, Address: address})
}

// VStorageMemory returns a dynamic wrapper around a new memory backend.
func VStorageMemory() *VStorage {
	return New(ProvideMemory())
}

// MemoryGeneric returns a generic wrapper around a new memory backend.
func MemoryGeneric() *MemoryStorage {
	return NewGeneric(ProvideMemory().(*memory.Storage))
}

func provide(cfg Config) (storage.Storage, error) {
	s, err := NewStorage(cfg)
	if err != nil {
		Logger.Errorf("failed to provide %s storage: %v", cfg.Kind, err)
		return nil, err
	}
	Logger.Infof("provided %s storage", cfg.Kind)
	return s, nil
}

package vstorage

import (
	"fmt"

	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/storage/engines/badger"
	"github.com/semantic-machines/v-storage/lib/storage/engines/lmdb"
	"github.com/semantic-machines/v-storage/lib/storage/engines/memory"
	"github.com/semantic-machines/v-storage/lib/storage/engines/tarantool"
	"github.com/semantic-machines/v-storage/rpc/client"
)

// Builder assembles a Config step by step. Selecting a kind discards the parameters
// of a previously selected kind, WithTimeout and WithSerializer are kept. Nothing is
// validated or opened before a Build method is called.
//
// Usage:
//
//	s, err := vstorage.NewBuilder().
//		LMDB("/var/lib/vstorage", storage.ModeReadWrite, 0).
//		BuildVStorage()
type Builder struct {
	cfg Config
}

// NewBuilder returns a builder without a kind.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Memory() *Builder {
	b.reset(storage.KindMemory)
	return b
}

func (b *Builder) LMDB(path string, mode storage.Mode, cacheSize uint64) *Builder {
	b.reset(storage.KindLMDB)
	b.cfg.Path, b.cfg.Mode, b.cfg.CacheSize = path, mode, cacheSize
	return b
}

func (b *Builder) Badger(path string, mode storage.Mode, cacheSize uint64) *Builder {
	b.reset(storage.KindBadger)
	b.cfg.Path, b.cfg.Mode, b.cfg.CacheSize = path, mode, cacheSize
	return b
}

func (b *Builder) Tarantool(address, user, password string) *Builder {
	b.reset(storage.KindTarantool)
	b.cfg.Address, b.cfg.User, b.cfg.Password = address, user, password
	return b
}

// Remote selects a v-storage server, see common.ParseAddress for the address format.
func (b *Builder) Remote(address string) *Builder {
	b.reset(storage.KindRemote)
	b.cfg.Address = address
	return b
}

// WithTimeout sets the request timeout of network backends in seconds.
func (b *Builder) WithTimeout(seconds int) *Builder {
	b.cfg.TimeoutSecond = seconds
	return b
}

// WithSerializer sets the wire format of the remote backend (binary, json, gob or msgpack).
func (b *Builder) WithSerializer(name string) *Builder {
	b.cfg.Serializer = name
	return b
}

// Config returns the accumulated config.
func (b *Builder) Config() Config {
	return b.cfg
}

// --------------------------------------------------------------------------
// Terminal Methods
// --------------------------------------------------------------------------

// Build validates the config and creates the backend.
func (b *Builder) Build() (storage.Storage, error) {
	return NewStorage(b.cfg)
}

// BuildVStorage builds the backend behind a dynamic wrapper.
func (b *Builder) BuildVStorage() (*VStorage, error) {
	return FromConfig(b.cfg)
}

// BuildEnum builds the backend behind an enum wrapper.
func (b *Builder) BuildEnum() (*Enum, error) {
	return EnumFromConfig(b.cfg)
}

func (b *Builder) BuildMemoryGeneric() (*MemoryStorage, error) {
	return buildGeneric[*memory.Storage](b.cfg, storage.KindMemory)
}

func (b *Builder) BuildLMDBGeneric() (*LMDBStorage, error) {
	return buildGeneric[*lmdb.Storage](b.cfg, storage.KindLMDB)
}

func (b *Builder) BuildBadgerGeneric() (*BadgerStorage, error) {
	return buildGeneric[*badger.Storage](b.cfg, storage.KindBadger)
}

func (b *Builder) BuildTarantoolGeneric() (*TarantoolStorage, error) {
	return buildGeneric[*tarantool.Storage](b.cfg, storage.KindTarantool)
}

func (b *Builder) BuildRemoteGeneric() (*RemoteStorage, error) {
	return buildGeneric[*client.RPCStorage](b.cfg, storage.KindRemote)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (b *Builder) reset(kind storage.Kind) {
	b.cfg = Config{
		Kind:          kind,
		Serializer:    b.cfg.Serializer,
		TimeoutSecond: b.cfg.TimeoutSecond,
	}
}

// buildGeneric creates the backend of cfg and fails if it is not an S
func buildGeneric[S storage.Storage](cfg Config, want storage.Kind) (*Generic[S], error) {
	if cfg.Kind != want {
		return nil, storage.NewError(storage.CodeConfiguration,
			fmt.Sprintf("vstorage: builder is configured for %q, cannot build a %s storage", cfg.Kind, want))
	}

	s, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}

	typed, ok := s.(S)
	if !ok {
		_ = s.Close()
		return nil, storage.NewError(storage.CodeConfiguration, fmt.Sprintf("vstorage: %s config produced %T", want, s))
	}
	return NewGeneric(typed), nil
}

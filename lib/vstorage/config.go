package vstorage

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/storage/engines/badger"
	"github.com/semantic-machines/v-storage/lib/storage/engines/lmdb"
	"github.com/semantic-machines/v-storage/lib/storage/engines/memory"
	"github.com/semantic-machines/v-storage/lib/storage/engines/tarantool"
	"github.com/semantic-machines/v-storage/rpc/client"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
)

// DefaultTimeoutSecond bounds the requests of network backends if the config sets no timeout
const DefaultTimeoutSecond = 5

// --------------------------------------------------------------------------
// Config
// --------------------------------------------------------------------------

// Config describes a backend declaratively. Kind selects the backend, the other
// fields are read only by the kinds that use them:
//
//	memory     -
//	lmdb       Path, Mode, CacheSize
//	badger     Path, Mode, CacheSize
//	tarantool  Address, User, Password, TimeoutSecond
//	remote     Address, Serializer, TimeoutSecond
type Config struct {
	Kind storage.Kind `mapstructure:"kind"`

	// file backends
	Path      string       `mapstructure:"path"`
	Mode      storage.Mode `mapstructure:"mode"`
	CacheSize uint64       `mapstructure:"cache-size"`

	// network backends
	Address       string `mapstructure:"address"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Serializer    string `mapstructure:"serializer"`
	TimeoutSecond int    `mapstructure:"timeout"`
}

// Validate checks the config without touching any medium. The kind is normalized
// to lower case.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return storage.NewError(storage.CodeConfiguration, "vstorage: "+fmt.Sprintf(format, args...))
	}

	if c.Kind == "" {
		return fail("storage kind must be set (one of %s)", kindList())
	}
	kind, err := storage.ParseKind(string(c.Kind))
	if err != nil {
		return err
	}
	c.Kind = kind

	if c.Mode != storage.ModeReadWrite && c.Mode != storage.ModeReadOnly {
		return fail("invalid mode %d", c.Mode)
	}
	if c.TimeoutSecond < 0 {
		return fail("timeout must not be negative, got %d", c.TimeoutSecond)
	}

	switch c.Kind {
	case storage.KindLMDB, storage.KindBadger:
		if strings.TrimSpace(c.Path) == "" {
			return fail("%s storage requires a path", c.Kind)
		}
	case storage.KindTarantool:
		if strings.TrimSpace(c.Address) == "" {
			return fail("tarantool storage requires an address")
		}
	case storage.KindRemote:
		if strings.TrimSpace(c.Address) == "" {
			return fail("remote storage requires an address")
		}
		if _, _, err := common.ParseAddress(c.Address); err != nil {
			return storage.WrapError(storage.CodeConfiguration, "vstorage: invalid remote address", err)
		}
		if _, err := serializer.New(c.Serializer); err != nil {
			return storage.WrapError(storage.CodeConfiguration, "vstorage: invalid serializer", err)
		}
	}
	return nil
}

// String returns a formatted summary of the config. The password is masked.
func (c *Config) String() string {
	var sb strings.Builder

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	sb.WriteString("\nSTORAGE\n")
	addField("Kind", string(c.Kind))

	switch c.Kind {
	case storage.KindLMDB, storage.KindBadger:
		addField("Path", c.Path)
		addField("Mode", c.Mode.String())
		addField("Cache Size", fmt.Sprintf("%d bytes", c.CacheSize))
	case storage.KindTarantool, storage.KindRemote:
		addField("Address", c.Address)
		if c.Kind == storage.KindTarantool {
			addField("User", c.User)
			if c.Password != "" {
				addField("Password", "********")
			}
		} else {
			addField("Serializer", cmp.Or(c.Serializer, "binary"))
		}
		addField("Timeout", fmt.Sprintf("%d sec", c.timeout()))
	}

	return sb.String()
}

// timeout returns TimeoutSecond or the default
func (c *Config) timeout() int {
	if c.TimeoutSecond > 0 {
		return c.TimeoutSecond
	}
	return DefaultTimeoutSecond
}

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

// NewStorage validates cfg and creates the backend it describes. Builder, the
// Provide functions and FromConfig all construct their backends here.
func NewStorage(cfg Config) (storage.Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Logger.Debugf("creating storage%s", cfg.String())

	switch cfg.Kind {
	case storage.KindMemory:
		return openMemory(), nil
	case storage.KindLMDB:
		return asStorage(openLMDB(cfg))
	case storage.KindBadger:
		return asStorage(openBadger(cfg))
	case storage.KindTarantool:
		return asStorage(openTarantool(cfg))
	case storage.KindRemote:
		return asStorage(openRemote(cfg))
	default:
		// unreachable after Validate
		return nil, storage.NewError(storage.CodeConfiguration, fmt.Sprintf("vstorage: unknown storage kind %q", cfg.Kind))
	}
}

// FromConfig creates the backend described by cfg behind a dynamic wrapper.
func FromConfig(cfg Config) (*VStorage, error) {
	s, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}
	return New(s), nil
}

// EnumFromConfig creates the backend described by cfg behind an enum wrapper.
func EnumFromConfig(cfg Config) (*Enum, error) {
	s, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}
	return EnumOf(s)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func openMemory() *memory.Storage {
	return memory.New()
}

func openLMDB(cfg Config) (*lmdb.Storage, error) {
	return lmdb.New(cfg.Path, cfg.Mode, cfg.CacheSize)
}

func openBadger(cfg Config) (*badger.Storage, error) {
	return badger.New(cfg.Path, cfg.Mode, cfg.CacheSize)
}

func openTarantool(cfg Config) (*tarantool.Storage, error) {
	return tarantool.New(tarantool.Options{
		Address:  cfg.Address,
		User:     cfg.User,
		Password: cfg.Password,
		Timeout:  time.Duration(cfg.timeout()) * time.Second,
	})
}

func openRemote(cfg Config) (*client.RPCStorage, error) {
	ser, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, storage.WrapError(storage.CodeConfiguration, "vstorage: invalid serializer", err)
	}
	return client.Dial(cfg.Address, common.ClientConfig{TimeoutSecond: cfg.timeout()}, ser)
}

// asStorage turns a concrete constructor result into an interface value without
// producing a non-nil interface holding a nil pointer
func asStorage[S storage.Storage](s S, err error) (storage.Storage, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

func kindList() string {
	names := make([]string, 0, len(storage.Kinds()))
	for _, k := range storage.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

package tarantool

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/tarantool/go-tarantool/v2"
)

var Logger = logger.GetLogger("tarantool")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultTimeout bounds every single request
	DefaultTimeout = time.Second
	// reconnectInterval is the pause between two reconnect attempts
	reconnectInterval = 10 * time.Second
	// pageSize is the number of tuples fetched per request while iterating
	pageSize = 512
)

// DefaultSpaces are the space ids of the namespaces
var DefaultSpaces = [3]uint32{
	storage.Individuals: 512,
	storage.Tickets:     513,
	storage.Az:          514,
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures the connection to a Tarantool server.
type Options struct {
	Address  string
	User     string
	Password string
	Timeout  time.Duration // per request, 0 = DefaultTimeout
	Spaces   [3]uint32     // zero value = DefaultSpaces
}

func (o *Options) validate() error {
	if o.Address == "" {
		return storage.NewError(storage.CodeConfiguration, "tarantool: address must not be empty")
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Spaces == [3]uint32{} {
		o.Spaces = DefaultSpaces
	}
	return nil
}

// --------------------------------------------------------------------------
// Core Tarantool storage structure
// --------------------------------------------------------------------------

// Storage maps every namespace to a space holding [key, value] tuples with the key
// as primary index.
type Storage struct {
	conn   *tarantool.Connection
	opts   Options
	closed atomic.Bool
}

// New connects to the server. The connection reconnects on its own after it was
// established once.
//
// Thread-safety: the returned storage is safe for concurrent use.
func New(opts Options) (*Storage, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	dialer := tarantool.NetDialer{
		Address:  opts.Address,
		User:     opts.User,
		Password: opts.Password,
	}
	connOpts := tarantool.Opts{
		Timeout:   opts.Timeout,
		Reconnect: reconnectInterval,
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	conn, err := tarantool.Connect(ctx, dialer, connOpts)
	if err != nil {
		return nil, storage.WrapError(storage.CodeMedium, fmt.Sprintf("tarantool: failed to connect to %s", opts.Address), err)
	}

	Logger.Infof("connected to %s as %q", opts.Address, opts.User)
	return &Storage{conn: conn, opts: opts}, nil
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
	if err := s.check(id, key); err != nil {
		return nil, err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	req := tarantool.NewSelectRequest(s.opts.Spaces[id]).
		Index(0).
		Limit(1).
		Iterator(tarantool.IterEq).
		Key([]interface{}{key}).
		Context(ctx)

	data, err := s.conn.Do(req).Get()
	if err != nil {
		return nil, storage.WrapError(storage.CodeMedium, fmt.Sprintf("tarantool: failed to select %q from %s", key, id), err)
	}
	if len(data) == 0 {
		return nil, storage.NotFound(id, key)
	}

	_, value, err := decodeTuple(data[0])
	if err != nil {
		return nil, storage.WrapError(storage.CodeSerialization, fmt.Sprintf("tarantool: unexpected tuple for %q in %s", key, id), err)
	}
	return value, nil
}

// PutValue stores the value as a msgpack string.
func (s *Storage) PutValue(id storage.StorageID, key string, value string) error {
	return s.replace(id, key, value)
}

// PutRawValue stores the value as msgpack binary.
func (s *Storage) PutRawValue(id storage.StorageID, key string, value []byte) error {
	return s.replace(id, key, storage.Copy(value))
}

func (s *Storage) RemoveValue(id storage.StorageID, key string) error {
	if err := s.check(id, key); err != nil {
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	// delete of a missing key returns an empty result, not an error
	req := tarantool.NewDeleteRequest(s.opts.Spaces[id]).
		Index(0).
		Key([]interface{}{key}).
		Context(ctx)

	if _, err := s.conn.Do(req).Get(); err != nil {
		return storage.WrapError(storage.CodeMedium, fmt.Sprintf("tarantool: failed to delete %q from %s", key, id), err)
	}
	return nil
}

// Count returns space:len(). This is exact for memtx spaces and an estimate for
// vinyl spaces.
func (s *Storage) Count(id storage.StorageID) (int, error) {
	if err := storage.CheckID(id); err != nil {
		return 0, err
	}
	if s.closed.Load() {
		return 0, storage.NewError(storage.CodeMedium, "tarantool: storage is closed")
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	req := tarantool.NewEvalRequest("return box.space[...]:len()").
		Args([]interface{}{s.opts.Spaces[id]}).
		Context(ctx)

	data, err := s.conn.Do(req).Get()
	if err != nil {
		return 0, storage.WrapError(storage.CodeMedium, fmt.Sprintf("tarantool: failed to count %s", id), err)
	}
	if len(data) == 0 {
		return 0, storage.NewError(storage.CodeMedium, fmt.Sprintf("tarantool: empty count response for %s", id))
	}
	n, ok := toInt(data[0])
	if !ok {
		return 0, storage.NewError(storage.CodeSerialization, fmt.Sprintf("tarantool: unexpected count %v for %s", data[0], id))
	}
	return n, nil
}

// IterateAll pages through the primary index in key order. The view is live:
// tuples changed behind the current page may or may not be observed.
func (s *Storage) IterateAll(id storage.StorageID) (iter.Seq2[string, []byte], error) {
	if err := storage.CheckID(id); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, storage.NewError(storage.CodeMedium, "tarantool: storage is closed")
	}

	space := s.opts.Spaces[id]
	return storage.OneShot(func(yield func(string, []byte) bool) {
		iterator := tarantool.IterAll
		var after []interface{}

		for {
			data, err := s.page(space, iterator, after)
			if err != nil {
				Logger.Errorf("iteration over %s aborted: %v", id, err)
				return
			}
			for _, tuple := range data {
				k, v, err := decodeTuple(tuple)
				if err != nil {
					Logger.Errorf("iteration over %s aborted: %v", id, err)
					return
				}
				if !yield(k, v) {
					return
				}
				after = []interface{}{k}
			}
			if len(data) < pageSize {
				return
			}
			iterator = tarantool.IterGt
		}
	}), nil
}

func (s *Storage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return storage.WrapError(storage.CodeMedium, "tarantool: failed to close connection", err)
	}
	Logger.Infof("closed connection to %s", s.opts.Address)
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *Storage) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opts.Timeout)
}

func (s *Storage) check(id storage.StorageID, key string) error {
	if err := storage.CheckKey(id, key); err != nil {
		return err
	}
	if s.closed.Load() {
		return storage.NewError(storage.CodeMedium, "tarantool: storage is closed")
	}
	return nil
}

func (s *Storage) replace(id storage.StorageID, key string, value interface{}) error {
	if err := s.check(id, key); err != nil {
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	req := tarantool.NewReplaceRequest(s.opts.Spaces[id]).
		Tuple([]interface{}{key, value}).
		Context(ctx)

	if _, err := s.conn.Do(req).Get(); err != nil {
		return storage.WrapError(storage.CodeMedium, fmt.Sprintf("tarantool: failed to replace %q in %s", key, id), err)
	}
	return nil
}

func (s *Storage) page(space uint32, iterator tarantool.Iter, after []interface{}) ([]interface{}, error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	key := after
	if key == nil {
		key = []interface{}{}
	}
	req := tarantool.NewSelectRequest(space).
		Index(0).
		Limit(pageSize).
		Iterator(iterator).
		Key(key).
		Context(ctx)
	return s.conn.Do(req).Get()
}

// decodeTuple extracts key and value of a [key, value] tuple. The value may be
// stored as string or as binary.
func decodeTuple(t interface{}) (string, []byte, error) {
	tuple, ok := t.([]interface{})
	if !ok || len(tuple) < 2 {
		return "", nil, fmt.Errorf("expected [key, value] tuple, got %T", t)
	}
	key, ok := tuple[0].(string)
	if !ok {
		return "", nil, fmt.Errorf("expected string key, got %T", tuple[0])
	}
	switch v := tuple[1].(type) {
	case []byte:
		return key, storage.Copy(v), nil
	case string:
		return key, []byte(v), nil
	case nil:
		return key, []byte{}, nil
	default:
		return "", nil, fmt.Errorf("expected string or binary value, got %T", tuple[1])
	}
}

// toInt converts the integer types the msgpack decoder may produce
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

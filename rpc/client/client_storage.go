package client

import (
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
	"github.com/semantic-machines/v-storage/rpc/transport"
)

// NewRPCStorage connects the transport and returns a storage that forwards every
// operation to a remote server.
func NewRPCStorage(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*RPCStorage, error) {

	if err := transport.Connect(config); err != nil {
		return nil, storage.WrapError(storage.CodeMedium, "rpc: failed to connect", err)
	}

	return &RPCStorage{
		config:     config,
		transport:  transport,
		serializer: serializer,
	}, nil
}

// RPCStorage implements storage.Storage over an RPC transport.
type RPCStorage struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
	closed     atomic.Bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see storage.Storage)
// --------------------------------------------------------------------------

func (s *RPCStorage) GetIndividual(id storage.StorageID, key string, out *individual.Individual) error {
	raw, err := s.GetRawValue(id, key)
	if err != nil {
		return err
	}
	return storage.DecodeIndividual(id, key, raw, out)
}

func (s *RPCStorage) GetValue(id storage.StorageID, key string) (string, error) {
	raw, err := s.GetRawValue(id, key)
	if err != nil {
		return "", err
	}
	return storage.StringValue(id, key, raw)
}

func (s *RPCStorage) GetRawValue(id storage.StorageID, key string) ([]byte, error) {
	if err := s.check(id, key); err != nil {
		return nil, err
	}
	resp, err := invokeRPCRequest(uint64(id), common.NewGetRequest(key), s.transport, s.serializer)
	if err != nil {
		return nil, err
	}
	// text serializers drop empty values
	if resp.Value == nil {
		return []byte{}, nil
	}
	return resp.Value, nil
}

func (s *RPCStorage) PutValue(id storage.StorageID, key string, value string) error {
	return s.PutRawValue(id, key, []byte(value))
}

func (s *RPCStorage) PutRawValue(id storage.StorageID, key string, value []byte) error {
	if err := s.check(id, key); err != nil {
		return err
	}
	_, err := invokeRPCRequest(uint64(id), common.NewPutRequest(key, value), s.transport, s.serializer)
	return err
}

func (s *RPCStorage) RemoveValue(id storage.StorageID, key string) error {
	if err := s.check(id, key); err != nil {
		return err
	}
	_, err := invokeRPCRequest(uint64(id), common.NewRemoveRequest(key), s.transport, s.serializer)
	return err
}

// Count returns what the hosted backend counts.
func (s *RPCStorage) Count(id storage.StorageID) (int, error) {
	if err := s.checkID(id); err != nil {
		return 0, err
	}
	resp, err := invokeRPCRequest(uint64(id), common.NewCountRequest(), s.transport, s.serializer)
	if err != nil {
		return 0, err
	}
	return int(resp.Count), nil
}

// IterateAll fetches the keys of the namespace when called and the values while
// iterating. Keys removed in between are skipped. A failing fetch ends the
// iteration and is logged.
func (s *RPCStorage) IterateAll(id storage.StorageID) (iter.Seq2[string, []byte], error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	resp, err := invokeRPCRequest(uint64(id), common.NewKeysRequest(), s.transport, s.serializer)
	if err != nil {
		return nil, err
	}
	keys := resp.Keys

	return storage.OneShot(func(yield func(string, []byte) bool) {
		for _, k := range keys {
			v, err := s.GetRawValue(id, k)
			if storage.IsNotFound(err) {
				continue
			}
			if err != nil {
				Logger.Errorf("iteration over %s aborted: %v", id, err)
				return
			}
			if !yield(k, v) {
				return
			}
		}
	}), nil
}

func (s *RPCStorage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.transport.Close(); err != nil {
		return storage.WrapError(storage.CodeMedium, "rpc: failed to close transport", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Additional Methods
// --------------------------------------------------------------------------

// GetRawValueAsync starts GetRawValue in the background. The channel receives
// exactly one result and is closed afterwards; a caller may abandon it.
func (s *RPCStorage) GetRawValueAsync(id storage.StorageID, key string) <-chan storage.Result[[]byte] {
	ch := make(chan storage.Result[[]byte], 1)
	go func() {
		defer close(ch)
		ch <- storage.NewResult(s.GetRawValue(id, key))
	}()
	return ch
}

// Ping checks that the server answers.
func (s *RPCStorage) Ping() error {
	if s.closed.Load() {
		return storage.NewError(storage.CodeMedium, "rpc: storage is closed")
	}
	_, err := invokeRPCRequest(uint64(storage.Individuals), common.NewPingRequest(), s.transport, s.serializer)
	return err
}

// Config returns the client configuration the storage was created with.
func (s *RPCStorage) Config() common.ClientConfig {
	return s.config
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCStorage) check(id storage.StorageID, key string) error {
	if err := storage.CheckKey(id, key); err != nil {
		return err
	}
	if s.closed.Load() {
		return storage.NewError(storage.CodeMedium, fmt.Sprintf("rpc: storage is closed (%s)", id))
	}
	return nil
}

func (s *RPCStorage) checkID(id storage.StorageID) error {
	if err := storage.CheckID(id); err != nil {
		return err
	}
	if s.closed.Load() {
		return storage.NewError(storage.CodeMedium, fmt.Sprintf("rpc: storage is closed (%s)", id))
	}
	return nil
}

package server

import (
	"fmt"

	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/rpc/common"
)

// NewStorageServerAdapter returns the adapter that maps messages to storage.Storage calls
func NewStorageServerAdapter() IRPCServerAdapter {
	return &storageServerAdapterImpl{}
}

type storageServerAdapterImpl struct{}

func (adapter *storageServerAdapterImpl) Handle(id storage.StorageID, req *common.Message, backend storage.Storage) *common.Message {
	if backend == nil {
		return common.NewErrorResponse(uint8(storage.CodeNotReady), "handler: no storage backend")
	}

	switch req.MsgType {
	case common.MsgTPut:
		err := backend.PutRawValue(id, req.Key, req.Value)
		return common.NewPutResponse(code(err), err)
	case common.MsgTGet:
		val, err := backend.GetRawValue(id, req.Key)
		return common.NewGetResponse(val, code(err), err)
	case common.MsgTRemove:
		err := backend.RemoveValue(id, req.Key)
		return common.NewRemoveResponse(code(err), err)
	case common.MsgTCount:
		n, err := backend.Count(id)
		return common.NewCountResponse(uint64(max(n, 0)), code(err), err)
	case common.MsgTKeys:
		keys, err := collectKeys(id, backend)
		return common.NewKeysResponse(keys, code(err), err)
	case common.MsgTPing:
		return common.NewPingResponse()
	default:
		return common.NewErrorResponse(
			uint8(storage.CodeUnsupported),
			fmt.Sprintf("handler: unsupported message type: %s", req.MsgType),
		)
	}
}

// collectKeys snapshots the keys of a namespace
func collectKeys(id storage.StorageID, backend storage.Storage) ([]string, error) {
	seq, err := backend.IterateAll(id)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	for k := range seq {
		keys = append(keys, k)
	}
	return keys, nil
}

func code(err error) uint8 {
	return uint8(storage.CodeOf(err))
}

package server

import (
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle executes a request against the backend and returns the response.
	// Failures are reported in the response, Code carries the storage.ResultCode.
	Handle(id storage.StorageID, req *common.Message, backend storage.Storage) (resp *common.Message)
}

package client

import (
	"fmt"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
	"github.com/semantic-machines/v-storage/rpc/transport"
)

var (
	Logger = logger.GetLogger("rpc")
)

// invokeRPCRequest is a helper function used by the RPC client to send requests.
// It takes the route (namespace), a request message, a transport layer and a serializer as parameters.
// Failures are returned as *storage.Error: the result code reported by the server is kept,
// transport failures are medium errors and undecodable messages serialization errors.
func invokeRPCRequest(route uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, storage.WrapError(storage.CodeSerialization, fmt.Sprintf("rpc: failed to serialize %s request", req.MsgType), err)
	}

	respBytes, err := transport.Send(route, reqBytes)
	if err != nil {
		return nil, storage.WrapError(storage.CodeMedium, fmt.Sprintf("rpc: %s request failed", req.MsgType), err)
	}

	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, storage.WrapError(storage.CodeSerialization, fmt.Sprintf("rpc: failed to deserialize %s response", req.MsgType), err)
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError || resp.Code != 0 || resp.Err != "" {
		return nil, responseError(resp)
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, storage.NewError(storage.CodeMedium, fmt.Sprintf("rpc: unexpected message type %s, expected %s", resp.MsgType, req.MsgType))
	}

	return resp, nil
}

// responseError restores the storage error a server reported
func responseError(resp *common.Message) error {
	code := storage.ResultCode(resp.Code)
	if code == storage.CodeOk {
		code = storage.CodeMedium
	}
	msg := resp.Err
	if msg == "" {
		msg = fmt.Sprintf("rpc: server reported %s", code)
	}
	return storage.NewError(code, msg)
}

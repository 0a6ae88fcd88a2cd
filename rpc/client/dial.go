package client

import (
	"fmt"

	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
	"github.com/semantic-machines/v-storage/rpc/transport"
	"github.com/semantic-machines/v-storage/rpc/transport/http"
	"github.com/semantic-machines/v-storage/rpc/transport/tcp"
	"github.com/semantic-machines/v-storage/rpc/transport/unix"
)

// NewTransport returns the client transport for a scheme (see common.ParseAddress)
func NewTransport(scheme string) (transport.IRPCClientTransport, error) {
	switch scheme {
	case common.SchemeTCP:
		return tcp.NewTCPClientTransport(), nil
	case common.SchemeUnix:
		return unix.NewUnixClientTransport(), nil
	case common.SchemeHTTP:
		return http.NewHttpClientTransport(), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", scheme)
	}
}

// Dial connects to the server at address. The endpoints of config are replaced by
// the endpoint of the address. A nil serializer selects the binary serializer.
func Dial(address string, config common.ClientConfig, ser serializer.IRPCSerializer) (*RPCStorage, error) {
	scheme, endpoint, err := common.ParseAddress(address)
	if err != nil {
		return nil, storage.WrapError(storage.CodeConfiguration, "rpc: invalid address", err)
	}

	t, err := NewTransport(scheme)
	if err != nil {
		return nil, storage.WrapError(storage.CodeConfiguration, "rpc: invalid address", err)
	}

	if ser == nil {
		ser = serializer.NewBinarySerializer()
	}

	config.Transport.Endpoints = []string{endpoint}
	Logger.Debugf("dialing %s over %s", endpoint, scheme)
	return NewRPCStorage(config, t, ser)
}

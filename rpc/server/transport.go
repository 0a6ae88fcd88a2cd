package server

import (
	"fmt"

	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/transport"
	"github.com/semantic-machines/v-storage/rpc/transport/http"
	"github.com/semantic-machines/v-storage/rpc/transport/tcp"
	"github.com/semantic-machines/v-storage/rpc/transport/unix"
)

// NewTransport parses a listen address (see common.ParseAddress) and returns the
// matching server transport together with the endpoint to bind.
func NewTransport(address string) (transport.IRPCServerTransport, string, error) {
	scheme, endpoint, err := common.ParseAddress(address)
	if err != nil {
		return nil, "", err
	}

	switch scheme {
	case common.SchemeTCP:
		return tcp.NewTCPServerTransport(), endpoint, nil
	case common.SchemeUnix:
		return unix.NewUnixServerTransport(), endpoint, nil
	case common.SchemeHTTP:
		// the http server binds host:port, not the url
		return http.NewHttpServerTransport(), endpoint[len(common.SchemeHTTP+"://"):], nil
	default:
		return nil, "", fmt.Errorf("unsupported transport %q", scheme)
	}
}

package common

import (
	"fmt"
	"strings"
)

// Transport schemes of a remote address
const (
	SchemeTCP  = "tcp"
	SchemeUnix = "unix"
	SchemeHTTP = "http"
)

// ParseAddress splits an address of the form scheme://endpoint into the transport
// scheme and the endpoint. An address without scheme is a tcp address. For http
// the endpoint keeps the scheme since the http transport needs a url.
//
//	tcp://127.0.0.1:9000   -> tcp, 127.0.0.1:9000
//	unix:///run/vs.sock    -> unix, /run/vs.sock
//	http://127.0.0.1:8080  -> http, http://127.0.0.1:8080
//	127.0.0.1:9000         -> tcp, 127.0.0.1:9000
func ParseAddress(address string) (scheme string, endpoint string, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", "", fmt.Errorf("address must not be empty")
	}

	scheme, endpoint, found := strings.Cut(address, "://")
	if !found {
		return SchemeTCP, address, nil
	}

	scheme = strings.ToLower(scheme)
	if endpoint == "" {
		return "", "", fmt.Errorf("address %q has no endpoint", address)
	}

	switch scheme {
	case SchemeTCP, SchemeUnix:
		return scheme, endpoint, nil
	case SchemeHTTP:
		return scheme, SchemeHTTP + "://" + endpoint, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q in address %q, must be one of tcp, unix, http", scheme, address)
	}
}

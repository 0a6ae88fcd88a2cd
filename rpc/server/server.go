package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
	"github.com/semantic-machines/v-storage/rpc/transport"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server that exposes backend over transport.
// The server does not own the backend, the caller closes it after the server.
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//		memory.New(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	backend storage.Storage,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Debugf("created RPC server%s", config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		backend:    backend,
		adapter:    NewStorageServerAdapter(),
		metrics:    newServerMetrics(),
		done:       make(chan struct{}),
	}
}

// RPCServer routes the requests of a transport to one storage backend
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	backend    storage.Storage
	adapter    IRPCServerAdapter
	metrics    *serverMetrics

	metricsServer *http.Server
	metricsAddr   string
	done          chan struct{}
	closeOnce     sync.Once
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// Listen starts the transport (and the metrics endpoint if configured) and returns
// once the endpoint is bound.
func (s *RPCServer) Listen() error {
	s.registerTransportHandler()

	if err := s.transport.Listen(s.config); err != nil {
		return storage.WrapError(storage.CodeMedium, "rpc: failed to listen", err)
	}

	if s.config.MetricsEndpoint != "" {
		if err := s.serveMetrics(); err != nil {
			s.transport.Close()
			return storage.WrapError(storage.CodeMedium, "rpc: failed to serve metrics", err)
		}
	}

	Logger.Infof("serving storage on %s", s.transport.Addr())
	return nil
}

// Serve listens and blocks until Close is called or the process receives
// SIGINT or SIGTERM.
func (s *RPCServer) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-s.done:
		return nil
	case received := <-sig:
		Logger.Infof("received %s, shutting down", received)
		return s.Close()
	}
}

// Addr returns the address the transport is bound to
func (s *RPCServer) Addr() string {
	return s.transport.Addr()
}

// Close stops the metrics endpoint and the transport.
func (s *RPCServer) Close() (err error) {
	s.closeOnce.Do(func() {
		if s.metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if mErr := s.metricsServer.Shutdown(ctx); mErr != nil {
				Logger.Warningf("failed to stop metrics endpoint: %v", mErr)
			}
		}
		err = s.transport.Close()
		close(s.done)
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(route uint64, req []byte) []byte {
		start := time.Now()
		var msg common.Message
		var respMsg *common.Message

		id := storage.StorageID(route)
		if route > uint64(^uint8(0)) || !id.IsValid() {
			respMsg = common.NewErrorResponse(uint8(storage.CodeInvalidArgument), fmt.Sprintf("unknown storage id %d", route))
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(uint8(storage.CodeSerialization), fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			respMsg = s.adapter.Handle(id, &msg, s.backend)
		}

		s.metrics.observe(msg.MsgType, storage.ResultCode(respMsg.Code), start)

		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			// the error response has no payload that could fail
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(uint8(storage.CodeSerialization), fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

func (s *RPCServer) serveMetrics() error {
	listener, err := net.Listen("tcp", s.config.MetricsEndpoint)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		s.metrics.set.WritePrometheus(w)
		metrics.WriteProcessMetrics(w)
	})
	s.metricsServer = &http.Server{Handler: mux}
	s.metricsAddr = listener.Addr().String()

	go func() {
		if err := s.metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint stopped: %v", err)
		}
	}()

	Logger.Infof("serving metrics on http://%s/metrics", listener.Addr())
	return nil
}

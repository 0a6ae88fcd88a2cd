package serve

import (
	"fmt"

	cmdUtil "github.com/semantic-machines/v-storage/cmd/util"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/vstorage"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/semantic-machines/v-storage/rpc/serializer"
	"github.com/semantic-machines/v-storage/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	storageConfig  vstorage.Config

	ServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve a storage backend over the network",
		Long: `Serve a storage backend to remote clients. The hosted backend is selected with the same
flags the kv commands use (--kind, --path, ...). The configuration can be set via command line flags
or environment variables. The format of the environment variables is VSTORAGE_<flag> (e.g. VSTORAGE_LISTEN=unix:///run/vs.sock)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	cmdUtil.SetupStorageFlags(ServeCmd, storage.KindMemory)

	key := "listen"
	ServeCmd.PersistentFlags().String(key, "tcp://0.0.0.0:9000", cmdUtil.WrapString("The address the server listens on (tcp://host:port, unix:///path/to.sock or http://host:port)"))

	key = "workers"
	ServeCmd.PersistentFlags().Int(key, 256, cmdUtil.WrapString("(tcp, unix) Number of workers processing requests"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("(tcp, unix) Size of the read buffers in KB, 0 uses the transport default"))

	key = "idle-timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("(tcp, unix) Close connections that sent no request for this many seconds, 0 keeps them open"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("host:port to expose Prometheus metrics on (GET /metrics), empty disables metrics"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("(tcp) Enable TCP_NODELAY"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 30, cmdUtil.WrapString("(tcp) Keep alive interval in seconds"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("(tcp) Linger time in seconds, negative keeps the system default"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("(tcp) Socket write buffer in KB, 0 keeps the system default"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("(tcp) Socket read buffer in KB, 0 keeps the system default"))
}

// processConfig reads the flags and environment variables into the server and storage configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.Setup(cmd); err != nil {
		return err
	}

	var err error
	if storageConfig, err = cmdUtil.GetStorageConfig(); err != nil {
		return err
	}

	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.IdleTimeoutSecond = viper.GetInt64("idle-timeout")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Storage = string(storageConfig.Kind)
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Workers:    viper.GetInt("workers"),
		BufferSize: viper.GetInt("buffer-size") * 1024,
		SocketConf: common.SocketConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
			WriteBufferSize: viper.GetInt("write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		},
	}

	return nil
}

// run opens the backend and serves it until the process is stopped
func run(_ *cobra.Command, _ []string) error {
	s, err := serializer.New(viper.GetString("serializer"))
	if err != nil {
		return err
	}

	t, endpoint, err := server.NewTransport(viper.GetString("listen"))
	if err != nil {
		return err
	}
	serveCmdConfig.Transport.Endpoint = endpoint

	backend, err := vstorage.NewStorage(storageConfig)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", storageConfig.Kind, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			server.Logger.Errorf("failed to close storage: %v", err)
		}
	}()

	serv := server.NewRPCServer(*serveCmdConfig, t, s, backend)
	return serv.Serve()
}

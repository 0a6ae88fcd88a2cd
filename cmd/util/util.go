package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/vstorage"
	"github.com/semantic-machines/v-storage/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables, e.g. VSTORAGE_KIND
	EnvPrefix = "vstorage"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// InitConfig loads .env files and makes viper read VSTORAGE_* environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Setup binds the flags of cmd to viper and initializes the loggers. It is the
// first step of every command that touches a storage.
func Setup(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return common.InitLoggers(viper.GetString("log-level"))
}

// SetupStorageFlags adds the flags that describe a storage backend to a command
func SetupStorageFlags(cmd *cobra.Command, defaultKind storage.Kind) {
	key := "kind"
	cmd.PersistentFlags().String(key, string(defaultKind), WrapString("The storage backend (memory, lmdb, badger, tarantool, remote)"))

	key = "path"
	cmd.PersistentFlags().String(key, "./data", WrapString("(lmdb, badger) The directory of the database files"))

	key = "mode"
	cmd.PersistentFlags().String(key, "rw", WrapString("(lmdb, badger) Open the database read-write (rw) or read-only (ro)"))

	key = "cache-size"
	cmd.PersistentFlags().Uint64(key, 0, WrapString("(lmdb, badger) Cache size hint in bytes, 0 keeps the backend default"))

	key = "address"
	cmd.PersistentFlags().String(key, "tcp://127.0.0.1:9000", WrapString("(tarantool) host:port of the Tarantool server. (remote) Address of the v-storage server, e.g. tcp://host:port, unix:///path/to.sock or http://host:port"))

	key = "user"
	cmd.PersistentFlags().String(key, "guest", WrapString("(tarantool) The user to log in with"))

	key = "password"
	cmd.PersistentFlags().String(key, "", WrapString("(tarantool) The password of the user"))

	key = "serializer"
	cmd.PersistentFlags().String(key, "binary", WrapString("(remote) The wire format (binary, json, gob, msgpack)"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, vstorage.DefaultTimeoutSecond, WrapString("(tarantool, remote) Request timeout in seconds"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The level at which logs will be output (debug, info, warn, error)"))
}

// GetStorageConfig reads the storage configuration from viper
func GetStorageConfig() (vstorage.Config, error) {
	mode, err := storage.ParseMode(viper.GetString("mode"))
	if err != nil {
		return vstorage.Config{}, err
	}

	cfg := vstorage.Config{
		Kind:          storage.Kind(viper.GetString("kind")),
		Path:          viper.GetString("path"),
		Mode:          mode,
		CacheSize:     viper.GetUint64("cache-size"),
		Address:       viper.GetString("address"),
		User:          viper.GetString("user"),
		Password:      viper.GetString("password"),
		Serializer:    viper.GetString("serializer"),
		TimeoutSecond: viper.GetInt("timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return vstorage.Config{}, err
	}
	return cfg, nil
}

// ParseNamespace parses a namespace argument (individuals, tickets, az)
func ParseNamespace(arg string) (storage.StorageID, error) {
	id, err := storage.ParseStorageID(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid namespace %q (expected individuals, tickets or az)", arg)
	}
	return id, nil
}

package kv

import (
	"github.com/semantic-machines/v-storage/cmd/util"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/vstorage"
	"github.com/spf13/cobra"
)

var (
	store *vstorage.VStorage

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:   "kv",
		Short: "Perform key-value operations on a storage backend",
		Long: `Perform key-value operations on any storage backend. By default the commands talk to a
v-storage server (--kind remote --address tcp://127.0.0.1:9000), but every backend kind can be
opened directly, e.g. --kind lmdb --path ./data`,
		PersistentPreRunE:  setupStorage,
		PersistentPostRunE: closeStorage,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupStorageFlags(KeyValueCommands, storage.KindRemote)

	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(removeCmd)
	KeyValueCommands.AddCommand(countCmd)
	KeyValueCommands.AddCommand(individualCmd)
	KeyValueCommands.AddCommand(dumpCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupStorage opens the configured backend
func setupStorage(cmd *cobra.Command, _ []string) error {
	if err := util.Setup(cmd); err != nil {
		return err
	}

	cfg, err := util.GetStorageConfig()
	if err != nil {
		return err
	}

	store, err = vstorage.FromConfig(cfg)
	return err
}

func closeStorage(_ *cobra.Command, _ []string) error {
	if store == nil {
		return nil
	}
	return store.Close()
}

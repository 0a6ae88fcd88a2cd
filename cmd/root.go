package cmd

import (
	"fmt"
	"os"

	"github.com/semantic-machines/v-storage/cmd/kv"
	"github.com/semantic-machines/v-storage/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "vstorage",
		Short: "pluggable key-value storage",
		Long: fmt.Sprintf(`v-storage (v%s)

A key-value storage layer with interchangeable backends (memory, lmdb, badger,
tarantool, remote) for individuals, tickets and authorization data.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of v-storage",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("v-storage v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

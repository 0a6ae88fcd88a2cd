package kv

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/semantic-machines/v-storage/cmd/util"
	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [namespace] [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseNamespace(args[0])
			if err != nil {
				return err
			}
			if err := store.PutValue(id, args[1], args[2]); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [namespace] [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseNamespace(args[0])
			if err != nil {
				return err
			}
			value, err := store.GetRawValue(id, args[1])
			if storage.IsNotFound(err) {
				fmt.Printf("key=%s, found=false\n", args[1])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=true, value=%s\n", args[1], printable(value))
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [namespace] [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseNamespace(args[0])
			if err != nil {
				return err
			}
			if err := store.RemoveValue(id, args[1]); err != nil {
				return err
			}
			fmt.Println("removed successfully")
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count [namespace]",
		Short: "Counts the keys of a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseNamespace(args[0])
			if err != nil {
				return err
			}
			n, err := store.Count(id)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d keys\n", id, n)
			return nil
		},
	}
	individualCmd = &cobra.Command{
		Use:   "individual [uri]",
		Short: "Loads an individual and prints its predicates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var indv individual.Individual
			if err := store.LoadIndividual(args[0], &indv); err != nil {
				return err
			}
			fmt.Printf("@%s\n", indv.URI())
			for _, predicate := range indv.Predicates() {
				for _, r := range indv.Resources(predicate) {
					fmt.Printf("  %s = %s\n", predicate, formatResource(r))
				}
			}
			return nil
		},
	}
	dumpLimit int
	dumpCmd   = &cobra.Command{
		Use:   "dump [namespace]",
		Short: "Prints all key value pairs of a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseNamespace(args[0])
			if err != nil {
				return err
			}
			seq, err := store.IterateAll(id)
			if err != nil {
				return err
			}
			n := 0
			for key, value := range seq {
				if dumpLimit > 0 && n >= dumpLimit {
					break
				}
				fmt.Printf("%s=%s\n", key, printable(value))
				n++
			}
			fmt.Printf("(%d entries)\n", n)
			return nil
		},
	}
)

func init() {
	dumpCmd.Flags().IntVar(&dumpLimit, "limit", 0, util.WrapString("Stop after this many entries, 0 prints all"))
}

// printable returns value as text if it is valid utf-8, as hex otherwise
func printable(value []byte) string {
	if utf8.Valid(value) {
		return string(value)
	}
	return "0x" + hex.EncodeToString(value)
}

func formatResource(r individual.Resource) string {
	switch r.Type {
	case individual.Uri:
		return "<" + r.Str + ">"
	case individual.String:
		switch r.Lang {
		case individual.LangRU:
			return strconv.Quote(r.Str) + "@ru"
		case individual.LangEN:
			return strconv.Quote(r.Str) + "@en"
		default:
			return strconv.Quote(r.Str)
		}
	case individual.Integer:
		return strconv.FormatInt(r.Int, 10)
	case individual.Datetime:
		return time.Unix(r.Int, 0).UTC().Format(time.RFC3339)
	case individual.Decimal:
		return fmt.Sprintf("%de%d", r.Int, r.Exponent)
	case individual.Boolean:
		return strconv.FormatBool(r.Bool)
	case individual.Binary:
		return "0x" + hex.EncodeToString(r.Bin)
	default:
		return fmt.Sprintf("(%s)", r.Type)
	}
}

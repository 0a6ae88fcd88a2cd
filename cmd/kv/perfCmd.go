package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/semantic-machines/v-storage/cmd/util"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/lib/storage/engines/badger"
	"github.com/semantic-machines/v-storage/lib/storage/engines/lmdb"
	"github.com/semantic-machines/v-storage/lib/storage/engines/memory"
	"github.com/semantic-machines/v-storage/lib/storage/engines/tarantool"
	"github.com/semantic-machines/v-storage/lib/vstorage"
	"github.com/semantic-machines/v-storage/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:   "perf",
		Short: "Performance testing tool for storage backends",
		Long: `Runs the same benchmarks through the dynamic, generic and enum wrapper of the
configured backend. All keys are written to the tickets namespace and removed afterwards.`,
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__perf"
	perfNamespace        = storage.Tickets
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
	perfStrategies       = []string{"dynamic", "generic", "enum"}
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "strategies"
	perfTestCmd.Flags().String(key, "dynamic,generic,enum", util.WrapString("Dispatch strategies to compare (comma separated)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfNumThreads = max(1, viper.GetInt("threads"))
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	perfStrategies = strings.Split(viper.GetString("strategies"), ",")

	return nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// perfBenchmark is one operation measured against every strategy
type perfBenchmark struct {
	name string
	// prefill writes all keys before the timer starts
	prefill bool
	op      func(s storage.Storage, key string, counter int) error
}

func perfBenchmarks() []perfBenchmark {
	small := []byte("test")
	large := make([]byte, perfLargeValueSizeKB*1024)

	return []perfBenchmark{
		{name: "put", op: func(s storage.Storage, key string, _ int) error {
			return s.PutRawValue(perfNamespace, key, small)
		}},
		{name: "put-large", op: func(s storage.Storage, key string, _ int) error {
			return s.PutRawValue(perfNamespace, key, large)
		}},
		{name: "get", prefill: true, op: func(s storage.Storage, key string, _ int) error {
			_, err := s.GetRawValue(perfNamespace, key)
			return err
		}},
		{name: "get-not", op: func(s storage.Storage, key string, _ int) error {
			_, err := s.GetRawValue(perfNamespace, key+"-missing")
			if storage.IsNotFound(err) {
				return nil
			}
			return err
		}},
		{name: "remove", prefill: true, op: func(s storage.Storage, key string, _ int) error {
			return s.RemoveValue(perfNamespace, key)
		}},
		{name: "mixed", prefill: true, op: func(s storage.Storage, key string, counter int) error {
			switch counter % 3 {
			case 0:
				return s.PutRawValue(perfNamespace, key, small)
			case 1:
				_, err := s.GetRawValue(perfNamespace, key)
				if storage.IsNotFound(err) {
					return nil
				}
				return err
			default:
				return s.RemoveValue(perfNamespace, key)
			}
		}},
	}
}

// perfResult is the outcome of one benchmark with one strategy
type perfResult struct {
	strategy string
	test     string
	result   testing.BenchmarkResult
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for storage backends")

	cfg, err := util.GetStorageConfig()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(cfg.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	wrappers, err := dispatchWrappers(store.Storage())
	if err != nil {
		return err
	}

	fmt.Println("starting tests...")

	var results []perfResult
	for _, strategy := range perfStrategies {
		s, ok := wrappers[strings.TrimSpace(strategy)]
		if !ok {
			return fmt.Errorf("unknown strategy %q (expected dynamic, generic or enum)", strategy)
		}

		fmt.Printf("\n[%s]\n", strategy)
		for _, bm := range perfBenchmarks() {
			result := runBenchmark(s, bm)
			results = append(results, perfResult{strategy: strategy, test: bm.name, result: result})
			printResult(bm.name, result)
		}
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, cfg); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runBenchmark measures bm against s
func runBenchmark(s storage.Storage, bm perfBenchmark) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		if shouldSkip(bm.name) {
			return
		}

		getKey, iter := getKeys(bm.name)

		if bm.prefill {
			iter(func(k string) {
				if err := s.PutRawValue(perfNamespace, k, []byte("test")); err != nil {
					log.Printf("(%s) - error setting key: %v\n", bm.name, err)
				}
			})
		}

		b.Cleanup(func() {
			iter(func(k string) {
				if err := s.RemoveValue(perfNamespace, k); err != nil {
					log.Printf("(%s) - error removing key: %v\n", bm.name, err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if err := bm.op(s, getKey(counter), counter); err != nil {
					log.Printf("(%s) - error: %v\n", bm.name, err)
				}
				counter++
			}
		})
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// dispatchWrappers wraps one backend in every dispatch strategy. The wrappers share
// the backend, none of them may be closed.
func dispatchWrappers(backend storage.Storage) (map[string]storage.Storage, error) {
	enum, err := vstorage.EnumOf(backend)
	if err != nil {
		return nil, err
	}

	var generic storage.Storage
	switch b := backend.(type) {
	case *memory.Storage:
		generic = vstorage.NewGeneric(b)
	case *lmdb.Storage:
		generic = vstorage.NewGeneric(b)
	case *badger.Storage:
		generic = vstorage.NewGeneric(b)
	case *tarantool.Storage:
		generic = vstorage.NewGeneric(b)
	case *client.RPCStorage:
		generic = vstorage.NewGeneric(b)
	default:
		return nil, fmt.Errorf("no generic wrapper for %T", backend)
	}

	return map[string]storage.Storage{
		"dynamic": vstorage.New(backend),
		"generic": generic,
		"enum":    enum,
	}, nil
}

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1)
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult, cfg vstorage.Config) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Strategy", "Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Kind", "Path", "Address", "Serializer", "TimeoutSec",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		var nsPerOp float64
		var opsPerSec float64
		skipped := "true"

		if r.result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(r.result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			r.strategy,
			r.test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			string(cfg.Kind),
			cfg.Path,
			cfg.Address,
			cfg.Serializer,
			strconv.Itoa(cfg.TimeoutSecond),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s/%s: %v", r.strategy, r.test, err)
		}
	}

	return writer.Error()
}

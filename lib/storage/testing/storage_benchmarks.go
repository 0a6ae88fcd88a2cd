package testing

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/semantic-machines/v-storage/lib/storage"
)

// RunStorageBenchmarks runs all benchmarks for a storage implementation
func RunStorageBenchmarks(b *testing.B, name string, factory StorageFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, factory(b))
		})

		b.Run("PutLargeValue", func(b *testing.B) {
			benchmarkPutLargeValue(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("Get(not)", func(b *testing.B) {
			benchmarkGetNot(b, factory(b))
		})

		b.Run("Remove", func(b *testing.B) {
			benchmarkRemove(b, factory(b))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

const benchKeys = 1000

func benchKey(i int) string {
	return fmt.Sprintf("bench-key-%d", i%benchKeys)
}

func prefill(b *testing.B, s storage.Storage) {
	for i := 0; i < benchKeys; i++ {
		if err := s.PutValue(storage.Individuals, benchKey(i), "bench-value"); err != nil {
			b.Fatalf("prefill failed: %v", err)
		}
	}
}

func benchmarkPut(b *testing.B, s storage.Storage) {
	b.Cleanup(func() { s.Close() })

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			s.PutValue(storage.Individuals, benchKey(counter), "bench-value")
			counter++
		}
	})
}

func benchmarkPutLargeValue(b *testing.B, s storage.Storage) {
	b.Cleanup(func() { s.Close() })

	value := make([]byte, 64*1024)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			s.PutRawValue(storage.Individuals, benchKey(counter), value)
			counter++
		}
	})
}

func benchmarkGet(b *testing.B, s storage.Storage) {
	b.Cleanup(func() { s.Close() })
	prefill(b, s)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			s.GetRawValue(storage.Individuals, benchKey(counter))
			counter++
		}
	})
}

func benchmarkGetNot(b *testing.B, s storage.Storage) {
	b.Cleanup(func() { s.Close() })

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			s.GetRawValue(storage.Tickets, benchKey(counter))
			counter++
		}
	})
}

func benchmarkRemove(b *testing.B, s storage.Storage) {
	b.Cleanup(func() { s.Close() })
	prefill(b, s)

	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1) - 1)
			s.RemoveValue(storage.Individuals, benchKey(idx))
		}
	})
}

func benchmarkMixedUsage(b *testing.B, s storage.Storage) {
	b.Cleanup(func() { s.Close() })
	prefill(b, s)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := benchKey(counter)
			switch counter % 4 {
			case 0:
				s.PutValue(storage.Individuals, key, "bench-value")
			case 1:
				s.GetRawValue(storage.Individuals, key)
			case 2:
				s.RemoveValue(storage.Individuals, key)
			case 3:
				s.Count(storage.Tickets)
			}
			counter++
		}
	})
}

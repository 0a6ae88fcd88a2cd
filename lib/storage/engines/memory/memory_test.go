package memory

import (
	"testing"

	"github.com/semantic-machines/v-storage/lib/storage"
	storagetesting "github.com/semantic-machines/v-storage/lib/storage/testing"
)

func Test(t *testing.T) {
	storagetesting.RunStorageTests(t, "Memory", func(testing.TB) storage.Storage {
		return New()
	}, storagetesting.Options{ExactCount: true})
}

func TestClosedStorage(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if code := storage.CodeOf(s.PutValue(storage.Az, "k", "v")); code != storage.CodeMedium {
		t.Errorf("Expected MediumError after close, got %s", code)
	}
}

func Benchmark(b *testing.B) {
	storagetesting.RunStorageBenchmarks(b, "Memory", func(testing.TB) storage.Storage {
		return New()
	})
}

package testing

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/lib/storage"
)

// StorageFactory creates a new, empty instance of a storage implementation.
// The suite closes every instance it creates.
type StorageFactory func(t testing.TB) storage.Storage

// Options tunes the suite to the guarantees of an implementation.
type Options struct {
	// ExactCount enables the exact count assertions.
	ExactCount bool
}

// RunStorageTests runs the conformance suite against a storage implementation.
func RunStorageTests(t *testing.T, name string, factory StorageFactory, opts Options) {
	t.Run(name, func(t *testing.T) {
		t.Run("PutGet", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("RawRoundTrip", func(t *testing.T) {
			testRawRoundTrip(t, factory(t))
		})

		t.Run("NotFound", func(t *testing.T) {
			testNotFound(t, factory(t))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory(t))
		})

		t.Run("IdempotentRemove", func(t *testing.T) {
			testIdempotentRemove(t, factory(t))
		})

		t.Run("NamespaceIsolation", func(t *testing.T) {
			testNamespaceIsolation(t, factory(t))
		})

		t.Run("Count", func(t *testing.T) {
			testCount(t, factory(t), opts)
		})

		t.Run("IterateAll", func(t *testing.T) {
			testIterateAll(t, factory(t))
		})

		t.Run("GetIndividual", func(t *testing.T) {
			testGetIndividual(t, factory(t))
		})

		t.Run("InvalidArguments", func(t *testing.T) {
			testInvalidArguments(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})

		t.Run("Legacy", func(t *testing.T) {
			testLegacy(t, factory(t))
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, factory(t))
		})

		t.Run("Close", func(t *testing.T) {
			testClose(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func requireCode(t testing.TB, err error, want storage.ResultCode) {
	t.Helper()
	if got := storage.CodeOf(err); got != want {
		t.Fatalf("Expected %s, got %s (err: %v)", want, got, err)
	}
}

func closeStorage(t testing.TB, s storage.Storage) {
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	requireCode(t, s.PutValue(storage.Individuals, "k1", "v1"), storage.CodeOk)

	v, err := s.GetValue(storage.Individuals, "k1")
	requireCode(t, err, storage.CodeOk)
	if v != "v1" {
		t.Errorf("Expected value v1, got %s", v)
	}

	raw, err := s.GetRawValue(storage.Individuals, "k1")
	requireCode(t, err, storage.CodeOk)
	if !bytes.Equal(raw, []byte("v1")) {
		t.Errorf("Expected raw value v1, got %s", raw)
	}
}

func testRawRoundTrip(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	value := []byte{0x00, 0x01, 0xfe, 0xff}
	requireCode(t, s.PutRawValue(storage.Tickets, "bin", value), storage.CodeOk)

	got, err := s.GetRawValue(storage.Tickets, "bin")
	requireCode(t, err, storage.CodeOk)
	if !bytes.Equal(got, value) {
		t.Errorf("Expected %v, got %v", value, got)
	}

	// the returned slice must not alias internal state
	got[0] = 'X'
	again, err := s.GetRawValue(storage.Tickets, "bin")
	requireCode(t, err, storage.CodeOk)
	if !bytes.Equal(again, value) {
		t.Errorf("GetRawValue should return a copy, got %v", again)
	}

	// a value that is not valid utf-8 cannot be returned as string
	_, err = s.GetValue(storage.Tickets, "bin")
	requireCode(t, err, storage.CodeSerialization)
}

func testNotFound(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	_, err := s.GetValue(storage.Individuals, "missing")
	requireCode(t, err, storage.CodeNotFound)

	_, err = s.GetRawValue(storage.Az, "missing")
	requireCode(t, err, storage.CodeNotFound)

	var indv individual.Individual
	requireCode(t, s.GetIndividual(storage.Individuals, "missing", &indv), storage.CodeNotFound)
}

func testOverwrite(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	requireCode(t, s.PutValue(storage.Az, "k", "first"), storage.CodeOk)
	requireCode(t, s.PutValue(storage.Az, "k", "second"), storage.CodeOk)

	v, err := s.GetValue(storage.Az, "k")
	requireCode(t, err, storage.CodeOk)
	if v != "second" {
		t.Errorf("Expected value second, got %s", v)
	}
}

func testIdempotentRemove(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	requireCode(t, s.PutValue(storage.Tickets, "k", "v"), storage.CodeOk)
	requireCode(t, s.RemoveValue(storage.Tickets, "k"), storage.CodeOk)

	_, err := s.GetValue(storage.Tickets, "k")
	requireCode(t, err, storage.CodeNotFound)

	// removing an absent key twice is still Ok
	requireCode(t, s.RemoveValue(storage.Tickets, "k"), storage.CodeOk)
	requireCode(t, s.RemoveValue(storage.Tickets, "never-existed"), storage.CodeOk)
	requireCode(t, s.RemoveValue(storage.Tickets, "never-existed"), storage.CodeOk)
}

func testNamespaceIsolation(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	for _, id := range storage.StorageIDs() {
		requireCode(t, s.PutValue(id, "shared", "value-"+id.String()), storage.CodeOk)
	}

	for _, id := range storage.StorageIDs() {
		v, err := s.GetValue(id, "shared")
		requireCode(t, err, storage.CodeOk)
		if v != "value-"+id.String() {
			t.Errorf("Expected value-%s in %s, got %s", id, id, v)
		}
	}

	requireCode(t, s.RemoveValue(storage.Tickets, "shared"), storage.CodeOk)

	_, err := s.GetValue(storage.Tickets, "shared")
	requireCode(t, err, storage.CodeNotFound)
	for _, id := range []storage.StorageID{storage.Individuals, storage.Az} {
		if _, err := s.GetValue(id, "shared"); err != nil {
			t.Errorf("Remove in tickets must not affect %s: %v", id, err)
		}
	}

	requireCode(t, s.PutValue(storage.Individuals, "only-individuals", "x"), storage.CodeOk)
	_, err = s.GetValue(storage.Az, "only-individuals")
	requireCode(t, err, storage.CodeNotFound)
}

func testCount(t *testing.T, s storage.Storage, opts Options) {
	defer closeStorage(t, s)

	n, err := s.Count(storage.Az)
	requireCode(t, err, storage.CodeOk)
	if opts.ExactCount && n != 0 {
		t.Errorf("Expected empty namespace to count 0, got %d", n)
	}

	for i := 0; i < 10; i++ {
		requireCode(t, s.PutValue(storage.Az, fmt.Sprintf("key-%d", i), "v"), storage.CodeOk)
	}
	// overwriting does not add keys
	requireCode(t, s.PutValue(storage.Az, "key-0", "v2"), storage.CodeOk)
	requireCode(t, s.PutValue(storage.Tickets, "other", "v"), storage.CodeOk)
	requireCode(t, s.RemoveValue(storage.Az, "key-9"), storage.CodeOk)
	requireCode(t, s.RemoveValue(storage.Az, "absent"), storage.CodeOk)

	n, err = s.Count(storage.Az)
	requireCode(t, err, storage.CodeOk)
	if opts.ExactCount && n != 9 {
		t.Errorf("Expected count 9, got %d", n)
	}
	if n < 0 {
		t.Errorf("Count must not be negative, got %d", n)
	}

	n, err = s.Count(storage.Tickets)
	requireCode(t, err, storage.CodeOk)
	if opts.ExactCount && n != 1 {
		t.Errorf("Expected count 1, got %d", n)
	}
}

func testIterateAll(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	want := map[string]string{}
	for i := 0; i < 25; i++ {
		k := fmt.Sprintf("iter-%02d", i)
		want[k] = fmt.Sprintf("value-%d", i)
		requireCode(t, s.PutValue(storage.Individuals, k, want[k]), storage.CodeOk)
	}
	requireCode(t, s.PutValue(storage.Tickets, "not-iterated", "x"), storage.CodeOk)

	seq, err := s.IterateAll(storage.Individuals)
	requireCode(t, err, storage.CodeOk)

	got := map[string]string{}
	for k, v := range seq {
		got[k] = string(v)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d pairs, got %d", len(want), len(got))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Expected %s=%s, got %s", k, v, got[k])
		}
	}

	// the sequence is one-shot
	second := 0
	for range seq {
		second++
	}
	if second != 0 {
		t.Errorf("Expected second iteration to yield nothing, got %d pairs", second)
	}

	// stopping early must be safe
	seq, err = s.IterateAll(storage.Individuals)
	requireCode(t, err, storage.CodeOk)
	seen := 0
	for range seq {
		seen++
		if seen == 3 {
			break
		}
	}
	if seen != 3 {
		t.Errorf("Expected to stop after 3 pairs, got %d", seen)
	}

	// a fresh sequence sees the whole namespace again
	seq, err = s.IterateAll(storage.Individuals)
	requireCode(t, err, storage.CodeOk)
	keys := make([]string, 0, len(want))
	for k := range seq {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) != len(want) || keys[0] != "iter-00" {
		t.Errorf("Unexpected keys on fresh iteration: %v", keys)
	}
}

func testGetIndividual(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	src := individual.New("d:test_individual")
	src.AddResource("rdf:type", individual.NewUri("v-s:Document"))
	src.AddResource("rdfs:label", individual.NewString("test", individual.LangEN))
	raw, err := individual.Encode(src)
	if err != nil {
		t.Fatalf("Failed to encode individual: %v", err)
	}

	requireCode(t, s.PutRawValue(storage.Individuals, "d:test_individual", raw), storage.CodeOk)

	var out individual.Individual
	requireCode(t, s.GetIndividual(storage.Individuals, "d:test_individual", &out), storage.CodeOk)
	if out.URI() != "d:test_individual" {
		t.Errorf("Expected uri d:test_individual, got %s", out.URI())
	}
	if label, ok := out.First("rdfs:label"); !ok || label.Str != "test" {
		t.Errorf("Expected label test, got %+v", label)
	}

	// a stored payload that is not an individual is a serialization error, not a miss
	requireCode(t, s.PutValue(storage.Individuals, "broken", "not a valid individual"), storage.CodeOk)
	requireCode(t, s.GetIndividual(storage.Individuals, "broken", &out), storage.CodeSerialization)
}

func testInvalidArguments(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	requireCode(t, s.PutValue(storage.Individuals, "", "v"), storage.CodeInvalidArgument)
	_, err := s.GetValue(storage.Individuals, "")
	requireCode(t, err, storage.CodeInvalidArgument)
	requireCode(t, s.RemoveValue(storage.Individuals, ""), storage.CodeInvalidArgument)

	bogus := storage.StorageID(200)
	requireCode(t, s.PutValue(bogus, "k", "v"), storage.CodeInvalidArgument)
	_, err = s.Count(bogus)
	requireCode(t, err, storage.CodeInvalidArgument)
	_, err = s.IterateAll(bogus)
	requireCode(t, err, storage.CodeInvalidArgument)
}

func testEdgeCases(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	// empty value
	requireCode(t, s.PutRawValue(storage.Az, "empty", []byte{}), storage.CodeOk)
	got, err := s.GetRawValue(storage.Az, "empty")
	requireCode(t, err, storage.CodeOk)
	if got == nil || len(got) != 0 {
		t.Errorf("Expected non-nil empty value, got %v", got)
	}

	// nil value is stored as empty
	requireCode(t, s.PutRawValue(storage.Az, "nil", nil), storage.CodeOk)
	got, err = s.GetRawValue(storage.Az, "nil")
	requireCode(t, err, storage.CodeOk)
	if len(got) != 0 {
		t.Errorf("Expected empty value, got %v", got)
	}

	// unicode keys and values
	requireCode(t, s.PutValue(storage.Az, "ключ/🔑", "значение"), storage.CodeOk)
	v, err := s.GetValue(storage.Az, "ключ/🔑")
	requireCode(t, err, storage.CodeOk)
	if v != "значение" {
		t.Errorf("Expected unicode value, got %s", v)
	}

	// large value
	large := make([]byte, 1024*1024)
	for i := range large {
		large[i] = byte(i % 251)
	}
	requireCode(t, s.PutRawValue(storage.Az, "large", large), storage.CodeOk)
	got, err = s.GetRawValue(storage.Az, "large")
	requireCode(t, err, storage.CodeOk)
	if !bytes.Equal(got, large) {
		t.Errorf("Large value mismatch (len %d vs %d)", len(got), len(large))
	}
}

func testLegacy(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	l := storage.NewLegacy(s)

	if !l.PutKV(storage.Tickets, "legacy", "v") {
		t.Errorf("PutKV should succeed")
	}
	if v, ok := l.GetV(storage.Tickets, "legacy"); !ok || v != "v" {
		t.Errorf("GetV returned %q, %v", v, ok)
	}
	if !l.PutKVRaw(storage.Tickets, "legacy-raw", []byte{1, 2}) {
		t.Errorf("PutKVRaw should succeed")
	}
	if raw := l.GetRaw(storage.Tickets, "legacy-raw"); !bytes.Equal(raw, []byte{1, 2}) {
		t.Errorf("GetRaw returned %v", raw)
	}
	if raw := l.GetRaw(storage.Tickets, "legacy-missing"); raw != nil {
		t.Errorf("GetRaw on a miss should return nil, got %v", raw)
	}
	if _, ok := l.GetV(storage.Tickets, "legacy-missing"); ok {
		t.Errorf("GetV on a miss should report false")
	}
	if !l.Remove(storage.Tickets, "legacy") || !l.Remove(storage.Tickets, "legacy") {
		t.Errorf("Remove should succeed, also for absent keys")
	}

	var indv individual.Individual
	if code := l.GetIndividualFromDB(storage.Individuals, "legacy-missing", &indv); code != storage.CodeNotFound {
		t.Errorf("GetIndividualFromDB on a miss should be NotFound, got %s", code)
	}
}

func testConcurrent(t *testing.T, s storage.Storage) {
	defer closeStorage(t, s)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("c-%d-%d", w, i)
				if err := s.PutValue(storage.Tickets, key, key); err != nil {
					errs <- err
					continue
				}
				if v, err := s.GetValue(storage.Tickets, key); err != nil || v != key {
					errs <- fmt.Errorf("read back %s: %q, %v", key, v, err)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func testClose(t *testing.T, s storage.Storage) {
	requireCode(t, s.PutValue(storage.Az, "k", "v"), storage.CodeOk)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

// Package testing provides a conformance suite and benchmarks shared by all
// storage.Storage implementations. Every backend and every dispatch wrapper calls
// RunStorageTests from its own _test.go file, so the same properties (round trip,
// NotFound, idempotent remove, namespace isolation, one-shot iteration, individual
// decoding) are checked everywhere.
//
// Usage:
//
//	func Test(t *testing.T) {
//		storagetesting.RunStorageTests(t, "Memory", func(t testing.TB) storage.Storage {
//			return memory.New()
//		}, storagetesting.Options{ExactCount: true})
//	}
package testing

package storage

import (
	"fmt"
	"iter"
	"sync/atomic"
	"unicode/utf8"

	"github.com/semantic-machines/v-storage/lib/individual"
)

// OneShot wraps seq so that it yields its elements at most once.
// Ranging over the returned sequence a second time yields nothing.
func OneShot[K, V any](seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	var used atomic.Bool
	return func(yield func(K, V) bool) {
		if used.Swap(true) {
			return
		}
		seq(yield)
	}
}

// Empty returns a sequence that yields nothing.
func Empty[K, V any]() iter.Seq2[K, V] {
	return func(func(K, V) bool) {}
}

// StringValue converts a stored payload into the string form returned by GetValue.
func StringValue(id StorageID, key string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", NewError(CodeSerialization, fmt.Sprintf("value of %q in %s is not valid utf-8", key, id))
	}
	return string(raw), nil
}

// DecodeIndividual parses raw into out and maps decoder failures to CodeSerialization.
func DecodeIndividual(id StorageID, key string, raw []byte, out *individual.Individual) error {
	if out == nil {
		return NewError(CodeInvalidArgument, "individual must not be nil")
	}
	if err := individual.Parse(raw, out); err != nil {
		return WrapError(CodeSerialization, fmt.Sprintf("failed to decode individual %q from %s", key, id), err)
	}
	return nil
}

// Copy returns a copy of b that is never nil.
func Copy(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

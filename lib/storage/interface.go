package storage

import (
	"fmt"
	"iter"
	"strings"

	"github.com/semantic-machines/v-storage/lib/individual"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Storage is the capability contract every backend and every dispatch wrapper implements.
// All operations are synchronous. A nil error means the operation succeeded; otherwise
// the error is a *Error whose Code tells NotFound apart from real failures.
type Storage interface {
	// GetIndividual reads the payload stored under key and decodes it into out.
	// A payload that cannot be decoded yields CodeSerialization, never CodeNotFound.
	GetIndividual(id StorageID, key string, out *individual.Individual) (err error)
	// GetValue returns the value for a key as a string.
	GetValue(id StorageID, key string) (value string, err error)
	// GetRawValue returns the value for a key as bytes. On success the slice is never nil.
	GetRawValue(id StorageID, key string) (value []byte, err error)
	// PutValue inserts or overwrites the value for a key.
	PutValue(id StorageID, key string, value string) (err error)
	// PutRawValue inserts or overwrites the value for a key.
	PutRawValue(id StorageID, key string, value []byte) (err error)
	// RemoveValue deletes a key. Removing an absent key is not an error.
	RemoveValue(id StorageID, key string) (err error)
	// Count returns the number of keys in the namespace. The precision is backend-defined.
	Count(id StorageID) (count int, err error)
	// IterateAll returns a lazy, one-shot sequence over all key/value pairs of the namespace.
	IterateAll(id StorageID) (seq iter.Seq2[string, []byte], err error)
	// Close releases the medium held by the storage. Calling Close twice is a no-op.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Namespaces
// --------------------------------------------------------------------------

// StorageID selects the logical namespace an operation addresses.
// Keys are unique only within one namespace.
type StorageID uint8

const (
	Individuals StorageID = iota // semantic individuals
	Tickets                      // session tickets
	Az                           // authorization data
)

// StorageIDs returns all namespaces in declaration order.
func StorageIDs() []StorageID {
	return []StorageID{Individuals, Tickets, Az}
}

// IsValid reports whether id is one of the known namespaces.
func (id StorageID) IsValid() bool {
	return id <= Az
}

// String returns the lower case name of the namespace.
func (id StorageID) String() string {
	switch id {
	case Individuals:
		return "individuals"
	case Tickets:
		return "tickets"
	case Az:
		return "az"
	default:
		return fmt.Sprintf("storage(%d)", uint8(id))
	}
}

// ParseStorageID is the inverse of StorageID.String
func ParseStorageID(s string) (StorageID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "individuals", "individual", "i":
		return Individuals, nil
	case "tickets", "ticket", "t":
		return Tickets, nil
	case "az":
		return Az, nil
	default:
		return 0, NewError(CodeInvalidArgument, fmt.Sprintf("unknown storage id %q", s))
	}
}

// --------------------------------------------------------------------------
// Access Mode
// --------------------------------------------------------------------------

// Mode is the access mode a file backed medium is opened with.
type Mode uint8

const (
	ModeReadWrite Mode = iota
	ModeReadOnly
)

func (m Mode) String() string {
	if m == ModeReadOnly {
		return "read-only"
	}
	return "read-write"
}

// ParseMode accepts "ro", "read-only", "rw" and "read-write" (case insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ro", "read-only", "readonly":
		return ModeReadOnly, nil
	case "", "rw", "read-write", "readwrite":
		return ModeReadWrite, nil
	default:
		return ModeReadWrite, NewError(CodeConfiguration, fmt.Sprintf("invalid mode %q (expected ro or rw)", s))
	}
}

// --------------------------------------------------------------------------
// Backend Kinds
// --------------------------------------------------------------------------

// Kind names one of the supported backend families.
type Kind string

const (
	KindMemory    Kind = "memory"
	KindLMDB      Kind = "lmdb"
	KindBadger    Kind = "badger"
	KindTarantool Kind = "tarantool"
	KindRemote    Kind = "remote"
)

// Kinds returns all supported backend kinds.
func Kinds() []Kind {
	return []Kind{KindMemory, KindLMDB, KindBadger, KindTarantool, KindRemote}
}

// ParseKind converts a string into a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", NewError(CodeConfiguration, fmt.Sprintf("unknown storage kind %q", s))
}

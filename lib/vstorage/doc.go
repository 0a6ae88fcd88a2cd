// Package vstorage is the entry point for applications. It wraps a backend in one
// of three dispatch strategies and constructs backends from a Builder, a one call
// Provide function or a declarative Config.
//
// Dispatch:
//
//   - VStorage holds a storage.Storage interface value. The backend can be any type,
//     including ones defined outside this module.
//
//   - Generic[S] fixes the backend type at compile time. MemoryStorage, LMDBStorage,
//     BadgerStorage, TarantoolStorage and RemoteStorage name the built-in instances.
//
//   - Enum holds one of the built-in backends and switches on its kind in every call.
//
// All three implement storage.Storage and produce the same results for the same
// operations. An empty wrapper (None, NoneGeneric, EnumNone or the zero value)
// fails every operation with storage.CodeNotReady, closing it is a no-op.
//
// Construction:
//
//	// builder
//	s, err := vstorage.NewBuilder().Remote("tcp://127.0.0.1:9000").WithTimeout(2).BuildVStorage()
//
//	// provider
//	mem := vstorage.VStorageMemory()
//
//	// config, e.g. decoded by viper
//	s, err := vstorage.FromConfig(vstorage.Config{Kind: storage.KindBadger, Path: "/var/lib/vs"})
//
// Every path ends in NewStorage, which validates the config before any file or
// connection is opened. Invalid configs fail with storage.CodeConfiguration.
//
// The wrappers own their backend: closing the wrapper closes the backend.
// Generic.TakeStorage hands the backend back to the caller.
package vstorage

// Package individual contains the domain object stored in the Individuals namespace
// and its binary codec. An Individual is a URI with predicates mapping to typed
// resources (uri, string, integer, datetime, decimal, boolean, binary). The wire
// form is a msgpack array; Parse fails on anything else, which the storage layer
// reports as a serialization error.
package individual

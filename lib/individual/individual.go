package individual

import (
	"sort"
)

// --------------------------------------------------------------------------
// Resource Types
// --------------------------------------------------------------------------

// DataType is the type tag of a single resource value.
type DataType uint8

const (
	Uri      DataType = 1
	String   DataType = 2
	Integer  DataType = 4
	Datetime DataType = 8
	Decimal  DataType = 32
	Boolean  DataType = 64
	Binary   DataType = 128
)

func (t DataType) String() string {
	switch t {
	case Uri:
		return "uri"
	case String:
		return "string"
	case Integer:
		return "integer"
	case Datetime:
		return "datetime"
	case Decimal:
		return "decimal"
	case Boolean:
		return "boolean"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// Lang is the language tag of a string resource.
type Lang uint8

const (
	LangNone Lang = iota
	LangRU
	LangEN
)

// Resource is one value of a predicate.
// Which fields are used depends on Type.
type Resource struct {
	Type     DataType
	Str      string // Uri, String
	Lang     Lang   // String
	Int      int64  // Integer, Datetime (unix seconds), Decimal mantissa
	Exponent int64  // Decimal
	Bool     bool   // Boolean
	Bin      []byte // Binary
}

func NewUri(v string) Resource { return Resource{Type: Uri, Str: v} }
func NewString(v string, lang Lang) Resource { return Resource{Type: String, Str: v, Lang: lang} }
func NewInteger(v int64) Resource { return Resource{Type: Integer, Int: v} }
func NewDatetime(unix int64) Resource { return Resource{Type: Datetime, Int: unix} }
func NewDecimal(mantissa, exp int64) Resource { return Resource{Type: Decimal, Int: mantissa, Exponent: exp} }
func NewBoolean(v bool) Resource { return Resource{Type: Boolean, Bool: v} }
func NewBinary(v []byte) Resource { return Resource{Type: Binary, Bin: v} }

// --------------------------------------------------------------------------
// Individual
// --------------------------------------------------------------------------

// Individual is a semantic object: a URI plus a set of predicates, each with an
// ordered list of resources. It keeps the raw payload it was parsed from.
type Individual struct {
	raw       []byte
	uri       string
	resources map[string][]Resource
}

// New creates an empty individual with the given uri
func New(uri string) *Individual {
	return &Individual{uri: uri, resources: make(map[string][]Resource)}
}

// Reset clears all state so the individual can be reused.
func (i *Individual) Reset() {
	i.raw = nil
	i.uri = ""
	i.resources = make(map[string][]Resource)
}

// Raw returns the payload the individual was parsed from, or nil.
func (i *Individual) Raw() []byte {
	return i.raw
}

// SetRaw stores a payload without parsing it.
func (i *Individual) SetRaw(raw []byte) {
	i.raw = raw
}

// Parse decodes the stored raw payload into the individual.
func (i *Individual) Parse() error {
	return Parse(i.raw, i)
}

func (i *Individual) URI() string {
	return i.uri
}

func (i *Individual) SetURI(uri string) {
	i.uri = uri
}

// AddResource appends a resource to the given predicate.
func (i *Individual) AddResource(predicate string, r Resource) {
	if i.resources == nil {
		i.resources = make(map[string][]Resource)
	}
	i.resources[predicate] = append(i.resources[predicate], r)
}

// Resources returns the resources of a predicate in insertion order.
func (i *Individual) Resources(predicate string) []Resource {
	return i.resources[predicate]
}

// First returns the first resource of a predicate.
func (i *Individual) First(predicate string) (Resource, bool) {
	rs := i.resources[predicate]
	if len(rs) == 0 {
		return Resource{}, false
	}
	return rs[0], true
}

// Predicates returns all predicates in sorted order.
func (i *Individual) Predicates() []string {
	preds := make([]string, 0, len(i.resources))
	for p := range i.resources {
		preds = append(preds, p)
	}
	sort.Strings(preds)
	return preds
}

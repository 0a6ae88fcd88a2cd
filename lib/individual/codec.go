package individual

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrEmptyPayload is returned when there is nothing to parse
var ErrEmptyPayload = errors.New("individual: empty payload")

// Encode serializes the individual into its msgpack form:
//
//	[uri, {predicate: [[type, value(, lang)], ...], ...}]
//
// Decimals are written as [type, mantissa, exponent]. Predicates are written in
// sorted order so equal individuals produce equal bytes.
func Encode(i *Individual) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	if err := enc.EncodeArrayLen(2); err != nil {
		return nil, err
	}
	if err := enc.EncodeString(i.uri); err != nil {
		return nil, err
	}

	preds := i.Predicates()
	if err := enc.EncodeMapLen(len(preds)); err != nil {
		return nil, err
	}
	for _, p := range preds {
		if err := enc.EncodeString(p); err != nil {
			return nil, err
		}
		rs := i.resources[p]
		if err := enc.EncodeArrayLen(len(rs)); err != nil {
			return nil, err
		}
		for _, r := range rs {
			if err := encodeResource(enc, r); err != nil {
				return nil, fmt.Errorf("predicate %s: %w", p, err)
			}
		}
	}

	return buf.Bytes(), nil
}

// Parse decodes raw into out. out is reset first and keeps a copy of raw.
func Parse(raw []byte, out *Individual) error {
	out.Reset()
	if len(raw) == 0 {
		return ErrEmptyPayload
	}
	out.raw = append([]byte(nil), raw...)

	rd := bytes.NewReader(raw)
	dec := msgpack.NewDecoder(rd)

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("individual: expected 2 top level elements, got %d", n)
	}

	if out.uri, err = dec.DecodeString(); err != nil {
		return err
	}

	np, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	for p := 0; p < np; p++ {
		pred, err := dec.DecodeString()
		if err != nil {
			return err
		}
		nr, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		for r := 0; r < nr; r++ {
			res, err := decodeResource(dec)
			if err != nil {
				return fmt.Errorf("predicate %s: %w", pred, err)
			}
			out.AddResource(pred, res)
		}
	}
	if rd.Len() > 0 {
		return fmt.Errorf("individual: %d trailing bytes after document", rd.Len())
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func encodeResource(enc *msgpack.Encoder, r Resource) error {
	size := 2
	if r.Type == Decimal || (r.Type == String && r.Lang != LangNone) {
		size = 3
	}
	if err := enc.EncodeArrayLen(size); err != nil {
		return err
	}
	if err := enc.EncodeUint(uint64(r.Type)); err != nil {
		return err
	}

	switch r.Type {
	case Uri:
		return enc.EncodeString(r.Str)
	case String:
		if err := enc.EncodeString(r.Str); err != nil {
			return err
		}
		if size == 3 {
			return enc.EncodeUint(uint64(r.Lang))
		}
		return nil
	case Integer, Datetime:
		return enc.EncodeInt(r.Int)
	case Decimal:
		if err := enc.EncodeInt(r.Int); err != nil {
			return err
		}
		return enc.EncodeInt(r.Exponent)
	case Boolean:
		return enc.EncodeBool(r.Bool)
	case Binary:
		return enc.EncodeBytes(r.Bin)
	default:
		return fmt.Errorf("unknown resource type %d", r.Type)
	}
}

func decodeResource(dec *msgpack.Decoder) (Resource, error) {
	var r Resource

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return r, err
	}
	if n < 2 || n > 3 {
		return r, fmt.Errorf("resource must have 2 or 3 elements, got %d", n)
	}

	t, err := dec.DecodeUint8()
	if err != nil {
		return r, err
	}
	r.Type = DataType(t)

	switch r.Type {
	case Uri:
		r.Str, err = dec.DecodeString()
	case String:
		r.Str, err = dec.DecodeString()
		if err == nil && n == 3 {
			var l uint8
			l, err = dec.DecodeUint8()
			r.Lang = Lang(l)
		}
	case Integer, Datetime:
		r.Int, err = dec.DecodeInt64()
	case Decimal:
		if n != 3 {
			return r, fmt.Errorf("decimal must have 3 elements, got %d", n)
		}
		if r.Int, err = dec.DecodeInt64(); err == nil {
			r.Exponent, err = dec.DecodeInt64()
		}
	case Boolean:
		r.Bool, err = dec.DecodeBool()
	case Binary:
		r.Bin, err = dec.DecodeBytes()
	default:
		return r, fmt.Errorf("unknown resource type %d", t)
	}
	return r, err
}

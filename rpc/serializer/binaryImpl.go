package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/semantic-machines/v-storage/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: 1 byte MsgType, 1 byte flags, then every present field in flag order.
// Strings and byte slices are prefixed with a 4 byte big endian length.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey   byte = 1 << 0
	hasCount byte = 1 << 1
	hasKeys  byte = 1 << 2
	hasValue byte = 1 << 3
	hasOk    byte = 1 << 4
	hasErr   byte = 1 << 5
	hasMeta  byte = 1 << 6
	hasCode  byte = 1 << 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	w := binaryWriter{buf: make([]byte, 2, b.sizeBytes(msg))}
	w.buf[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		w.putString(msg.Key)
	}
	if msg.Count > 0 {
		flags |= hasCount
		w.buf = binary.BigEndian.AppendUint64(w.buf, msg.Count)
	}
	if msg.Keys != nil {
		flags |= hasKeys
		w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(msg.Keys)))
		for _, k := range msg.Keys {
			w.putString(k)
		}
	}
	// a present but empty value is kept apart from a missing one
	if msg.Value != nil {
		flags |= hasValue
		w.putBytes(msg.Value)
	}
	if msg.Ok {
		flags |= hasOk
		w.buf = append(w.buf, 1)
	}
	if msg.Err != "" {
		flags |= hasErr
		w.putString(msg.Err)
	}
	if msg.Meta != nil {
		flags |= hasMeta
		w.putBytes(msg.Meta)
	}
	if msg.Code != 0 {
		flags |= hasCode
		w.buf = append(w.buf, msg.Code)
	}

	w.buf[1] = flags
	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := binaryReader{data: data, pos: 2}

	if flags&hasKey != 0 {
		msg.Key = r.readString("key")
	}
	if flags&hasCount != 0 {
		msg.Count = r.readUint64("count")
	}
	if flags&hasKeys != 0 {
		n := int(r.readUint32("keys length"))
		// every key needs at least its length prefix
		if r.err == nil && n > (len(data)-r.pos)/4 {
			r.err = fmt.Errorf("data too short for %d keys", n)
		}
		if r.err == nil {
			msg.Keys = make([]string, 0, n)
			for i := 0; i < n && r.err == nil; i++ {
				msg.Keys = append(msg.Keys, r.readString("keys"))
			}
		}
	}
	if flags&hasValue != 0 {
		msg.Value = r.readBytes("value")
	}
	if flags&hasOk != 0 {
		msg.Ok = r.readByte("ok flag") != 0
	}
	if flags&hasErr != 0 {
		msg.Err = r.readString("error")
	}
	if flags&hasMeta != 0 {
		msg.Meta = r.readBytes("meta")
	}
	if flags&hasCode != 0 {
		msg.Code = r.readByte("code")
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Count > 0 {
		size += 8
	}
	if msg.Keys != nil {
		size += 4
		for _, k := range msg.Keys {
			size += 4 + len(k)
		}
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Ok {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}
	if msg.Code != 0 {
		size += 1
	}

	return size
}

type binaryWriter struct {
	buf []byte
}

func (w *binaryWriter) putString(s string) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *binaryWriter) putBytes(b []byte) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// binaryReader reads fields sequentially. After the first error all reads return
// zero values and err keeps the first error.
type binaryReader struct {
	data []byte
	pos  int
	err  error
}

func (r *binaryReader) need(n int, field string) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return false
	}
	return true
}

func (r *binaryReader) readByte(field string) byte {
	if !r.need(1, field) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *binaryReader) readUint32(field string) uint32 {
	if !r.need(4, field) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *binaryReader) readUint64(field string) uint64 {
	if !r.need(8, field) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

// readBytes returns a copy so the message does not alias pooled read buffers
func (r *binaryReader) readBytes(field string) []byte {
	n := int(r.readUint32(field + " length"))
	if !r.need(n, field) {
		return nil
	}
	v := make([]byte, n)
	copy(v, r.data[r.pos:r.pos+n])
	r.pos += n
	return v
}

func (r *binaryReader) readString(field string) string {
	n := int(r.readUint32(field + " length"))
	if !r.need(n, field) {
		return ""
	}
	v := string(r.data[r.pos : r.pos+n])
	r.pos += n
	return v
}

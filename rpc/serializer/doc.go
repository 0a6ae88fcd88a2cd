// Package serializer encodes the request and response messages exchanged between a
// remote storage client and the server.
//
// Four formats implement IRPCSerializer and can be selected by name with New:
//
//   - binary: a hand-written format that writes a presence flag per field and only
//     the fields that are set. Smallest and fastest, the default.
//   - msgpack: github.com/vmihailenco/msgpack/v5, the encoding individuals use as
//     well. Readable by non-Go peers.
//   - json: readable on the wire, handy while debugging a deployment.
//   - gob: encoding/gob. Works, but is slower and larger than the others.
//
// Client and server must use the same format, the frames carry no format tag.
//
// All serializers are stateless and safe for concurrent use:
//
//	s, err := serializer.New("msgpack")
//	data, err := s.Serialize(*common.NewGetRequest("d:employee_0001"))
//	var reply common.Message
//	err = s.Deserialize(data, &reply)
package serializer

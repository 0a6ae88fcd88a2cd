package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message. The namespace is not part
// of the message, the transport carries it in the frame header.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string `json:"key,omitempty"`   // Used for: Put, Get, Remove
	Value []byte `json:"value,omitempty"` // Used for: Put (request), Get (response)

	// Response only fields
	Count uint64   `json:"count,omitempty"` // Used for: Count responses
	Keys  []string `json:"keys,omitempty"`  // Used for: Keys responses
	Ok    bool     `json:"ok,omitempty"`    // Used for: Get responses
	Code  uint8    `json:"code,omitempty"`  // storage.ResultCode of a failed operation
	Err   string   `json:"err,omitempty"`   // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewPutRequest creates a new Put request
func NewPutRequest(key string, value []byte) *Message {
	if value == nil {
		value = []byte{}
	}
	return &Message{
		MsgType: MsgTPut,
		Key:     key,
		Value:   value,
	}
}

// NewPutResponse creates a new Put response
func NewPutResponse(code uint8, err error) *Message {
	return withError(&Message{MsgType: MsgTPut}, code, err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, code uint8, err error) *Message {
	msg := &Message{
		MsgType: MsgTGet,
		Ok:      err == nil,
	}
	if err == nil {
		msg.Value = value
	}
	return withError(msg, code, err)
}

// NewRemoveRequest creates a new Remove request
func NewRemoveRequest(key string) *Message {
	return &Message{
		MsgType: MsgTRemove,
		Key:     key,
	}
}

// NewRemoveResponse creates a new Remove response
func NewRemoveResponse(code uint8, err error) *Message {
	return withError(&Message{MsgType: MsgTRemove}, code, err)
}

// NewCountRequest creates a new Count request
func NewCountRequest() *Message {
	return &Message{MsgType: MsgTCount}
}

// NewCountResponse creates a new Count response
func NewCountResponse(count uint64, code uint8, err error) *Message {
	return withError(&Message{MsgType: MsgTCount, Count: count}, code, err)
}

// NewKeysRequest creates a new Keys request
func NewKeysRequest() *Message {
	return &Message{MsgType: MsgTKeys}
}

// NewKeysResponse creates a new Keys response
func NewKeysResponse(keys []string, code uint8, err error) *Message {
	return withError(&Message{MsgType: MsgTKeys, Keys: keys}, code, err)
}

// NewPingRequest creates a new Ping request
func NewPingRequest() *Message {
	return &Message{MsgType: MsgTPing}
}

// NewPingResponse creates a new Ping response
func NewPingResponse() *Message {
	return &Message{MsgType: MsgTPing, Ok: true}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(code uint8, err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    code,
		Err:     err,
	}
}

// withError sets the error fields of a response if err is not nil
func withError(msg *Message, code uint8, err error) *Message {
	if err != nil {
		msg.Code = code
		msg.Err = err.Error()
	}
	return msg
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTPut:
		return "put"
	case MsgTGet:
		return "get"
	case MsgTRemove:
		return "remove"
	case MsgTCount:
		return "count"
	case MsgTKeys:
		return "keys"
	case MsgTPing:
		return "ping"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "put":
		*t = MsgTPut
	case "get":
		*t = MsgTGet
	case "remove":
		*t = MsgTRemove
	case "count":
		*t = MsgTCount
	case "keys":
		*t = MsgTKeys
	case "ping":
		*t = MsgTPing
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Storage operations

	MsgTPut    // Put a key-value pair
	MsgTGet    // Get a value by key
	MsgTRemove // Remove a key
	MsgTCount  // Count the keys of a namespace
	MsgTKeys   // List the keys of a namespace
	MsgTPing   // Check that the server is reachable
)

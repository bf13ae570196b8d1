// Package rpc defines the wire contract of the legacykeeper gRPC service:
// message types, the service descriptor and a typed client. The schema lives
// in legacykeeper.proto; messages are plain structs encoded field by field
// with protowire, so any client built from the .proto file can talk to the
// server.
package rpc

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// CodecName is the content-subtype negotiated by client and server. It is
// the gRPC default, so plain "application/grpc" requests land here too.
const CodecName = "proto"

// wireMessage is implemented by every request and response struct.
type wireMessage interface {
	appendWire(b []byte) []byte
	readWire(b []byte) error
}

// codec encodes wireMessage values and hands generated protobuf messages to
// the standard runtime, so registering it does not break other services on
// the same server.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.appendWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("rpc marshal: unsupported type %T", v)
	}
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wireMessage:
		if err := m.readWire(data); err != nil {
			return fmt.Errorf("rpc unmarshal %T: %w", v, err)
		}
		return nil
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("rpc unmarshal: unsupported type %T", v)
	}
}

func (codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}

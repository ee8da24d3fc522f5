package engine

import "fmt"

// Codec marshals engine Messages. It is registered per call with
// grpc.ForceCodec and per server with grpc.ForceServerCodec.
type Codec struct{}

// Name reports "proto" so the content-type matches a stock protobuf server.
func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("engine codec: cannot marshal %T", v)
	}
	return m.MarshalWire(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("engine codec: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

package engine

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every engine request and response.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire(b []byte) error
}

// PingRequest has no fields.
type PingRequest struct{}

// PingResponse carries the engine's free-form health status.
type PingResponse struct {
	Status string // 1
}

// RegisterTaskRequest asks the engine to schedule one task.
type RegisterTaskRequest struct {
	SSUUID         string  // 1
	Message        string  // 2
	IdempotencyKey *string // 3, optional
}

// RegisterTaskResponse returns the engine-assigned id, possibly empty.
type RegisterTaskResponse struct {
	TaskID string // 1
}

// DeleteTaskRequest names the task to delete.
type DeleteTaskRequest struct {
	TaskID string // 1
}

// DeleteTaskResponse reports whether the engine removed anything.
type DeleteTaskResponse struct {
	Deleted bool // 1
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// walkFields calls fn for each field; fn returns the consumed length or a
// negative protowire error code, or 0 to let the field be skipped.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) int) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("engine: bad tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		n = fn(num, typ, b)
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("engine: bad field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func consumeString(typ protowire.Type, b []byte, dst *string) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func (m *PingRequest) MarshalWire() []byte { return nil }

func (m *PingRequest) UnmarshalWire(b []byte) error {
	return walkFields(b, func(protowire.Number, protowire.Type, []byte) int { return 0 })
}

func (m *PingResponse) MarshalWire() []byte { return appendString(nil, 1, m.Status) }

func (m *PingResponse) UnmarshalWire(b []byte) error {
	*m = PingResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeString(typ, b, &m.Status)
		}
		return 0
	})
}

func (m *RegisterTaskRequest) MarshalWire() []byte {
	b := appendString(nil, 1, m.SSUUID)
	b = appendString(b, 2, m.Message)
	if m.IdempotencyKey != nil {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, *m.IdempotencyKey)
	}
	return b
}

func (m *RegisterTaskRequest) UnmarshalWire(b []byte) error {
	*m = RegisterTaskRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeString(typ, b, &m.SSUUID)
		case 2:
			return consumeString(typ, b, &m.Message)
		case 3:
			var key string
			n := consumeString(typ, b, &key)
			if n > 0 {
				m.IdempotencyKey = &key
			}
			return n
		}
		return 0
	})
}

func (m *RegisterTaskResponse) MarshalWire() []byte { return appendString(nil, 1, m.TaskID) }

func (m *RegisterTaskResponse) UnmarshalWire(b []byte) error {
	*m = RegisterTaskResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeString(typ, b, &m.TaskID)
		}
		return 0
	})
}

func (m *DeleteTaskRequest) MarshalWire() []byte { return appendString(nil, 1, m.TaskID) }

func (m *DeleteTaskRequest) UnmarshalWire(b []byte) error {
	*m = DeleteTaskRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeString(typ, b, &m.TaskID)
		}
		return 0
	})
}

func (m *DeleteTaskResponse) MarshalWire() []byte {
	if !m.Deleted {
		return nil
	}
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(true))
}

func (m *DeleteTaskResponse) UnmarshalWire(b []byte) error {
	*m = DeleteTaskResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 || typ != protowire.VarintType {
			return 0
		}
		v, n := protowire.ConsumeVarint(b)
		if n >= 0 {
			m.Deleted = protowire.DecodeBool(v)
		}
		return n
	})
}

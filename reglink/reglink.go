// Package reglink implements the framed serial protocol of the register
// debug link. A host issues read32/write32 requests against a target's
// memory-mapped register space; a small stub on the target executes them
// against its local bus and answers with values or acks.
//
// Frame layout: length, sequence, payload, CRC-16 (big endian), 0x7E sync
// byte. The length byte counts the whole frame. Payloads carry a message
// kind byte followed by VLQ-encoded operands.
package reglink

// ProtocolVersion is negotiated at connect time; a host refuses to talk to
// a stub answering with a different version.
const ProtocolVersion = 1

// Message kinds. Requests flow host to target; responses target to host.
const (
	MsgRead32  = 0x01
	MsgWrite32 = 0x02
	MsgPing    = 0x03
	MsgVersion = 0x04

	MsgValue       = 0x81 // response to MsgRead32
	MsgAck         = 0x82 // response to MsgWrite32 and MsgPing
	MsgNak         = 0x83 // malformed or unknown request
	MsgVersionInfo = 0x84 // response to MsgVersion, Val carries the version
)

// Message is a decoded payload.
type Message struct {
	Kind uint8
	Addr uint32
	Val  uint32
}

// EncodeRead32 builds a read request payload.
func EncodeRead32(addr uint32) []byte {
	return appendUint([]byte{MsgRead32}, addr)
}

// EncodeWrite32 builds a write request payload.
func EncodeWrite32(addr, v uint32) []byte {
	return appendUint(appendUint([]byte{MsgWrite32}, addr), v)
}

// EncodePing builds a liveness probe payload.
func EncodePing() []byte {
	return []byte{MsgPing}
}

// EncodeValue builds a read response payload.
func EncodeValue(addr, v uint32) []byte {
	return appendUint(appendUint([]byte{MsgValue}, addr), v)
}

// EncodeAck and EncodeNak build the bare status responses.
func EncodeAck() []byte { return []byte{MsgAck} }
func EncodeNak() []byte { return []byte{MsgNak} }

// EncodeVersion builds a version query payload.
func EncodeVersion() []byte { return []byte{MsgVersion} }

// EncodeVersionInfo builds a version response payload.
func EncodeVersionInfo(v uint32) []byte {
	return appendUint([]byte{MsgVersionInfo}, v)
}

// ParseMessage decodes a payload into a Message. Trailing bytes after the
// expected operands are an error; a truncated payload is an error.
func ParseMessage(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return Message{}, ErrTruncated
	}
	m := Message{Kind: payload[0]}
	rest := payload[1:]
	var err error

	switch m.Kind {
	case MsgRead32:
		m.Addr, rest, err = decodeUint(rest)
	case MsgWrite32, MsgValue:
		m.Addr, rest, err = decodeUint(rest)
		if err == nil {
			m.Val, rest, err = decodeUint(rest)
		}
	case MsgVersionInfo:
		m.Val, rest, err = decodeUint(rest)
	case MsgPing, MsgVersion, MsgAck, MsgNak:
		// no operands
	default:
		return Message{}, ErrUnknownMessage
	}
	if err != nil {
		return Message{}, err
	}
	if len(rest) != 0 {
		return Message{}, ErrTrailingBytes
	}
	return m, nil
}

package reglink

import "errors"

var (
	ErrTruncated      = errors.New("reglink: truncated message")
	ErrUnknownMessage = errors.New("reglink: unknown message kind")
	ErrTrailingBytes  = errors.New("reglink: trailing bytes in message")
	ErrVLQOverflow    = errors.New("reglink: VLQ value exceeds 32 bits")
)

// Variable-length quantities keep short addresses and small values to a few
// bytes on the wire: 7 data bits per byte, most significant group first,
// high bit set on every byte but the last.

// appendUint appends the VLQ encoding of v to dst.
func appendUint(dst []byte, v uint32) []byte {
	switch {
	case v < 1<<7:
		return append(dst, byte(v))
	case v < 1<<14:
		return append(dst, byte(v>>7)|0x80, byte(v&0x7F))
	case v < 1<<21:
		return append(dst, byte(v>>14)|0x80, byte(v>>7)|0x80, byte(v&0x7F))
	case v < 1<<28:
		return append(dst, byte(v>>21)|0x80, byte(v>>14)|0x80, byte(v>>7)|0x80, byte(v&0x7F))
	}
	return append(dst, byte(v>>28)|0x80, byte(v>>21)|0x80, byte(v>>14)|0x80, byte(v>>7)|0x80, byte(v&0x7F))
}

// decodeUint consumes one VLQ value from data, returning the value and the
// remaining bytes.
func decodeUint(data []byte) (uint32, []byte, error) {
	var v uint32
	for i := 0; i < len(data); i++ {
		if i == 5 {
			return 0, nil, ErrVLQOverflow
		}
		c := data[i]
		if i == 4 && c&0x80 == 0 && data[0]&0x7F > 0x0F {
			return 0, nil, ErrVLQOverflow
		}
		v = v<<7 | uint32(c&0x7F)
		if c&0x80 == 0 {
			return v, data[i+1:], nil
		}
	}
	return 0, nil, ErrTruncated
}

package reglink

import (
	"bytes"
	"errors"
)

const (
	frameHeaderLen  = 2 // length + sequence
	frameTrailerLen = 3 // CRC hi, CRC lo, sync
	FrameMinLen     = frameHeaderLen + frameTrailerLen
	FrameMaxLen     = 64
	SyncByte        = 0x7E
)

// MaxPayload is the largest payload a single frame carries.
const MaxPayload = FrameMaxLen - FrameMinLen

var ErrPayloadTooLarge = errors.New("reglink: payload exceeds frame capacity")

// EncodeFrame wraps payload in a frame with the given sequence number.
func EncodeFrame(seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, ErrPayloadTooLarge
	}
	n := len(payload) + FrameMinLen
	out := make([]byte, 0, n)
	out = append(out, byte(n), seq)
	out = append(out, payload...)
	crc := CRC16(out)
	out = append(out, byte(crc>>8), byte(crc), SyncByte)
	return out, nil
}

// Frame is one successfully decoded frame.
type Frame struct {
	Seq     uint8
	Payload []byte
}

// Decoder incrementally extracts frames from a byte stream. After a framing
// or CRC error it discards input up to the next sync byte before trying
// again, so a corrupted stretch costs at most one frame.
type Decoder struct {
	buf    []byte
	synced bool
}

func NewDecoder() *Decoder {
	return &Decoder{synced: true}
}

// Feed appends stream bytes and returns any complete frames they finish.
func (d *Decoder) Feed(data []byte) []Frame {
	d.buf = append(d.buf, data...)
	var out []Frame

	for {
		if !d.synced {
			i := bytes.IndexByte(d.buf, SyncByte)
			if i < 0 {
				d.buf = nil
				return out
			}
			d.buf = d.buf[i+1:]
			d.synced = true
		}

		// Skip idle sync bytes between frames.
		for len(d.buf) > 0 && d.buf[0] == SyncByte {
			d.buf = d.buf[1:]
		}
		if len(d.buf) < FrameMinLen {
			return out
		}

		n := int(d.buf[0])
		if n < FrameMinLen || n > FrameMaxLen {
			d.synced = false
			continue
		}
		if len(d.buf) < n {
			return out
		}
		frame := d.buf[:n]
		if frame[n-1] != SyncByte {
			d.synced = false
			continue
		}
		wantCRC := uint16(frame[n-3])<<8 | uint16(frame[n-2])
		if CRC16(frame[:n-frameTrailerLen]) != wantCRC {
			d.synced = false
			continue
		}

		payload := make([]byte, n-FrameMinLen)
		copy(payload, frame[frameHeaderLen:n-frameTrailerLen])
		out = append(out, Frame{Seq: frame[1], Payload: payload})
		d.buf = d.buf[n:]
	}
}

package reglink

import "tivahal/mmio"

// Stub is the target-side responder: it executes link requests against the
// local register bus. On a real board this runs in the debug firmware's main
// loop with the physical bus; under test it runs against a simulated one.
type Stub struct {
	bus mmio.Bus
	dec *Decoder
}

func NewStub(bus mmio.Bus) *Stub {
	return &Stub{bus: bus, dec: NewDecoder()}
}

// Handle executes one decoded request and returns the response payload.
func (s *Stub) Handle(payload []byte) []byte {
	m, err := ParseMessage(payload)
	if err != nil {
		return EncodeNak()
	}
	switch m.Kind {
	case MsgRead32:
		return EncodeValue(m.Addr, s.bus.Read32(m.Addr))
	case MsgWrite32:
		s.bus.Write32(m.Addr, m.Val)
		return EncodeAck()
	case MsgPing:
		return EncodeAck()
	case MsgVersion:
		return EncodeVersionInfo(ProtocolVersion)
	}
	return EncodeNak()
}

// Process consumes raw stream bytes and returns the encoded response frames
// for every complete request they contained. Responses echo the request's
// sequence number so the host can pair them.
func (s *Stub) Process(data []byte) []byte {
	var out []byte
	for _, f := range s.dec.Feed(data) {
		rsp, err := EncodeFrame(f.Seq, s.Handle(f.Payload))
		if err != nil {
			continue
		}
		out = append(out, rsp...)
	}
	return out
}

// Package link drives the register debug protocol from the host side. A
// Client turns ReadReg/WriteReg calls into framed requests on a serial
// port and matches responses back by sequence number.
package link

import (
	"errors"
	"fmt"
	"time"

	"tivahal/host/serial"
	"tivahal/reglink"
)

var (
	ErrTimeout = errors.New("link: timed out waiting for response")
	ErrNak     = errors.New("link: target rejected request")
)

const (
	defaultRetries = 3
	readChunk      = 64
)

// Client is a host-side connection to the register stub on a target.
type Client struct {
	port    serial.Port
	dec     *reglink.Decoder
	seq     uint8
	retries int

	// Timeout is how long one request waits for its response before a
	// retry. The serial port's own read timeout bounds each Read call.
	Timeout time.Duration
}

// NewClient wraps an open port. The caller keeps ownership of the port.
func NewClient(port serial.Port) *Client {
	return &Client{
		port:    port,
		dec:     reglink.NewDecoder(),
		retries: defaultRetries,
		Timeout: 1 * time.Second,
	}
}

// Ping checks that the stub is alive and speaking the protocol.
func (c *Client) Ping() error {
	rsp, err := c.roundTrip(reglink.EncodePing())
	if err != nil {
		return err
	}
	if rsp.Kind != reglink.MsgAck {
		return fmt.Errorf("link: ping answered with kind %#02x", rsp.Kind)
	}
	return nil
}

// Handshake verifies the stub speaks the same protocol version.
func (c *Client) Handshake() error {
	rsp, err := c.roundTrip(reglink.EncodeVersion())
	if err != nil {
		return err
	}
	if rsp.Kind != reglink.MsgVersionInfo {
		return fmt.Errorf("link: version query answered with kind %#02x", rsp.Kind)
	}
	if rsp.Val != reglink.ProtocolVersion {
		return fmt.Errorf("link: target speaks protocol %d, host speaks %d", rsp.Val, reglink.ProtocolVersion)
	}
	return nil
}

// ReadReg reads one 32-bit register on the target.
func (c *Client) ReadReg(addr uint32) (uint32, error) {
	rsp, err := c.roundTrip(reglink.EncodeRead32(addr))
	if err != nil {
		return 0, err
	}
	if rsp.Kind != reglink.MsgValue {
		return 0, fmt.Errorf("link: read %#08x answered with kind %#02x", addr, rsp.Kind)
	}
	if rsp.Addr != addr {
		return 0, fmt.Errorf("link: read %#08x answered for %#08x", addr, rsp.Addr)
	}
	return rsp.Val, nil
}

// WriteReg writes one 32-bit register on the target.
func (c *Client) WriteReg(addr, v uint32) error {
	rsp, err := c.roundTrip(reglink.EncodeWrite32(addr, v))
	if err != nil {
		return err
	}
	if rsp.Kind != reglink.MsgAck {
		return fmt.Errorf("link: write %#08x answered with kind %#02x", addr, rsp.Kind)
	}
	return nil
}

// roundTrip sends one request and waits for the response with the matching
// sequence number, retrying the whole exchange on timeout. Stale responses
// from an earlier attempt are discarded by the sequence check.
func (c *Client) roundTrip(payload []byte) (reglink.Message, error) {
	c.seq++
	seq := c.seq

	raw, err := reglink.EncodeFrame(seq, payload)
	if err != nil {
		return reglink.Message{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if _, err := c.port.Write(raw); err != nil {
			return reglink.Message{}, fmt.Errorf("link: write request: %w", err)
		}
		if err := c.port.Flush(); err != nil {
			return reglink.Message{}, fmt.Errorf("link: flush request: %w", err)
		}

		m, err := c.awaitResponse(seq)
		if err == nil {
			if m.Kind == reglink.MsgNak {
				// A NAK usually means the request arrived corrupted, so
				// resending the same frame is worth the retries.
				lastErr = ErrNak
				continue
			}
			return m, nil
		}
		lastErr = err
	}
	return reglink.Message{}, lastErr
}

func (c *Client) awaitResponse(seq uint8) (reglink.Message, error) {
	deadline := time.Now().Add(c.Timeout)
	buf := make([]byte, readChunk)

	for {
		n, err := c.port.Read(buf)
		if n > 0 {
			for _, f := range c.dec.Feed(buf[:n]) {
				if f.Seq != seq {
					continue
				}
				m, perr := reglink.ParseMessage(f.Payload)
				if perr != nil {
					return reglink.Message{}, fmt.Errorf("link: bad response payload: %w", perr)
				}
				return m, nil
			}
		}
		if err != nil {
			return reglink.Message{}, fmt.Errorf("link: read response: %w", err)
		}
		if time.Now().After(deadline) {
			return reglink.Message{}, ErrTimeout
		}
	}
}

// Package transport sends encoded DNS messages over the wire and decodes
// the replies: UDP with TCP fallback on truncation (do53, RFC 1035 §4.2)
// and DoQ (RFC 9250) for resolvers that want an encrypted, low-latency
// transport (spec §4.8). Every transport implements the same narrow
// Query method the resolver package depends on.
package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/rr"
)

// DefaultTimeout bounds a single query attempt over any transport.
const DefaultTimeout = 5 * time.Second

// Do53 queries over UDP, falling back to TCP when the UDP reply carries
// the truncation bit, exactly as RFC 1035 §4.2 and §7.4 require.
type Do53 struct {
	Timeout time.Duration
}

// NewDo53 builds a Do53 transport with DefaultTimeout.
func NewDo53() *Do53 { return &Do53{Timeout: DefaultTimeout} }

// Query sends msg to addr (host:port) over UDP, retrying over TCP if the
// UDP response is truncated.
func (t *Do53) Query(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error) {
	resp, err := t.queryUDP(ctx, addr, msg)
	if err != nil {
		return nil, err
	}
	if resp.Header.Flags.TC {
		return t.queryTCP(ctx, addr, msg)
	}
	return resp, nil
}

func (t *Do53) timeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return DefaultTimeout
}

func (t *Do53) queryUDP(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error) {
	wire, _, err := rr.EncodeMessage(msg, 0)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: t.timeout()}
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", dnserr.TransportError, addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(t.timeout()))
	}

	if _, err := conn.Write(wire); err != nil {
		return nil, fmt.Errorf("%w: write to %s: %v", dnserr.TransportError, addr, err)
	}

	buf := make([]byte, 65535)
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, fmt.Errorf("%w: read from %s: %v", dnserr.Timeout, addr, err)
		}
		return nil, fmt.Errorf("%w: read from %s: %v", dnserr.TransportError, addr, err)
	}

	return rr.DecodeMessage(buf[:n])
}

func (t *Do53) queryTCP(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error) {
	wire, _, err := rr.EncodeMessage(msg, 0)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: t.timeout()}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", dnserr.TransportError, addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(t.timeout()))
	}

	framed := make([]byte, 2+len(wire))
	framed[0] = byte(len(wire) >> 8)
	framed[1] = byte(len(wire))
	copy(framed[2:], wire)
	if _, err := conn.Write(framed); err != nil {
		return nil, fmt.Errorf("%w: write to %s: %v", dnserr.TransportError, addr, err)
	}

	return readTCPFramed(conn, addr)
}

func readTCPFramed(conn net.Conn, addr string) (*rr.Message, error) {
	lenBuf := make([]byte, 2)
	if _, err := readFull(conn, lenBuf); err != nil {
		return nil, fmt.Errorf("%w: reading length from %s: %v", dnserr.TransportError, addr, err)
	}
	msgLen := int(lenBuf[0])<<8 | int(lenBuf[1])
	msgBuf := make([]byte, msgLen)
	if _, err := readFull(conn, msgBuf); err != nil {
		return nil, fmt.Errorf("%w: reading message from %s: %v", dnserr.TransportError, addr, err)
	}
	return rr.DecodeMessage(msgBuf)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

package transport

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/rr"
)

// DoQ queries a server over DNS-over-QUIC (RFC 9250): each query opens a
// new bidirectional stream carrying a 2-byte big-endian length prefix
// followed by the message, mirroring the do53 TCP framing.
type DoQ struct {
	TLSConfig *tls.Config
	Timeout   time.Duration

	mu    chan struct{}
	conns map[string]quic.Connection
}

// NewDoQ builds a DoQ transport. serverName, if set in tlsConfig, must
// match the target's certificate; ALPN is forced to "doq" regardless of
// what the caller supplies.
func NewDoQ(tlsConfig *tls.Config) *DoQ {
	cfg := tlsConfig.Clone()
	cfg.NextProtos = []string{"doq"}
	return &DoQ{
		TLSConfig: cfg,
		Timeout:   DefaultTimeout,
		mu:        make(chan struct{}, 1),
		conns:     map[string]quic.Connection{},
	}
}

func (t *DoQ) timeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return DefaultTimeout
}

// Query opens a new QUIC stream (reusing an existing connection to addr
// when one is alive) and exchanges one length-prefixed message pair.
func (t *DoQ) Query(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error) {
	conn, err := t.connFor(ctx, addr)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()

	stream, err := conn.OpenStreamSync(streamCtx)
	if err != nil {
		t.forget(addr)
		return nil, fmt.Errorf("%w: opening DoQ stream to %s: %v", dnserr.TransportError, addr, err)
	}
	defer stream.Close()

	wire, _, err := rr.EncodeMessage(msg, 0)
	if err != nil {
		return nil, err
	}
	framed := make([]byte, 2+len(wire))
	binary.BigEndian.PutUint16(framed, uint16(len(wire)))
	copy(framed[2:], wire)
	if _, err := stream.Write(framed); err != nil {
		return nil, fmt.Errorf("%w: writing DoQ query to %s: %v", dnserr.TransportError, addr, err)
	}

	lenBuf := make([]byte, 2)
	if _, err := io.ReadFull(stream, lenBuf); err != nil {
		return nil, fmt.Errorf("%w: reading DoQ length from %s: %v", dnserr.TransportError, addr, err)
	}
	respLen := binary.BigEndian.Uint16(lenBuf)
	respBuf := make([]byte, respLen)
	if _, err := io.ReadFull(stream, respBuf); err != nil {
		return nil, fmt.Errorf("%w: reading DoQ message from %s: %v", dnserr.TransportError, addr, err)
	}
	return rr.DecodeMessage(respBuf)
}

func (t *DoQ) connFor(ctx context.Context, addr string) (quic.Connection, error) {
	t.mu <- struct{}{}
	conn, ok := t.conns[addr]
	<-t.mu
	if ok {
		select {
		case <-conn.Context().Done():
			// stale, fall through to redial
		default:
			return conn, nil
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()
	conn, err := quic.DialAddr(dialCtx, addr, t.TLSConfig, &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 15 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dialing DoQ %s: %v", dnserr.TransportError, addr, err)
	}

	t.mu <- struct{}{}
	t.conns[addr] = conn
	<-t.mu
	return conn, nil
}

func (t *DoQ) forget(addr string) {
	t.mu <- struct{}{}
	delete(t.conns, addr)
	<-t.mu
}

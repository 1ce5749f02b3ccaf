package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
)

// echoUDPServer answers every query with a fixed A record for the queried
// name, letting the transport's encode/decode/dial path be exercised
// without a real authoritative server.
func echoUDPServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		buf := make([]byte, 4096)
		for {
			n, raddr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			req, err := rr.DecodeMessage(buf[:n])
			if err != nil {
				continue
			}
			resp := &rr.Message{
				Header:   rr.Header{ID: req.Header.ID, Flags: rr.Flags{QR: true, AA: true}},
				Question: req.Question,
				Answer: []*rr.RR{{
					Owner: req.Question[0].Name, Type: rr.TypeA, Class: rr.ClassINET, TTL: 300,
					Data: &rr.A{Addr: net.ParseIP("203.0.113.9")},
				}},
			}
			wire, _, err := rr.EncodeMessage(resp, 0)
			if err != nil {
				continue
			}
			_, _ = conn.WriteTo(wire, raddr)
		}
	}()

	return conn.LocalAddr().String(), func() { conn.Close() }
}

func TestDo53QueryRoundTrip(t *testing.T) {
	addr, stop := echoUDPServer(t)
	defer stop()

	tr := NewDo53()
	tr.Timeout = 2 * time.Second

	qname := dnsname.MustParse("www.example.com.")
	msg := &rr.Message{
		Header:   rr.Header{ID: 42, Flags: rr.Flags{RD: true}},
		Question: []rr.Question{{Name: qname, Type: rr.TypeA, Class: rr.ClassINET}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	resp, err := tr.Query(ctx, addr, msg)
	require.NoError(t, err)
	require.Len(t, resp.Answer, 1)
	require.Equal(t, rr.TypeA, resp.Answer[0].Type)
}

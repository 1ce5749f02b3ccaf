package rr

import (
	"fmt"
	"net"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

// A is an IPv4 address record (RFC 1035 §3.4.1).
type A struct {
	Addr net.IP
}

func (r *A) Type() Type { return TypeA }

func (r *A) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	ip4 := r.Addr.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: A record address is not IPv4", dnserr.MalformedWire)
	}
	return append(buf, ip4...), nil
}

func (r *A) unpack(msg []byte, off, rdlen int) error {
	if rdlen != 4 {
		return fmt.Errorf("%w: A rdata must be 4 bytes, got %d", dnserr.MalformedWire, rdlen)
	}
	r.Addr = net.IP(append([]byte(nil), msg[off:off+4]...))
	return nil
}

func (r *A) String() string { return r.Addr.String() }

// AAAA is an IPv6 address record (RFC 3596).
type AAAA struct {
	Addr net.IP
}

func (r *AAAA) Type() Type { return TypeAAAA }

func (r *AAAA) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	ip6 := r.Addr.To16()
	if ip6 == nil || r.Addr.To4() != nil {
		return nil, fmt.Errorf("%w: AAAA record address is not IPv6", dnserr.MalformedWire)
	}
	return append(buf, ip6...), nil
}

func (r *AAAA) unpack(msg []byte, off, rdlen int) error {
	if rdlen != 16 {
		return fmt.Errorf("%w: AAAA rdata must be 16 bytes, got %d", dnserr.MalformedWire, rdlen)
	}
	r.Addr = net.IP(append([]byte(nil), msg[off:off+16]...))
	return nil
}

func (r *AAAA) String() string { return r.Addr.String() }

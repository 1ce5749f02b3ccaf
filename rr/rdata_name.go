package rr

import (
	"github.com/trustwalk/trustwalk/dnsname"
)

// NS is a nameserver record (RFC 1035 §3.3.11).
type NS struct{ Host dnsname.Name }

func (r *NS) Type() Type { return TypeNS }
func (r *NS) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	return c.WriteName(buf, r.Host, true)
}
func (r *NS) unpack(msg []byte, off, _ int) error {
	n, _, err := dnsname.ReadName(msg, off)
	r.Host = n
	return err
}
func (r *NS) String() string { return r.Host.String() }

// CNAME is a canonical-name alias record (RFC 1035 §3.3.1).
type CNAME struct{ Target dnsname.Name }

func (r *CNAME) Type() Type { return TypeCNAME }
func (r *CNAME) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	return c.WriteName(buf, r.Target, true)
}
func (r *CNAME) unpack(msg []byte, off, _ int) error {
	n, _, err := dnsname.ReadName(msg, off)
	r.Target = n
	return err
}
func (r *CNAME) String() string { return r.Target.String() }

// PTR is a pointer record (RFC 1035 §3.3.12).
type PTR struct{ Target dnsname.Name }

func (r *PTR) Type() Type { return TypePTR }
func (r *PTR) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	return c.WriteName(buf, r.Target, true)
}
func (r *PTR) unpack(msg []byte, off, _ int) error {
	n, _, err := dnsname.ReadName(msg, off)
	r.Target = n
	return err
}
func (r *PTR) String() string { return r.Target.String() }

// DNAME redirects a whole subtree to another name (RFC 6672). Per RFC 6672
// §2.4 the target name MUST NOT be name-compressed, so pack always passes
// compress=false (spec §4.1 calls out the analogous NSEC next_domain rule).
type DNAME struct{ Target dnsname.Name }

func (r *DNAME) Type() Type { return TypeDNAME }
func (r *DNAME) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	return c.WriteName(buf, r.Target, false)
}
func (r *DNAME) unpack(msg []byte, off, _ int) error {
	n, _, err := dnsname.ReadName(msg, off)
	r.Target = n
	return err
}
func (r *DNAME) String() string { return r.Target.String() }

package rr

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

// NAPTR is a naming-authority pointer record (RFC 3403).
type NAPTR struct {
	Order       uint16
	Preference  uint16
	Flags       string
	Service     string
	Regexp      string
	Replacement dnsname.Name
}

func (r *NAPTR) Type() Type { return TypeNAPTR }

func packCharString(buf []byte, s string) ([]byte, error) {
	if len(s) > 255 {
		return nil, fmt.Errorf("%w: character-string exceeds 255 octets", dnserr.MalformedWire)
	}
	buf = append(buf, byte(len(s)))
	return append(buf, s...), nil
}

func getCharString(msg []byte, off, end int) (string, int, error) {
	if off >= end {
		return "", 0, fmt.Errorf("%w: missing character-string", dnserr.MalformedWire)
	}
	l := int(msg[off])
	if off+1+l > end {
		return "", 0, fmt.Errorf("%w: character-string runs past RDATA", dnserr.MalformedWire)
	}
	return string(msg[off+1 : off+1+l]), off + 1 + l, nil
}

func (r *NAPTR) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Order)
	buf = putUint16(buf, r.Preference)
	var err error
	if buf, err = packCharString(buf, r.Flags); err != nil {
		return nil, err
	}
	if buf, err = packCharString(buf, r.Service); err != nil {
		return nil, err
	}
	if buf, err = packCharString(buf, r.Regexp); err != nil {
		return nil, err
	}
	// NAPTR replacement is never compressed (RFC 3403 §3).
	return c.WriteName(buf, r.Replacement, false)
}

func (r *NAPTR) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	order, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	pref, err := getUint16(msg, off+2)
	if err != nil {
		return err
	}
	pos := off + 4
	var flags, service, regexp string
	if flags, pos, err = getCharString(msg, pos, end); err != nil {
		return err
	}
	if service, pos, err = getCharString(msg, pos, end); err != nil {
		return err
	}
	if regexp, pos, err = getCharString(msg, pos, end); err != nil {
		return err
	}
	repl, _, err := dnsname.ReadName(msg, pos)
	if err != nil {
		return err
	}
	r.Order, r.Preference, r.Flags, r.Service, r.Regexp, r.Replacement = order, pref, flags, service, regexp, repl
	return nil
}

func (r *NAPTR) String() string {
	return fmt.Sprintf("%d %d %q %q %q %s", r.Order, r.Preference, r.Flags, r.Service, r.Regexp, r.Replacement.String())
}

// CAA restricts which CAs may issue certificates for a name (RFC 8659).
type CAA struct {
	Flag  uint8
	Tag   string
	Value string
}

func (r *CAA) Type() Type { return TypeCAA }

func (r *CAA) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = append(buf, r.Flag)
	var err error
	if buf, err = packCharString(buf, r.Tag); err != nil {
		return nil, err
	}
	return append(buf, r.Value...), nil
}

func (r *CAA) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	if off >= end {
		return fmt.Errorf("%w: empty CAA rdata", dnserr.MalformedWire)
	}
	flag := msg[off]
	tag, pos, err := getCharString(msg, off+1, end)
	if err != nil {
		return err
	}
	r.Flag, r.Tag, r.Value = flag, tag, string(msg[pos:end])
	return nil
}

func (r *CAA) String() string {
	return fmt.Sprintf("%d %s %q", r.Flag, r.Tag, r.Value)
}

// SSHFP carries an SSH public-key fingerprint (RFC 4255).
type SSHFP struct {
	Algorithm   uint8
	FPType      uint8
	Fingerprint []byte
}

func (r *SSHFP) Type() Type { return TypeSSHFP }

func (r *SSHFP) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = append(buf, r.Algorithm, r.FPType)
	return append(buf, r.Fingerprint...), nil
}

func (r *SSHFP) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 2 {
		return fmt.Errorf("%w: SSHFP rdata too short", dnserr.MalformedWire)
	}
	r.Algorithm, r.FPType = msg[off], msg[off+1]
	r.Fingerprint = append([]byte(nil), msg[off+2:off+rdlen]...)
	return nil
}

func (r *SSHFP) String() string {
	return fmt.Sprintf("%d %d %s", r.Algorithm, r.FPType, strings.ToUpper(hex.EncodeToString(r.Fingerprint)))
}

// TLSA pins a TLS server certificate (RFC 6698); SMIMEA (RFC 8162) reuses
// the identical RDATA layout.
type TLSA struct {
	Usage        uint8
	Selector     uint8
	MatchingType uint8
	Data         []byte
}

func (r *TLSA) Type() Type { return TypeTLSA }

func (r *TLSA) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = append(buf, r.Usage, r.Selector, r.MatchingType)
	return append(buf, r.Data...), nil
}

func (r *TLSA) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 3 {
		return fmt.Errorf("%w: TLSA rdata too short", dnserr.MalformedWire)
	}
	r.Usage, r.Selector, r.MatchingType = msg[off], msg[off+1], msg[off+2]
	r.Data = append([]byte(nil), msg[off+3:off+rdlen]...)
	return nil
}

func (r *TLSA) String() string {
	return fmt.Sprintf("%d %d %d %s", r.Usage, r.Selector, r.MatchingType, hex.EncodeToString(r.Data))
}

package rr

import (
	"fmt"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

// EDNS(0) option codes this module recognizes by name; any other code
// round-trips as opaque bytes.
const (
	OptCodeNSID    uint16 = 3
	OptCodeCookie  uint16 = 10
	OptCodePadding uint16 = 12
)

// EDNSOption is one TLV entry inside an OPT record's RDATA.
type EDNSOption struct {
	Code uint16
	Data []byte
}

// OPT is the EDNS(0) pseudo-RR (RFC 6891 §6.1). Its owner is always the
// root name and its class/TTL fields are repurposed per spec §3: class
// holds the advertised UDP payload size, and TTL packs
// extended-rcode(8)/version(8)/flags(16, bit0 = DO).
type OPT struct {
	Options []EDNSOption
}

func (r *OPT) Type() Type { return TypeOPT }

func (r *OPT) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	for _, o := range r.Options {
		buf = putUint16(buf, o.Code)
		buf = putUint16(buf, uint16(len(o.Data)))
		buf = append(buf, o.Data...)
	}
	return buf, nil
}

func (r *OPT) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	pos := off
	var opts []EDNSOption
	for pos < end {
		if pos+4 > end {
			return fmt.Errorf("%w: truncated EDNS option header", dnserr.MalformedWire)
		}
		code, _ := getUint16(msg, pos)
		l, _ := getUint16(msg, pos+2)
		pos += 4
		if pos+int(l) > end {
			return fmt.Errorf("%w: EDNS option data runs past RDATA", dnserr.MalformedWire)
		}
		opts = append(opts, EDNSOption{Code: code, Data: append([]byte(nil), msg[pos:pos+int(l)]...)})
		pos += int(l)
	}
	r.Options = opts
	return nil
}

func (r *OPT) String() string {
	return fmt.Sprintf("EDNS: %d option(s)", len(r.Options))
}

// PackOPTHeader computes the Class/TTL values an OPT RR's header must carry.
func PackOPTHeader(udpSize uint16, extRcode, version uint8, do bool) (Class, uint32) {
	var ttl uint32
	ttl |= uint32(extRcode) << 24
	ttl |= uint32(version) << 16
	if do {
		ttl |= 1 << 15
	}
	return Class(udpSize), ttl
}

// UnpackOPTHeader is the inverse of PackOPTHeader.
func UnpackOPTHeader(class Class, ttl uint32) (udpSize uint16, extRcode, version uint8, do bool) {
	udpSize = uint16(class)
	extRcode = uint8(ttl >> 24)
	version = uint8(ttl >> 16)
	do = ttl&(1<<15) != 0
	return
}

// FullRcode combines a message header's 4-bit rcode with an OPT record's
// extended 8 bits into the 12-bit value spec §3 describes.
func FullRcode(base4 uint8, ext8 uint8) Rcode {
	return Rcode(uint16(ext8)<<4 | uint16(base4&0xf))
}

package rr

import (
	"fmt"
	"strings"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

// TXT holds one or more length-prefixed character-strings (RFC 1035
// §3.3.14). TypeSPF shares this codec since RFC 7208 defines SPF's RDATA
// identically to TXT.
type TXT struct {
	Strings []string
}

func (r *TXT) Type() Type { return TypeTXT }

func (r *TXT) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	if len(r.Strings) == 0 {
		return append(buf, 0), nil
	}
	for _, s := range r.Strings {
		if len(s) > 255 {
			return nil, fmt.Errorf("%w: TXT character-string exceeds 255 octets", dnserr.MalformedWire)
		}
		buf = append(buf, byte(len(s)))
		buf = append(buf, s...)
	}
	return buf, nil
}

func (r *TXT) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	var out []string
	pos := off
	for pos < end {
		l := int(msg[pos])
		pos++
		if pos+l > end {
			return fmt.Errorf("%w: TXT character-string runs past RDATA", dnserr.MalformedWire)
		}
		out = append(out, string(msg[pos:pos+l]))
		pos += l
	}
	r.Strings = out
	return nil
}

func (r *TXT) String() string {
	parts := make([]string, len(r.Strings))
	for i, s := range r.Strings {
		parts[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return strings.Join(parts, " ")
}

// HINFO describes host CPU/OS (RFC 1035 §3.3.2).
type HINFO struct {
	CPU string
	OS  string
}

func (r *HINFO) Type() Type { return TypeHINFO }

func (r *HINFO) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	if len(r.CPU) > 255 || len(r.OS) > 255 {
		return nil, fmt.Errorf("%w: HINFO field exceeds 255 octets", dnserr.MalformedWire)
	}
	buf = append(buf, byte(len(r.CPU)))
	buf = append(buf, r.CPU...)
	buf = append(buf, byte(len(r.OS)))
	buf = append(buf, r.OS...)
	return buf, nil
}

func (r *HINFO) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	if off >= end {
		return fmt.Errorf("%w: empty HINFO rdata", dnserr.MalformedWire)
	}
	cl := int(msg[off])
	if off+1+cl > end {
		return fmt.Errorf("%w: HINFO CPU field runs past RDATA", dnserr.MalformedWire)
	}
	cpu := string(msg[off+1 : off+1+cl])
	pos := off + 1 + cl
	if pos >= end {
		return fmt.Errorf("%w: missing HINFO OS field", dnserr.MalformedWire)
	}
	ol := int(msg[pos])
	if pos+1+ol > end {
		return fmt.Errorf("%w: HINFO OS field runs past RDATA", dnserr.MalformedWire)
	}
	r.CPU = cpu
	r.OS = string(msg[pos+1 : pos+1+ol])
	return nil
}

func (r *HINFO) String() string {
	return `"` + r.CPU + `" "` + r.OS + `"`
}

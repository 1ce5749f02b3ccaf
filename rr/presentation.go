package rr

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

func base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// ParseRR parses one zone-file-style presentation line ("owner [ttl]
// [class] type rdata...", RFC 1035 §5.1) into an RR, the external-facing
// counterpart to RR.String (spec §4.1, §6). A line with no hand-rolled
// parser for its type still round-trips via the RFC 3597 unknown-RR
// syntax ("\# length hexdata").
func ParseRR(line string) (*RR, error) {
	fields, err := tokenizeRR(line)
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: presentation line too short: %q", dnserr.MalformedWire, line)
	}

	owner, err := dnsname.Parse(fields[0])
	if err != nil {
		return nil, err
	}
	fields = fields[1:]

	ttl := uint32(3600)
	class := ClassINET
	if n, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
		ttl = uint32(n)
		fields = fields[1:]
	}
	if len(fields) > 0 {
		if c, ok := ParseClass(strings.ToUpper(fields[0])); ok {
			class = c
			fields = fields[1:]
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: missing RR type: %q", dnserr.MalformedWire, line)
	}
	typ, ok := StringToType[strings.ToUpper(fields[0])]
	if !ok {
		return nil, fmt.Errorf("%w: unknown RR type %q", dnserr.MalformedWire, fields[0])
	}
	rdata := fields[1:]

	data, err := parseRData(typ, rdata)
	if err != nil {
		return nil, err
	}
	return &RR{Owner: owner, Type: typ, Class: class, TTL: ttl, Data: data}, nil
}

// tokenizeRR splits a presentation line on whitespace, honoring
// double-quoted character-strings (used by TXT and its relatives) as a
// single token with the quotes stripped.
func tokenizeRR(line string) ([]string, error) {
	var out []string
	var cur strings.Builder
	inQuote := false
	hasTok := false
	flush := func() {
		if hasTok {
			out = append(out, cur.String())
			cur.Reset()
			hasTok = false
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			hasTok = true
		case c == '\\' && i+1 < len(line) && inQuote:
			cur.WriteByte(c)
			cur.WriteByte(line[i+1])
			i++
			hasTok = true
		case (c == ' ' || c == '\t') && !inQuote:
			flush()
		default:
			cur.WriteByte(c)
			hasTok = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("%w: unterminated quoted string: %q", dnserr.MalformedWire, line)
	}
	flush()
	return out, nil
}

// parseRData dispatches on typ to one of the per-type parsers below; any
// type without one falls back to the generic RFC 3597 "\# len hex" form,
// which every type's wire-to-text Unknown fallback also produces.
func parseRData(typ Type, fields []string) (RData, error) {
	if p, ok := rdataParsers[typ]; ok {
		return p(fields)
	}
	return parseUnknown(fields)
}

func parseUnknown(fields []string) (RData, error) {
	if len(fields) < 2 || fields[0] != `\#` {
		return nil, fmt.Errorf("%w: type has no presentation parser; use \\# len hex", dnserr.MalformedWire)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad unknown-RR length: %v", dnserr.MalformedWire, err)
	}
	data, err := hex.DecodeString(strings.Join(fields[2:], ""))
	if err != nil {
		return nil, fmt.Errorf("%w: bad unknown-RR hex: %v", dnserr.MalformedWire, err)
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: unknown-RR length mismatch", dnserr.MalformedWire)
	}
	return &Unknown{Data: data}, nil
}

func need(fields []string, n int, what string) error {
	if len(fields) < n {
		return fmt.Errorf("%w: %s needs %d field(s), got %d", dnserr.MalformedWire, what, n, len(fields))
	}
	return nil
}

func parseName(s string) (dnsname.Name, error) { return dnsname.Parse(s) }

func parseU16(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	return uint16(n), err
}

func parseU32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	return uint32(n), err
}

func parseU8(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	return uint8(n), err
}

// rdataParsers covers the hand-rolled types whose wire encoding this
// module implements directly; presentation forms follow BIND's
// conventions for each (RFC 1035 §5, RFC 3597 for the rest).
var rdataParsers = map[Type]func([]string) (RData, error){
	TypeA: func(f []string) (RData, error) {
		if err := need(f, 1, "A"); err != nil {
			return nil, err
		}
		ip := net.ParseIP(f[0])
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("%w: bad A address %q", dnserr.MalformedWire, f[0])
		}
		return &A{Addr: ip}, nil
	},
	TypeAAAA: func(f []string) (RData, error) {
		if err := need(f, 1, "AAAA"); err != nil {
			return nil, err
		}
		ip := net.ParseIP(f[0])
		if ip == nil || ip.To4() != nil {
			return nil, fmt.Errorf("%w: bad AAAA address %q", dnserr.MalformedWire, f[0])
		}
		return &AAAA{Addr: ip}, nil
	},
	TypeNS: func(f []string) (RData, error) {
		if err := need(f, 1, "NS"); err != nil {
			return nil, err
		}
		n, err := parseName(f[0])
		return &NS{Host: n}, err
	},
	TypeCNAME: func(f []string) (RData, error) {
		if err := need(f, 1, "CNAME"); err != nil {
			return nil, err
		}
		n, err := parseName(f[0])
		return &CNAME{Target: n}, err
	},
	TypeDNAME: func(f []string) (RData, error) {
		if err := need(f, 1, "DNAME"); err != nil {
			return nil, err
		}
		n, err := parseName(f[0])
		return &DNAME{Target: n}, err
	},
	TypePTR: func(f []string) (RData, error) {
		if err := need(f, 1, "PTR"); err != nil {
			return nil, err
		}
		n, err := parseName(f[0])
		return &PTR{Target: n}, err
	},
	TypeMX: func(f []string) (RData, error) {
		if err := need(f, 2, "MX"); err != nil {
			return nil, err
		}
		pref, err := parseU16(f[0])
		if err != nil {
			return nil, fmt.Errorf("%w: bad MX preference: %v", dnserr.MalformedWire, err)
		}
		n, err := parseName(f[1])
		return &MX{Preference: pref, Exchange: n}, err
	},
	TypeSOA: func(f []string) (RData, error) {
		if err := need(f, 7, "SOA"); err != nil {
			return nil, err
		}
		mname, err := parseName(f[0])
		if err != nil {
			return nil, err
		}
		rname, err := parseName(f[1])
		if err != nil {
			return nil, err
		}
		nums := make([]uint32, 5)
		for i := 0; i < 5; i++ {
			nums[i], err = parseU32(f[2+i])
			if err != nil {
				return nil, fmt.Errorf("%w: bad SOA numeric field: %v", dnserr.MalformedWire, err)
			}
		}
		return &SOA{MName: mname, RName: rname, Serial: nums[0], Refresh: nums[1], Retry: nums[2], Expire: nums[3], Minimum: nums[4]}, nil
	},
	TypeTXT: func(f []string) (RData, error) {
		if len(f) == 0 {
			return nil, fmt.Errorf("%w: TXT needs at least one string", dnserr.MalformedWire)
		}
		return &TXT{Strings: append([]string(nil), f...)}, nil
	},
	TypeSPF: func(f []string) (RData, error) {
		if len(f) == 0 {
			return nil, fmt.Errorf("%w: SPF needs at least one string", dnserr.MalformedWire)
		}
		return &TXT{Strings: append([]string(nil), f...)}, nil
	},
	TypeHINFO: func(f []string) (RData, error) {
		if err := need(f, 2, "HINFO"); err != nil {
			return nil, err
		}
		return &HINFO{CPU: f[0], OS: f[1]}, nil
	},
	TypeSRV: func(f []string) (RData, error) {
		if err := need(f, 4, "SRV"); err != nil {
			return nil, err
		}
		prio, err := parseU16(f[0])
		if err != nil {
			return nil, err
		}
		weight, err := parseU16(f[1])
		if err != nil {
			return nil, err
		}
		port, err := parseU16(f[2])
		if err != nil {
			return nil, err
		}
		target, err := parseName(f[3])
		return &SRV{Priority: prio, Weight: weight, Port: port, Target: target}, err
	},
	TypeCAA: func(f []string) (RData, error) {
		if err := need(f, 3, "CAA"); err != nil {
			return nil, err
		}
		flag, err := parseU8(f[0])
		if err != nil {
			return nil, err
		}
		return &CAA{Flag: flag, Tag: f[1], Value: []byte(strings.Trim(f[2], `"`))}, nil
	},
	TypeSSHFP: func(f []string) (RData, error) {
		if err := need(f, 3, "SSHFP"); err != nil {
			return nil, err
		}
		alg, err := parseU8(f[0])
		if err != nil {
			return nil, err
		}
		ftype, err := parseU8(f[1])
		if err != nil {
			return nil, err
		}
		fp, err := hex.DecodeString(f[2])
		if err != nil {
			return nil, fmt.Errorf("%w: bad SSHFP fingerprint hex: %v", dnserr.MalformedWire, err)
		}
		return &SSHFP{Algorithm: alg, FPType: ftype, Fingerprint: fp}, nil
	},
	TypeTLSA: parseTLSALike,
	TypeSMIMEA: parseTLSALike,
	TypeDS: func(f []string) (RData, error) {
		return parseDSLike(f, "DS")
	},
	TypeCDS: func(f []string) (RData, error) {
		return parseDSLike(f, "CDS")
	},
	TypeDNSKEY: func(f []string) (RData, error) {
		return parseDNSKEYLike(f, "DNSKEY")
	},
	TypeCDNSKEY: func(f []string) (RData, error) {
		return parseDNSKEYLike(f, "CDNSKEY")
	},
}

func parseTLSALike(f []string) (RData, error) {
	if err := need(f, 4, "TLSA"); err != nil {
		return nil, err
	}
	usage, err := parseU8(f[0])
	if err != nil {
		return nil, err
	}
	sel, err := parseU8(f[1])
	if err != nil {
		return nil, err
	}
	mt, err := parseU8(f[2])
	if err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(strings.Join(f[3:], ""))
	if err != nil {
		return nil, fmt.Errorf("%w: bad TLSA certificate-association hex: %v", dnserr.MalformedWire, err)
	}
	return &TLSA{Usage: usage, Selector: sel, MatchingType: mt, Data: data}, nil
}

func parseDSLike(f []string, name string) (RData, error) {
	if err := need(f, 4, name); err != nil {
		return nil, err
	}
	tag, err := parseU16(f[0])
	if err != nil {
		return nil, err
	}
	alg, err := parseU8(f[1])
	if err != nil {
		return nil, err
	}
	dt, err := parseU8(f[2])
	if err != nil {
		return nil, err
	}
	digest, err := hex.DecodeString(strings.Join(f[3:], ""))
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s digest hex: %v", dnserr.MalformedWire, name, err)
	}
	return &DS{KeyTag: tag, Algorithm: alg, DigestType: dt, Digest: digest}, nil
}

func parseDNSKEYLike(f []string, name string) (RData, error) {
	if err := need(f, 4, name); err != nil {
		return nil, err
	}
	flags, err := parseU16(f[0])
	if err != nil {
		return nil, err
	}
	proto, err := parseU8(f[1])
	if err != nil {
		return nil, err
	}
	alg, err := parseU8(f[2])
	if err != nil {
		return nil, err
	}
	key, err := base64Decode(strings.Join(f[3:], ""))
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s key base64: %v", dnserr.MalformedWire, name, err)
	}
	return &DNSKEY{Flags: flags, Protocol: proto, Algorithm: alg, PublicKey: key}, nil
}

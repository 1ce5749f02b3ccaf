package rr

import "strconv"

// OptCodeEDE is the EDNS(0) option code for Extended DNS Errors (RFC 8914).
const OptCodeEDE uint16 = 15

// Extended DNS Error codes that AttachEDE can carry on a response's OPT
// record (RFC 8914 §4, plus locally-defined codes above the private-use
// line). The resolver does not attach them itself.
const (
	EDEUnsupportedDNSKEYAlgorithm uint16 = 1
	EDEUnsupportedDSDigestType    uint16 = 2
	EDEStaleAnswer                uint16 = 3
	EDEDNSSECBogus                uint16 = 6
	EDESignatureExpired           uint16 = 7
	EDESignatureNotYetValid       uint16 = 8
	EDENoReachableAuthority       uint16 = 22

	EDESig0KeyNotKnown      uint16 = 513
	EDETSIGValidationFailed uint16 = 523
)

var edeCodeNames = map[uint16]string{
	EDEUnsupportedDNSKEYAlgorithm: "Unsupported DNSKEY Algorithm",
	EDEUnsupportedDSDigestType:    "Unsupported DS Digest Type",
	EDEStaleAnswer:                "Stale Answer",
	EDEDNSSECBogus:                "DNSSEC Bogus",
	EDESignatureExpired:           "Signature Expired",
	EDESignatureNotYetValid:       "Signature Not Yet Valid",
	EDENoReachableAuthority:       "No Reachable Authority",
	EDESig0KeyNotKnown:            "SIG(0) key not known",
	EDETSIGValidationFailed:       "TSIG validation failure",
}

// EDEString names code, falling back to its bare number.
func EDEString(code uint16) string {
	if s, ok := edeCodeNames[code]; ok {
		return s
	}
	return strconv.Itoa(int(code))
}

// AttachEDE appends an Extended DNS Error option (code plus optional
// free-text extra) to opt's option list.
func AttachEDE(opt *OPT, code uint16, extra string) {
	data := make([]byte, 2+len(extra))
	data[0] = byte(code >> 8)
	data[1] = byte(code)
	copy(data[2:], extra)
	opt.Options = append(opt.Options, EDNSOption{Code: OptCodeEDE, Data: data})
}

// FindEDE returns the first EDE option's code and extra text, if present.
func FindEDE(opt *OPT) (code uint16, extra string, ok bool) {
	if opt == nil {
		return 0, "", false
	}
	for _, o := range opt.Options {
		if o.Code == OptCodeEDE && len(o.Data) >= 2 {
			return uint16(o.Data[0])<<8 | uint16(o.Data[1]), string(o.Data[2:]), true
		}
	}
	return 0, "", false
}

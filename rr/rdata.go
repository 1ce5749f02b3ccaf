package rr

import (
	"encoding/hex"
	"fmt"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

// RData is the tagged-variant capability set every record-data arm
// implements: wire pack/unpack and text presentation. Spec §4.1 calls for
// ~85 variants dispatched by type code; this module hand-rolls the
// commonly exercised and DNSSEC-relevant ones and falls back to the
// RFC 3597 opaque form (Unknown) for the long tail, same as any validating
// resolver must for a type it has never heard of.
type RData interface {
	Type() Type
	pack(c *dnsname.Compressor, buf []byte) ([]byte, error)
	unpack(msg []byte, off, rdlen int) error
	String() string
}

var constructors = map[Type]func() RData{
	TypeA:          func() RData { return &A{} },
	TypeAAAA:       func() RData { return &AAAA{} },
	TypeNS:         func() RData { return &NS{} },
	TypeCNAME:      func() RData { return &CNAME{} },
	TypeDNAME:      func() RData { return &DNAME{} },
	TypePTR:        func() RData { return &PTR{} },
	TypeSOA:        func() RData { return &SOA{} },
	TypeMX:         func() RData { return &MX{} },
	TypeTXT:        func() RData { return &TXT{} },
	TypeSPF:        func() RData { return &TXT{} },
	TypeHINFO:      func() RData { return &HINFO{} },
	TypeSRV:        func() RData { return &SRV{} },
	TypeNAPTR:      func() RData { return &NAPTR{} },
	TypeCAA:        func() RData { return &CAA{} },
	TypeSSHFP:      func() RData { return &SSHFP{} },
	TypeTLSA:       func() RData { return &TLSA{} },
	TypeSMIMEA:     func() RData { return &TLSA{} },
	TypeOPT:        func() RData { return &OPT{} },
	TypeDS:         func() RData { return &DS{} },
	TypeCDS:        func() RData { return &DS{} },
	TypeDLV:        func() RData { return &DS{} },
	TypeTA:         func() RData { return &DS{} },
	TypeDNSKEY:     func() RData { return &DNSKEY{} },
	TypeCDNSKEY:    func() RData { return &DNSKEY{} },
	TypeKEY:        func() RData { return &DNSKEY{} },
	TypeRRSIG:      func() RData { return &RRSIG{} },
	TypeSIG:        func() RData { return &RRSIG{} },
	TypeNSEC:       func() RData { return &NSEC{} },
	TypeNSEC3:      func() RData { return &NSEC3{} },
	TypeNSEC3PARAM: func() RData { return &NSEC3PARAM{} },
	TypeTSIG:       func() RData { return &TSIG{} },

	// Wider RFC 1035-and-successors coverage (rdata_ext.go); dozens of
	// less frequently exercised types beyond the DNSSEC/transport core.
	TypeMB:         func() RData { return &MB{nameRData{typ: TypeMB}} },
	TypeMF:         func() RData { return &MF{nameRData{typ: TypeMF}} },
	TypeMD:         func() RData { return &MD{nameRData{typ: TypeMD}} },
	TypeMG:         func() RData { return &MG{nameRData{typ: TypeMG}} },
	TypeMR:         func() RData { return &MR{nameRData{typ: TypeMR}} },
	TypeNULL:       func() RData { return &NULL{} },
	TypeWKS:        func() RData { return &WKS{} },
	TypeMINFO:      func() RData { return &MINFO{} },
	TypeRP:         func() RData { return &RP{} },
	TypeAFSDB:      func() RData { return &AFSDB{} },
	TypeRT:         func() RData { return &RT{} },
	TypeKX:         func() RData { return &KX{} },
	TypePX:         func() RData { return &PX{} },
	TypeX25:        func() RData { return &X25{} },
	TypeISDN:       func() RData { return &ISDN{} },
	TypeGPOS:       func() RData { return &GPOS{} },
	TypeNSAP:       func() RData { return &NSAP{} },
	TypeNSAPPTR:    func() RData { return &NSAPPTR{} },
	TypeCERT:       func() RData { return &CERT{} },
	TypeDHCID:      func() RData { return &DHCID{} },
	TypeIPSECKEY:   func() RData { return &IPSECKEY{} },
	TypeHIP:        func() RData { return &HIP{} },
	TypeNINFO:      func() RData { return &NINFO{} },
	TypeRKEY:       func() RData { return &RKEY{} },
	TypeTALINK:     func() RData { return &TALINK{} },
	TypeOPENPGPKEY: func() RData { return &OPENPGPKEY{} },
	TypeCSYNC:      func() RData { return &CSYNC{} },
	TypeZONEMD:     func() RData { return &ZONEMD{} },
	TypeSVCB:       func() RData { return &SVCB{} },
	TypeHTTPS:      func() RData { return &HTTPS{} },
	TypeNID:        func() RData { return &NID{} },
	TypeL32:        func() RData { return &L32{} },
	TypeL64:        func() RData { return &L64{} },
	TypeLP:         func() RData { return &LP{} },
	TypeEUI48:      func() RData { return &EUI48{} },
	TypeEUI64:      func() RData { return &EUI64{} },
	TypeURI:        func() RData { return &URI{} },
	TypeAVC:        func() RData { return &AVC{} },
	TypeLOC:        func() RData { return &LOC{} },
	TypeAPL:        func() RData { return &APL{} },
}

// NewRData constructs an empty RData arm for t, or an Unknown opaque arm
// for any type without a hand-rolled codec.
func NewRData(t Type) RData {
	if ctor, ok := constructors[t]; ok {
		return ctor()
	}
	return &Unknown{RRType: t}
}

// DecodeRData unpacks rdlen bytes of RDATA for type t starting at off
// within msg (the full message, so name-bearing types can follow
// compression pointers).
func DecodeRData(t Type, msg []byte, off, rdlen int) (RData, error) {
	if off+rdlen > len(msg) {
		return nil, fmt.Errorf("%w: rdata runs past end of message", dnserr.MalformedWire)
	}
	d := NewRData(t)
	if err := d.unpack(msg, off, rdlen); err != nil {
		return nil, err
	}
	return d, nil
}

// Unknown is the RFC 3597 opaque fallback for any type this module does
// not hand-decode. Its presentation form is the standard "\# <len> <hex>".
type Unknown struct {
	RRType Type
	Data   []byte
}

func (u *Unknown) Type() Type { return u.RRType }

func (u *Unknown) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	return append(buf, u.Data...), nil
}

func (u *Unknown) unpack(msg []byte, off, rdlen int) error {
	u.Data = append([]byte(nil), msg[off:off+rdlen]...)
	return nil
}

func (u *Unknown) String() string {
	return fmt.Sprintf("\\# %d %s", len(u.Data), hex.EncodeToString(u.Data))
}

// helpers shared by multiple rdata_*.go files

func putUint16(buf []byte, v uint16) []byte { return append(buf, byte(v>>8), byte(v)) }
func putUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func getUint16(msg []byte, off int) (uint16, error) {
	if off+2 > len(msg) {
		return 0, fmt.Errorf("%w: short read", dnserr.MalformedWire)
	}
	return uint16(msg[off])<<8 | uint16(msg[off+1]), nil
}

func getUint32(msg []byte, off int) (uint32, error) {
	if off+4 > len(msg) {
		return 0, fmt.Errorf("%w: short read", dnserr.MalformedWire)
	}
	return uint32(msg[off])<<24 | uint32(msg[off+1])<<16 | uint32(msg[off+2])<<8 | uint32(msg[off+3]), nil
}

package rr

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

// DNSKEY is a zone signing key (RFC 4034 §2) or, via the TypeKEY/TypeCDNSKEY
// aliases, its SIG(0)/child-copy siblings which share the identical RDATA
// layout.
type DNSKEY struct {
	Flags     uint16
	Protocol  uint8
	Algorithm uint8
	PublicKey []byte
}

const (
	DNSKEYFlagZone   uint16 = 1 << 8 // 256
	DNSKEYFlagRevoke uint16 = 1 << 7 // 128
	DNSKEYFlagSEP    uint16 = 1 << 0 // 1
)

func (r *DNSKEY) Type() Type { return TypeDNSKEY }

func (r *DNSKEY) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Flags)
	buf = append(buf, r.Protocol, r.Algorithm)
	return append(buf, r.PublicKey...), nil
}

func (r *DNSKEY) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 4 {
		return fmt.Errorf("%w: DNSKEY rdata too short", dnserr.MalformedWire)
	}
	flags, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	r.Flags = flags
	r.Protocol = msg[off+2]
	r.Algorithm = msg[off+3]
	r.PublicKey = append([]byte(nil), msg[off+4:off+rdlen]...)
	return nil
}

func (r *DNSKEY) String() string {
	return fmt.Sprintf("%d %d %d %s", r.Flags, r.Protocol, r.Algorithm, base64.StdEncoding.EncodeToString(r.PublicKey))
}

// Wire returns the RDATA wire form (flags, protocol, algorithm, key) used as
// input to both the key-tag checksum and the DS digest (spec §3).
func (r *DNSKEY) Wire() []byte {
	buf, _ := r.pack(nil, nil)
	return buf
}

// KeyTag computes the RFC 4034 Appendix B key-tag checksum. RSA/MD5
// (algorithm 1) instead uses the third- and second-to-last bytes of the
// public key verbatim (the top 16 of the modulus's low 24 bits), a
// historical special case spec §3 calls out explicitly.
func (r *DNSKEY) KeyTag() uint16 {
	if r.Algorithm == 1 { // RSAMD5
		if len(r.PublicKey) < 3 {
			return 0
		}
		return uint16(r.PublicKey[len(r.PublicKey)-3])<<8 | uint16(r.PublicKey[len(r.PublicKey)-2])
	}
	wire := r.Wire()
	var ac uint32
	for i, b := range wire {
		if i&1 == 0 {
			ac += uint32(b) << 8
		} else {
			ac += uint32(b)
		}
	}
	ac += ac >> 16 & 0xffff
	return uint16(ac & 0xffff)
}

// DS is a delegation-signer digest record (RFC 4034 §5); CDS, DLV and TA
// share its RDATA layout.
type DS struct {
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     []byte
}

func (r *DS) Type() Type { return TypeDS }

func (r *DS) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.KeyTag)
	buf = append(buf, r.Algorithm, r.DigestType)
	return append(buf, r.Digest...), nil
}

func (r *DS) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 4 {
		return fmt.Errorf("%w: DS rdata too short", dnserr.MalformedWire)
	}
	kt, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	r.KeyTag = kt
	r.Algorithm = msg[off+2]
	r.DigestType = msg[off+3]
	r.Digest = append([]byte(nil), msg[off+4:off+rdlen]...)
	return nil
}

func (r *DS) String() string {
	return fmt.Sprintf("%d %d %d %s", r.KeyTag, r.Algorithm, r.DigestType, strings.ToUpper(hex.EncodeToString(r.Digest)))
}

// RRSIG covers one RRset with a signature (RFC 4034 §3); SIG(0) (spec §4.7)
// reuses the identical layout with TypeCovered==0 and SignerName==".".
type RRSIG struct {
	TypeCovered Type
	Algorithm   uint8
	Labels      uint8
	OrigTTL     uint32
	Expiration  uint32
	Inception   uint32
	KeyTag      uint16
	SignerName  dnsname.Name
	Signature   []byte
}

func (r *RRSIG) Type() Type { return TypeRRSIG }

func (r *RRSIG) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, uint16(r.TypeCovered))
	buf = append(buf, r.Algorithm, r.Labels)
	buf = putUint32(buf, r.OrigTTL)
	buf = putUint32(buf, r.Expiration)
	buf = putUint32(buf, r.Inception)
	buf = putUint16(buf, r.KeyTag)
	// RRSIG's signer name is never compressed: it must appear verbatim so
	// the exact bytes match what was hashed for signing (spec §4.2).
	var err error
	buf, err = c.WriteName(buf, r.SignerName, false)
	if err != nil {
		return nil, err
	}
	return append(buf, r.Signature...), nil
}

// PackSignedData renders the RRSIG_RDATA-minus-signature prefix used as the
// first part of the signature input (spec §4.2).
func (r *RRSIG) PackSignedData() []byte {
	var buf []byte
	buf = putUint16(buf, uint16(r.TypeCovered))
	buf = append(buf, r.Algorithm, r.Labels)
	buf = putUint32(buf, r.OrigTTL)
	buf = putUint32(buf, r.Expiration)
	buf = putUint32(buf, r.Inception)
	buf = putUint16(buf, r.KeyTag)
	c := dnsname.NewCompressor()
	buf, _ = c.WriteName(buf, r.SignerName, false)
	return buf
}

func (r *RRSIG) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	if off+18 > end {
		return fmt.Errorf("%w: RRSIG rdata too short", dnserr.MalformedWire)
	}
	tc, _ := getUint16(msg, off)
	algo := msg[off+2]
	labels := msg[off+3]
	origTTL, _ := getUint32(msg, off+4)
	exp, _ := getUint32(msg, off+8)
	inc, _ := getUint32(msg, off+12)
	keytag, _ := getUint16(msg, off+16)
	signer, next, err := dnsname.ReadName(msg, off+18)
	if err != nil {
		return err
	}
	if next > end {
		return fmt.Errorf("%w: RRSIG signer name runs past RDATA", dnserr.MalformedWire)
	}
	r.TypeCovered = Type(tc)
	r.Algorithm = algo
	r.Labels = labels
	r.OrigTTL = origTTL
	r.Expiration = exp
	r.Inception = inc
	r.KeyTag = keytag
	r.SignerName = signer
	r.Signature = append([]byte(nil), msg[next:end]...)
	return nil
}

func (r *RRSIG) String() string {
	return fmt.Sprintf("%s %d %d %d %d %d %d %s %s",
		r.TypeCovered, r.Algorithm, r.Labels, r.OrigTTL, r.Expiration, r.Inception,
		r.KeyTag, r.SignerName.String(), base64.StdEncoding.EncodeToString(r.Signature))
}

// NSEC proves the non-existence of names/types between owner and
// NextDomain (RFC 4034 §4). Per spec §4.1, NextDomain is never compressed.
type NSEC struct {
	NextDomain dnsname.Name
	Types      []Type
}

func (r *NSEC) Type() Type { return TypeNSEC }

func (r *NSEC) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	buf, err = c.WriteName(buf, r.NextDomain, false)
	if err != nil {
		return nil, err
	}
	return append(buf, EncodeTypeBitmap(r.Types)...), nil
}

func (r *NSEC) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	next, nameEnd, err := dnsname.ReadName(msg, off)
	if err != nil {
		return err
	}
	types, err := DecodeTypeBitmap(msg[nameEnd:end])
	if err != nil {
		return err
	}
	r.NextDomain, r.Types = next, types
	return nil
}

func (r *NSEC) String() string {
	names := make([]string, len(r.Types))
	for i, t := range r.Types {
		names[i] = t.String()
	}
	return r.NextDomain.String() + " " + strings.Join(names, " ")
}

// base32Hex is RFC 4648's "base32hex" alphabet, unpadded, used by NSEC3
// owner-label hashes.
var base32Hex = base32.HexEncoding.WithPadding(base32.NoPadding)

// NSEC3 is the hashed denial-of-existence record (RFC 5155).
type NSEC3 struct {
	HashAlg         uint8
	Flags           uint8
	Iterations      uint16
	Salt            []byte
	NextHashedOwner []byte
	Types           []Type
}

const NSEC3FlagOptOut uint8 = 1

func (r *NSEC3) Type() Type { return TypeNSEC3 }

func (r *NSEC3) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = append(buf, r.HashAlg, r.Flags)
	buf = putUint16(buf, r.Iterations)
	buf = append(buf, byte(len(r.Salt)))
	buf = append(buf, r.Salt...)
	buf = append(buf, byte(len(r.NextHashedOwner)))
	buf = append(buf, r.NextHashedOwner...)
	return append(buf, EncodeTypeBitmap(r.Types)...), nil
}

func (r *NSEC3) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	if off+5 > end {
		return fmt.Errorf("%w: NSEC3 rdata too short", dnserr.MalformedWire)
	}
	hashAlg, flags := msg[off], msg[off+1]
	iter, _ := getUint16(msg, off+2)
	saltLen := int(msg[off+4])
	pos := off + 5
	if pos+saltLen > end {
		return fmt.Errorf("%w: NSEC3 salt runs past RDATA", dnserr.MalformedWire)
	}
	salt := append([]byte(nil), msg[pos:pos+saltLen]...)
	pos += saltLen
	if pos >= end {
		return fmt.Errorf("%w: missing NSEC3 hash length", dnserr.MalformedWire)
	}
	hashLen := int(msg[pos])
	pos++
	if pos+hashLen > end {
		return fmt.Errorf("%w: NSEC3 next-hashed-owner runs past RDATA", dnserr.MalformedWire)
	}
	nextHash := append([]byte(nil), msg[pos:pos+hashLen]...)
	pos += hashLen
	types, err := DecodeTypeBitmap(msg[pos:end])
	if err != nil {
		return err
	}
	r.HashAlg, r.Flags, r.Iterations, r.Salt, r.NextHashedOwner, r.Types = hashAlg, flags, iter, salt, nextHash, types
	return nil
}

func (r *NSEC3) String() string {
	salt := "-"
	if len(r.Salt) > 0 {
		salt = strings.ToUpper(hex.EncodeToString(r.Salt))
	}
	names := make([]string, len(r.Types))
	for i, t := range r.Types {
		names[i] = t.String()
	}
	return fmt.Sprintf("%d %d %d %s %s %s", r.HashAlg, r.Flags, r.Iterations, salt,
		strings.ToLower(base32Hex.EncodeToString(r.NextHashedOwner)), strings.Join(names, " "))
}

// NSEC3PARAM advertises the hashing parameters a zone uses (RFC 5155 §4).
type NSEC3PARAM struct {
	HashAlg    uint8
	Flags      uint8
	Iterations uint16
	Salt       []byte
}

func (r *NSEC3PARAM) Type() Type { return TypeNSEC3PARAM }

func (r *NSEC3PARAM) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = append(buf, r.HashAlg, r.Flags)
	buf = putUint16(buf, r.Iterations)
	buf = append(buf, byte(len(r.Salt)))
	return append(buf, r.Salt...), nil
}

func (r *NSEC3PARAM) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 5 {
		return fmt.Errorf("%w: NSEC3PARAM rdata too short", dnserr.MalformedWire)
	}
	r.HashAlg, r.Flags = msg[off], msg[off+1]
	iter, _ := getUint16(msg, off+2)
	r.Iterations = iter
	saltLen := int(msg[off+4])
	if off+5+saltLen > off+rdlen {
		return fmt.Errorf("%w: NSEC3PARAM salt runs past RDATA", dnserr.MalformedWire)
	}
	r.Salt = append([]byte(nil), msg[off+5:off+5+saltLen]...)
	return nil
}

func (r *NSEC3PARAM) String() string {
	salt := "-"
	if len(r.Salt) > 0 {
		salt = strings.ToUpper(hex.EncodeToString(r.Salt))
	}
	return fmt.Sprintf("%d %d %d %s", r.HashAlg, r.Flags, r.Iterations, salt)
}

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

// This file widens RDATA dispatch past the DNSSEC/transport-critical core
// in rdata_*.go to the rest of the commonly seen RFC 1035-and-successors
// type registry (spec §2/§4.1). Each arm follows the same pack/unpack/
// String shape as its neighbors; types sharing an identical RDATA layout
// (MD/MF as CNAME-shaped, CDS/DLV/TA as DS-shaped, ...) are registered
// against one struct in the constructors map rather than duplicated.

// nameRData is the shared shape for the handful of obsolete single-name
// types (MB, MF, MD, MG, MR) that predate MX/CNAME's modern equivalents
// but still parse as one domain name (RFC 1035 §3.3).
type nameRData struct {
	typ    Type
	Target dnsname.Name
}

func (r *nameRData) Type() Type { return r.typ }

func (r *nameRData) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	return c.WriteName(buf, r.Target, true)
}

func (r *nameRData) unpack(msg []byte, off, _ int) error {
	n, _, err := dnsname.ReadName(msg, off)
	if err != nil {
		return err
	}
	r.Target = n
	return nil
}

func (r *nameRData) String() string { return r.Target.String() }

// MB/MF/MD/MG/MR (RFC 1035 §3.3.*): obsolete mailbox-routing records, all
// one compressible domain name.
type MB struct{ nameRData }
type MF struct{ nameRData }
type MD struct{ nameRData }
type MG struct{ nameRData }
type MR struct{ nameRData }

// NULL (RFC 1035 §3.3.10) carries opaque, unconstrained RDATA.
type NULL struct {
	Data []byte
}

func (r *NULL) Type() Type { return TypeNULL }
func (r *NULL) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	return append(buf, r.Data...), nil
}
func (r *NULL) unpack(msg []byte, off, rdlen int) error {
	r.Data = append([]byte(nil), msg[off:off+rdlen]...)
	return nil
}
func (r *NULL) String() string { return fmt.Sprintf("\\# %d %s", len(r.Data), hex.EncodeToString(r.Data)) }

// WKS (RFC 1035 §3.4.2): an address plus an IP protocol number and a
// service bitmap, one bit per well-known port.
type WKS struct {
	Addr     net.IP
	Protocol uint8
	Bitmap   []byte
}

func (r *WKS) Type() Type { return TypeWKS }

func (r *WKS) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	ip4 := r.Addr.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: WKS address is not IPv4", dnserr.MalformedWire)
	}
	buf = append(buf, ip4...)
	buf = append(buf, r.Protocol)
	return append(buf, r.Bitmap...), nil
}

func (r *WKS) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 5 {
		return fmt.Errorf("%w: WKS rdata too short", dnserr.MalformedWire)
	}
	r.Addr = append(net.IP(nil), msg[off:off+4]...)
	r.Protocol = msg[off+4]
	r.Bitmap = append([]byte(nil), msg[off+5:off+rdlen]...)
	return nil
}

func (r *WKS) String() string {
	return fmt.Sprintf("%s %d %s", r.Addr.String(), r.Protocol, hex.EncodeToString(r.Bitmap))
}

// MINFO (RFC 1035 §3.3.7): responsible-mailbox and error-mailbox names.
type MINFO struct {
	RMailbox dnsname.Name
	EMailbox dnsname.Name
}

func (r *MINFO) Type() Type { return TypeMINFO }

func (r *MINFO) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	if buf, err = c.WriteName(buf, r.RMailbox, true); err != nil {
		return nil, err
	}
	return c.WriteName(buf, r.EMailbox, true)
}

func (r *MINFO) unpack(msg []byte, off, _ int) error {
	rm, next, err := dnsname.ReadName(msg, off)
	if err != nil {
		return err
	}
	em, _, err := dnsname.ReadName(msg, next)
	if err != nil {
		return err
	}
	r.RMailbox, r.EMailbox = rm, em
	return nil
}

func (r *MINFO) String() string { return r.RMailbox.String() + " " + r.EMailbox.String() }

// RP (RFC 1183 §2.2): responsible-person mailbox plus a TXT pointer, both
// uncompressed domain names.
type RP struct {
	Mailbox dnsname.Name
	TXTDom  dnsname.Name
}

func (r *RP) Type() Type { return TypeRP }

func (r *RP) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	if buf, err = c.WriteName(buf, r.Mailbox, false); err != nil {
		return nil, err
	}
	return c.WriteName(buf, r.TXTDom, false)
}

func (r *RP) unpack(msg []byte, off, _ int) error {
	mb, next, err := dnsname.ReadName(msg, off)
	if err != nil {
		return err
	}
	tx, _, err := dnsname.ReadName(msg, next)
	if err != nil {
		return err
	}
	r.Mailbox, r.TXTDom = mb, tx
	return nil
}

func (r *RP) String() string { return r.Mailbox.String() + " " + r.TXTDom.String() }

// AFSDB (RFC 1183 §1): a subtype plus an uncompressed hostname.
type AFSDB struct {
	Subtype  uint16
	Hostname dnsname.Name
}

func (r *AFSDB) Type() Type { return TypeAFSDB }

func (r *AFSDB) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Subtype)
	return c.WriteName(buf, r.Hostname, false)
}

func (r *AFSDB) unpack(msg []byte, off, _ int) error {
	st, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	n, _, err := dnsname.ReadName(msg, off+2)
	if err != nil {
		return err
	}
	r.Subtype, r.Hostname = st, n
	return nil
}

func (r *AFSDB) String() string { return fmt.Sprintf("%d %s", r.Subtype, r.Hostname.String()) }

// RT (RFC 1183 §3.3): route-through, identical layout to MX.
type RT struct {
	Preference uint16
	Host       dnsname.Name
}

func (r *RT) Type() Type { return TypeRT }

func (r *RT) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Preference)
	return c.WriteName(buf, r.Host, false)
}

func (r *RT) unpack(msg []byte, off, _ int) error {
	pref, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	n, _, err := dnsname.ReadName(msg, off+2)
	if err != nil {
		return err
	}
	r.Preference, r.Host = pref, n
	return nil
}

func (r *RT) String() string { return fmt.Sprintf("%d %s", r.Preference, r.Host.String()) }

// KX (RFC 2230): key exchanger, identical layout to MX/RT.
type KX struct {
	Preference uint16
	Exchanger  dnsname.Name
}

func (r *KX) Type() Type { return TypeKX }

func (r *KX) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Preference)
	return c.WriteName(buf, r.Exchanger, false)
}

func (r *KX) unpack(msg []byte, off, _ int) error {
	pref, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	n, _, err := dnsname.ReadName(msg, off+2)
	if err != nil {
		return err
	}
	r.Preference, r.Exchanger = pref, n
	return nil
}

func (r *KX) String() string { return fmt.Sprintf("%d %s", r.Preference, r.Exchanger.String()) }

// PX (RFC 2163): MAP822/MAPX400 X.400-to-RFC822 mail mapping.
type PX struct {
	Preference uint16
	Map822     dnsname.Name
	MapX400    dnsname.Name
}

func (r *PX) Type() Type { return TypePX }

func (r *PX) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Preference)
	var err error
	if buf, err = c.WriteName(buf, r.Map822, false); err != nil {
		return nil, err
	}
	return c.WriteName(buf, r.MapX400, false)
}

func (r *PX) unpack(msg []byte, off, _ int) error {
	pref, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	m822, next, err := dnsname.ReadName(msg, off+2)
	if err != nil {
		return err
	}
	mx400, _, err := dnsname.ReadName(msg, next)
	if err != nil {
		return err
	}
	r.Preference, r.Map822, r.MapX400 = pref, m822, mx400
	return nil
}

func (r *PX) String() string {
	return fmt.Sprintf("%d %s %s", r.Preference, r.Map822.String(), r.MapX400.String())
}

// X25 (RFC 1183 §3.1) and ISDN (RFC 1183 §3.2) both carry one or two
// character-strings of digits.
type X25 struct {
	PSDNAddress string
}

func (r *X25) Type() Type { return TypeX25 }
func (r *X25) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	return packCharString(buf, r.PSDNAddress)
}
func (r *X25) unpack(msg []byte, off, rdlen int) error {
	s, _, err := getCharString(msg, off, off+rdlen)
	if err != nil {
		return err
	}
	r.PSDNAddress = s
	return nil
}
func (r *X25) String() string { return strconv.Quote(r.PSDNAddress) }

type ISDN struct {
	Address string
	SA      string
}

func (r *ISDN) Type() Type { return TypeISDN }
func (r *ISDN) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	if buf, err = packCharString(buf, r.Address); err != nil {
		return nil, err
	}
	if r.SA == "" {
		return buf, nil
	}
	return packCharString(buf, r.SA)
}
func (r *ISDN) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	addr, next, err := getCharString(msg, off, end)
	if err != nil {
		return err
	}
	r.Address = addr
	if next < end {
		sa, _, err := getCharString(msg, next, end)
		if err != nil {
			return err
		}
		r.SA = sa
	}
	return nil
}
func (r *ISDN) String() string {
	if r.SA == "" {
		return strconv.Quote(r.Address)
	}
	return strconv.Quote(r.Address) + " " + strconv.Quote(r.SA)
}

// GPOS (RFC 1712): geographical position as three character-strings.
type GPOS struct {
	Longitude string
	Latitude  string
	Altitude  string
}

func (r *GPOS) Type() Type { return TypeGPOS }
func (r *GPOS) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	if buf, err = packCharString(buf, r.Longitude); err != nil {
		return nil, err
	}
	if buf, err = packCharString(buf, r.Latitude); err != nil {
		return nil, err
	}
	return packCharString(buf, r.Altitude)
}
func (r *GPOS) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	lon, next, err := getCharString(msg, off, end)
	if err != nil {
		return err
	}
	lat, next, err := getCharString(msg, next, end)
	if err != nil {
		return err
	}
	alt, _, err := getCharString(msg, next, end)
	if err != nil {
		return err
	}
	r.Longitude, r.Latitude, r.Altitude = lon, lat, alt
	return nil
}
func (r *GPOS) String() string { return r.Longitude + " " + r.Latitude + " " + r.Altitude }

// NSAP (RFC 1706) and NSAP-PTR (RFC 1348) carry raw address bytes / a
// single pointer name respectively.
type NSAP struct {
	Address []byte
}

func (r *NSAP) Type() Type { return TypeNSAP }
func (r *NSAP) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	return append(buf, r.Address...), nil
}
func (r *NSAP) unpack(msg []byte, off, rdlen int) error {
	r.Address = append([]byte(nil), msg[off:off+rdlen]...)
	return nil
}
func (r *NSAP) String() string { return "0x" + hex.EncodeToString(r.Address) }

type NSAPPTR struct {
	Owner dnsname.Name
}

func (r *NSAPPTR) Type() Type { return TypeNSAPPTR }
func (r *NSAPPTR) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	return c.WriteName(buf, r.Owner, false)
}
func (r *NSAPPTR) unpack(msg []byte, off, _ int) error {
	n, _, err := dnsname.ReadName(msg, off)
	if err != nil {
		return err
	}
	r.Owner = n
	return nil
}
func (r *NSAPPTR) String() string { return r.Owner.String() }

// CERT (RFC 4398): a certificate or CRL, keyed by type/key-tag/algorithm.
type CERT struct {
	CertType  uint16
	KeyTag    uint16
	Algorithm uint8
	Cert      []byte
}

func (r *CERT) Type() Type { return TypeCERT }
func (r *CERT) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.CertType)
	buf = putUint16(buf, r.KeyTag)
	buf = append(buf, r.Algorithm)
	return append(buf, r.Cert...), nil
}
func (r *CERT) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 5 {
		return fmt.Errorf("%w: CERT rdata too short", dnserr.MalformedWire)
	}
	ct, _ := getUint16(msg, off)
	kt, _ := getUint16(msg, off+2)
	r.CertType, r.KeyTag, r.Algorithm = ct, kt, msg[off+4]
	r.Cert = append([]byte(nil), msg[off+5:off+rdlen]...)
	return nil
}
func (r *CERT) String() string {
	return fmt.Sprintf("%d %d %d %s", r.CertType, r.KeyTag, r.Algorithm, base64StdEncode(r.Cert))
}

// DHCID (RFC 4701): opaque identifier data, no internal structure beyond
// the base64 blob itself.
type DHCID struct {
	Data []byte
}

func (r *DHCID) Type() Type { return TypeDHCID }
func (r *DHCID) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	return append(buf, r.Data...), nil
}
func (r *DHCID) unpack(msg []byte, off, rdlen int) error {
	r.Data = append([]byte(nil), msg[off:off+rdlen]...)
	return nil
}
func (r *DHCID) String() string { return base64StdEncode(r.Data) }

// IPSECKEY (RFC 4025): gateway-typed keying material for opportunistic
// IPsec. GatewayType 0 = none, 1 = IPv4, 2 = IPv6, 3 = domain name.
type IPSECKEY struct {
	Precedence  uint8
	GatewayType uint8
	Algorithm   uint8
	Gateway     string
	GatewayName dnsname.Name
	PublicKey   []byte
}

func (r *IPSECKEY) Type() Type { return TypeIPSECKEY }

func (r *IPSECKEY) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = append(buf, r.Precedence, r.GatewayType, r.Algorithm)
	switch r.GatewayType {
	case 1:
		ip := net.ParseIP(r.Gateway).To4()
		if ip == nil {
			return nil, fmt.Errorf("%w: IPSECKEY IPv4 gateway invalid", dnserr.MalformedWire)
		}
		buf = append(buf, ip...)
	case 2:
		ip := net.ParseIP(r.Gateway).To16()
		if ip == nil {
			return nil, fmt.Errorf("%w: IPSECKEY IPv6 gateway invalid", dnserr.MalformedWire)
		}
		buf = append(buf, ip...)
	case 3:
		// RFC 4025 §3.3: the gateway name is never compressed.
		var err error
		buf, err = c.WriteName(buf, r.GatewayName, false)
		if err != nil {
			return nil, err
		}
	}
	return append(buf, r.PublicKey...), nil
}

func (r *IPSECKEY) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	if off+3 > end {
		return fmt.Errorf("%w: IPSECKEY rdata too short", dnserr.MalformedWire)
	}
	r.Precedence, r.GatewayType, r.Algorithm = msg[off], msg[off+1], msg[off+2]
	pos := off + 3
	switch r.GatewayType {
	case 1:
		if pos+4 > end {
			return fmt.Errorf("%w: IPSECKEY IPv4 gateway truncated", dnserr.MalformedWire)
		}
		r.Gateway = net.IP(msg[pos : pos+4]).String()
		pos += 4
	case 2:
		if pos+16 > end {
			return fmt.Errorf("%w: IPSECKEY IPv6 gateway truncated", dnserr.MalformedWire)
		}
		r.Gateway = net.IP(msg[pos : pos+16]).String()
		pos += 16
	case 3:
		n, next, err := dnsname.ReadName(msg, pos)
		if err != nil {
			return err
		}
		r.GatewayName = n
		pos = next
	}
	if pos > end {
		return fmt.Errorf("%w: IPSECKEY gateway runs past RDATA", dnserr.MalformedWire)
	}
	r.PublicKey = append([]byte(nil), msg[pos:end]...)
	return nil
}

func (r *IPSECKEY) String() string {
	gw := r.Gateway
	if r.GatewayType == 3 {
		gw = r.GatewayName.String()
	} else if r.GatewayType == 0 {
		gw = "."
	}
	return fmt.Sprintf("%d %d %d %s %s", r.Precedence, r.GatewayType, r.Algorithm, gw, base64StdEncode(r.PublicKey))
}

// HIP (RFC 8005): host identity protocol, an HIT plus a public key and a
// list of rendezvous-server names.
type HIP struct {
	Algorithm uint8
	HIT       []byte
	PublicKey []byte
	Servers   []dnsname.Name
}

func (r *HIP) Type() Type { return TypeHIP }

func (r *HIP) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = append(buf, byte(len(r.HIT)), r.Algorithm)
	buf = putUint16(buf, uint16(len(r.PublicKey)))
	buf = append(buf, r.HIT...)
	buf = append(buf, r.PublicKey...)
	nc := dnsname.NewCompressor()
	for _, s := range r.Servers {
		var err error
		buf, err = nc.WriteName(buf, s, false)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (r *HIP) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	if off+4 > end {
		return fmt.Errorf("%w: HIP rdata too short", dnserr.MalformedWire)
	}
	hitLen := int(msg[off])
	r.Algorithm = msg[off+1]
	pkLen, _ := getUint16(msg, off+2)
	pos := off + 4
	if pos+hitLen+int(pkLen) > end {
		return fmt.Errorf("%w: HIP HIT/key runs past RDATA", dnserr.MalformedWire)
	}
	r.HIT = append([]byte(nil), msg[pos:pos+hitLen]...)
	pos += hitLen
	r.PublicKey = append([]byte(nil), msg[pos:pos+int(pkLen)]...)
	pos += int(pkLen)
	r.Servers = nil
	for pos < end {
		n, next, err := dnsname.ReadName(msg, pos)
		if err != nil {
			return err
		}
		r.Servers = append(r.Servers, n)
		pos = next
	}
	return nil
}

func (r *HIP) String() string {
	servers := make([]string, len(r.Servers))
	for i, s := range r.Servers {
		servers[i] = s.String()
	}
	out := fmt.Sprintf("%d %s %s", r.Algorithm, hex.EncodeToString(r.HIT), base64StdEncode(r.PublicKey))
	if len(servers) > 0 {
		out += " " + strings.Join(servers, " ")
	}
	return out
}

// NINFO (same layout as TXT: a sequence of character-strings of "zone
// status" notes).
type NINFO struct {
	Strings []string
}

func (r *NINFO) Type() Type { return TypeNINFO }
func (r *NINFO) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	for _, s := range r.Strings {
		if buf, err = packCharString(buf, s); err != nil {
			return nil, err
		}
	}
	return buf, nil
}
func (r *NINFO) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	var out []string
	for off < end {
		s, next, err := getCharString(msg, off, end)
		if err != nil {
			return err
		}
		out = append(out, s)
		off = next
	}
	r.Strings = out
	return nil
}
func (r *NINFO) String() string { return strings.Join(quoteAll(r.Strings), " ") }

// RKEY (same wire layout as DNSKEY) advertises a key for the RRNAME
// signaling mechanism.
type RKEY struct {
	DNSKEY
}

func (r *RKEY) Type() Type { return TypeRKEY }

// TALINK (RFC draft-ietf-dnsext-dnssec-trust-anchor): previous/next
// trust-anchor pointer names, both uncompressed.
type TALINK struct {
	Previous dnsname.Name
	Next     dnsname.Name
}

func (r *TALINK) Type() Type { return TypeTALINK }
func (r *TALINK) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	if buf, err = c.WriteName(buf, r.Previous, false); err != nil {
		return nil, err
	}
	return c.WriteName(buf, r.Next, false)
}
func (r *TALINK) unpack(msg []byte, off, _ int) error {
	prev, next, err := dnsname.ReadName(msg, off)
	if err != nil {
		return err
	}
	nxt, _, err := dnsname.ReadName(msg, next)
	if err != nil {
		return err
	}
	r.Previous, r.Next = prev, nxt
	return nil
}
func (r *TALINK) String() string { return r.Previous.String() + " " + r.Next.String() }

// OPENPGPKEY (RFC 7929): a raw OpenPGP public key packet, no framing of
// its own.
type OPENPGPKEY struct {
	Data []byte
}

func (r *OPENPGPKEY) Type() Type { return TypeOPENPGPKEY }
func (r *OPENPGPKEY) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	return append(buf, r.Data...), nil
}
func (r *OPENPGPKEY) unpack(msg []byte, off, rdlen int) error {
	r.Data = append([]byte(nil), msg[off:off+rdlen]...)
	return nil
}
func (r *OPENPGPKEY) String() string { return base64StdEncode(r.Data) }

// CSYNC (RFC 7477): child-to-parent synchronization, an SOA serial, a
// flag word, and the type-bitmap of records the child wants the parent to
// pick up (reuses the NSEC/NSEC3 windowed bitmap codec).
type CSYNC struct {
	SOASerial uint32
	Flags     uint16
	Types     []Type
}

func (r *CSYNC) Type() Type { return TypeCSYNC }
func (r *CSYNC) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint32(buf, r.SOASerial)
	buf = putUint16(buf, r.Flags)
	return append(buf, EncodeTypeBitmap(r.Types)...), nil
}
func (r *CSYNC) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	if off+6 > end {
		return fmt.Errorf("%w: CSYNC rdata too short", dnserr.MalformedWire)
	}
	serial, _ := getUint32(msg, off)
	flags, _ := getUint16(msg, off+4)
	types, err := DecodeTypeBitmap(msg[off+6 : end])
	if err != nil {
		return err
	}
	r.SOASerial, r.Flags, r.Types = serial, flags, types
	return nil
}
func (r *CSYNC) String() string {
	names := make([]string, len(r.Types))
	for i, t := range r.Types {
		names[i] = t.String()
	}
	return fmt.Sprintf("%d %d %s", r.SOASerial, r.Flags, strings.Join(names, " "))
}

// ZONEMD (RFC 8976): a whole-zone digest, used to detect transfer
// corruption rather than to authenticate data per-record.
type ZONEMD struct {
	Serial   uint32
	Scheme   uint8
	HashAlgo uint8
	Digest   []byte
}

func (r *ZONEMD) Type() Type { return TypeZONEMD }
func (r *ZONEMD) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint32(buf, r.Serial)
	buf = append(buf, r.Scheme, r.HashAlgo)
	return append(buf, r.Digest...), nil
}
func (r *ZONEMD) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 6 {
		return fmt.Errorf("%w: ZONEMD rdata too short", dnserr.MalformedWire)
	}
	serial, _ := getUint32(msg, off)
	r.Serial = serial
	r.Scheme, r.HashAlgo = msg[off+4], msg[off+5]
	r.Digest = append([]byte(nil), msg[off+6:off+rdlen]...)
	return nil
}
func (r *ZONEMD) String() string {
	return fmt.Sprintf("%d %d %d %s", r.Serial, r.Scheme, r.HashAlgo, hex.EncodeToString(r.Digest))
}

// SVCParam is one key/value pair of an SVCB/HTTPS RDATA (RFC 9460 §2.1).
type SVCParam struct {
	Key   uint16
	Value []byte
}

// SVCB (RFC 9460): service binding, priority plus a target name and a set
// of TLV service parameters. HTTPS shares the identical layout.
type SVCB struct {
	Priority uint16
	Target   dnsname.Name
	Params   []SVCParam
}

func (r *SVCB) Type() Type { return TypeSVCB }

func (r *SVCB) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Priority)
	// SVCB targets are never compressed (RFC 9460 §2.2).
	var err error
	buf, err = c.WriteName(buf, r.Target, false)
	if err != nil {
		return nil, err
	}
	for _, p := range r.Params {
		buf = putUint16(buf, p.Key)
		buf = putUint16(buf, uint16(len(p.Value)))
		buf = append(buf, p.Value...)
	}
	return buf, nil
}

func (r *SVCB) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	if off+2 > end {
		return fmt.Errorf("%w: SVCB rdata too short", dnserr.MalformedWire)
	}
	prio, _ := getUint16(msg, off)
	target, next, err := dnsname.ReadName(msg, off+2)
	if err != nil {
		return err
	}
	r.Priority, r.Target = prio, target
	r.Params = nil
	pos := next
	for pos < end {
		if pos+4 > end {
			return fmt.Errorf("%w: SVCB param header runs past RDATA", dnserr.MalformedWire)
		}
		key, _ := getUint16(msg, pos)
		vlen, _ := getUint16(msg, pos+2)
		pos += 4
		if pos+int(vlen) > end {
			return fmt.Errorf("%w: SVCB param value runs past RDATA", dnserr.MalformedWire)
		}
		r.Params = append(r.Params, SVCParam{Key: key, Value: append([]byte(nil), msg[pos:pos+int(vlen)]...)})
		pos += int(vlen)
	}
	return nil
}

func (r *SVCB) String() string {
	parts := []string{fmt.Sprintf("%d", r.Priority), r.Target.String()}
	for _, p := range r.Params {
		parts = append(parts, fmt.Sprintf("key%d=%s", p.Key, hex.EncodeToString(p.Value)))
	}
	return strings.Join(parts, " ")
}

// HTTPS shares SVCB's layout exactly (RFC 9460 §9).
type HTTPS struct {
	SVCB
}

func (r *HTTPS) Type() Type { return TypeHTTPS }

// NID/L32/L64/LP (RFC 6742, ILNP): locator records, fixed-width numeric
// fields distinguishing the node identifier from routing locators.
type NID struct {
	Preference uint16
	NodeID     uint64
}

func (r *NID) Type() Type { return TypeNID }
func (r *NID) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Preference)
	return put64(buf, r.NodeID), nil
}
func (r *NID) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 10 {
		return fmt.Errorf("%w: NID rdata too short", dnserr.MalformedWire)
	}
	pref, _ := getUint16(msg, off)
	r.Preference, r.NodeID = pref, get64(msg, off+2)
	return nil
}
func (r *NID) String() string { return fmt.Sprintf("%d %s", r.Preference, formatNodeID(r.NodeID)) }

type L32 struct {
	Preference uint16
	Locator    net.IP
}

func (r *L32) Type() Type { return TypeL32 }
func (r *L32) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	ip := r.Locator.To4()
	if ip == nil {
		return nil, fmt.Errorf("%w: L32 locator is not IPv4", dnserr.MalformedWire)
	}
	buf = putUint16(buf, r.Preference)
	return append(buf, ip...), nil
}
func (r *L32) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 6 {
		return fmt.Errorf("%w: L32 rdata too short", dnserr.MalformedWire)
	}
	pref, _ := getUint16(msg, off)
	r.Preference = pref
	r.Locator = append(net.IP(nil), msg[off+2:off+6]...)
	return nil
}
func (r *L32) String() string { return fmt.Sprintf("%d %s", r.Preference, r.Locator.String()) }

type L64 struct {
	Preference uint16
	Locator    uint64
}

func (r *L64) Type() Type { return TypeL64 }
func (r *L64) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Preference)
	return put64(buf, r.Locator), nil
}
func (r *L64) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 10 {
		return fmt.Errorf("%w: L64 rdata too short", dnserr.MalformedWire)
	}
	pref, _ := getUint16(msg, off)
	r.Preference, r.Locator = pref, get64(msg, off+2)
	return nil
}
func (r *L64) String() string { return fmt.Sprintf("%d %s", r.Preference, formatNodeID(r.Locator)) }

type LP struct {
	Preference uint16
	FQDN       dnsname.Name
}

func (r *LP) Type() Type { return TypeLP }
func (r *LP) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Preference)
	return c.WriteName(buf, r.FQDN, false)
}
func (r *LP) unpack(msg []byte, off, _ int) error {
	pref, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	n, _, err := dnsname.ReadName(msg, off+2)
	if err != nil {
		return err
	}
	r.Preference, r.FQDN = pref, n
	return nil
}
func (r *LP) String() string { return fmt.Sprintf("%d %s", r.Preference, r.FQDN.String()) }

// EUI48/EUI64 (RFC 7043): raw IEEE link-layer addresses.
type EUI48 struct {
	Address [6]byte
}

func (r *EUI48) Type() Type { return TypeEUI48 }
func (r *EUI48) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	return append(buf, r.Address[:]...), nil
}
func (r *EUI48) unpack(msg []byte, off, rdlen int) error {
	if rdlen != 6 {
		return fmt.Errorf("%w: EUI48 rdata must be 6 octets", dnserr.MalformedWire)
	}
	copy(r.Address[:], msg[off:off+6])
	return nil
}
func (r *EUI48) String() string { return formatEUI(r.Address[:]) }

type EUI64 struct {
	Address [8]byte
}

func (r *EUI64) Type() Type { return TypeEUI64 }
func (r *EUI64) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	return append(buf, r.Address[:]...), nil
}
func (r *EUI64) unpack(msg []byte, off, rdlen int) error {
	if rdlen != 8 {
		return fmt.Errorf("%w: EUI64 rdata must be 8 octets", dnserr.MalformedWire)
	}
	copy(r.Address[:], msg[off:off+8])
	return nil
}
func (r *EUI64) String() string { return formatEUI(r.Address[:]) }

// URI (RFC 7553): priority, weight, and a target URI carried as raw text
// (not a character-string: the whole remaining RDATA is the URI).
type URI struct {
	Priority uint16
	Weight   uint16
	Target   string
}

func (r *URI) Type() Type { return TypeURI }
func (r *URI) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Priority)
	buf = putUint16(buf, r.Weight)
	return append(buf, r.Target...), nil
}
func (r *URI) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 4 {
		return fmt.Errorf("%w: URI rdata too short", dnserr.MalformedWire)
	}
	prio, _ := getUint16(msg, off)
	weight, _ := getUint16(msg, off+2)
	r.Priority, r.Weight = prio, weight
	r.Target = string(msg[off+4 : off+rdlen])
	return nil
}
func (r *URI) String() string { return fmt.Sprintf("%d %d %q", r.Priority, r.Weight, r.Target) }

// AVC (same character-string-sequence layout as TXT): application
// visibility and control tags.
type AVC struct {
	Strings []string
}

func (r *AVC) Type() Type { return TypeAVC }
func (r *AVC) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	for _, s := range r.Strings {
		if buf, err = packCharString(buf, s); err != nil {
			return nil, err
		}
	}
	return buf, nil
}
func (r *AVC) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	var out []string
	for off < end {
		s, next, err := getCharString(msg, off, end)
		if err != nil {
			return err
		}
		out = append(out, s)
		off = next
	}
	r.Strings = out
	return nil
}
func (r *AVC) String() string { return strings.Join(quoteAll(r.Strings), " ") }

// LOC (RFC 1876): geographical location encoded as power-of-ten-scaled
// size/precision bytes plus fixed-point latitude/longitude/altitude.
type LOC struct {
	Version   uint8
	Size      uint8
	HorizPre  uint8
	VertPre   uint8
	Latitude  uint32
	Longitude uint32
	Altitude  uint32
}

func (r *LOC) Type() Type { return TypeLOC }
func (r *LOC) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = append(buf, r.Version, r.Size, r.HorizPre, r.VertPre)
	buf = putUint32(buf, r.Latitude)
	buf = putUint32(buf, r.Longitude)
	return putUint32(buf, r.Altitude), nil
}
func (r *LOC) unpack(msg []byte, off, rdlen int) error {
	if rdlen < 16 {
		return fmt.Errorf("%w: LOC rdata too short", dnserr.MalformedWire)
	}
	r.Version, r.Size, r.HorizPre, r.VertPre = msg[off], msg[off+1], msg[off+2], msg[off+3]
	lat, _ := getUint32(msg, off+4)
	lon, _ := getUint32(msg, off+8)
	alt, _ := getUint32(msg, off+12)
	r.Latitude, r.Longitude, r.Altitude = lat, lon, alt
	return nil
}
func (r *LOC) String() string {
	return fmt.Sprintf("%d %d %d %d %d %d %d", r.Version, r.Size, r.HorizPre, r.VertPre, r.Latitude, r.Longitude, r.Altitude)
}

// APLItem is one address-prefix entry of an APL RDATA (RFC 3123 §4).
type APLItem struct {
	AddressFamily uint16
	Prefix        uint8
	Negate        bool
	AFD           []byte
}

// APL (RFC 3123): a list of address-family prefixes, each optionally
// negated.
type APL struct {
	Items []APLItem
}

func (r *APL) Type() Type { return TypeAPL }
func (r *APL) pack(_ *dnsname.Compressor, buf []byte) ([]byte, error) {
	for _, it := range r.Items {
		buf = putUint16(buf, it.AddressFamily)
		buf = append(buf, it.Prefix)
		afdlen := byte(len(it.AFD))
		if it.Negate {
			afdlen |= 0x80
		}
		buf = append(buf, afdlen)
		buf = append(buf, it.AFD...)
	}
	return buf, nil
}
func (r *APL) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	var items []APLItem
	for off < end {
		if off+4 > end {
			return fmt.Errorf("%w: APL item header runs past RDATA", dnserr.MalformedWire)
		}
		family, _ := getUint16(msg, off)
		prefix := msg[off+2]
		neg := msg[off+3]&0x80 != 0
		afdlen := int(msg[off+3] &^ 0x80)
		off += 4
		if off+afdlen > end {
			return fmt.Errorf("%w: APL AFD runs past RDATA", dnserr.MalformedWire)
		}
		items = append(items, APLItem{AddressFamily: family, Prefix: prefix, Negate: neg, AFD: append([]byte(nil), msg[off:off+afdlen]...)})
		off += afdlen
	}
	r.Items = items
	return nil
}
func (r *APL) String() string {
	parts := make([]string, len(r.Items))
	for i, it := range r.Items {
		neg := ""
		if it.Negate {
			neg = "!"
		}
		parts[i] = fmt.Sprintf("%s%d:%s/%d", neg, it.AddressFamily, hex.EncodeToString(it.AFD), it.Prefix)
	}
	return strings.Join(parts, " ")
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}

func put64(buf []byte, v uint64) []byte {
	for i := 7; i >= 0; i-- {
		buf = append(buf, byte(v>>(uint(i)*8)))
	}
	return buf
}

func get64(msg []byte, off int) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(msg[off+i])
	}
	return v
}

func formatNodeID(v uint64) string {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	parts := make([]string, 4)
	for i := 0; i < 4; i++ {
		parts[i] = hex.EncodeToString(b[i*2 : i*2+2])
	}
	return strings.Join(parts, ":")
}

func formatEUI(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = hex.EncodeToString([]byte{c})
	}
	return strings.Join(parts, "-")
}

func base64StdEncode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

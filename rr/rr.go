package rr

import (
	"fmt"
	"sort"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/twotwotwo/sorts"
)

// RR is one resource record: the (owner, type, class, ttl) header plus its
// typed RDATA.
type RR struct {
	Owner dnsname.Name
	Type  Type
	Class Class
	TTL   uint32
	Data  RData
}

func (r *RR) String() string {
	return fmt.Sprintf("%s %d %s %s %s", r.Owner.String(), r.TTL, r.Class, r.Type, r.Data.String())
}

// Encode appends r's wire form to buf. Compression of the owner name is
// controlled by compressOwner; per spec §4.1 this is always true except
// when writing NSEC's own owner in certain synthetic contexts the caller
// controls explicitly.
func Encode(buf []byte, c *dnsname.Compressor, r *RR, compressOwner bool) ([]byte, error) {
	var err error
	buf, err = c.WriteName(buf, r.Owner, compressOwner)
	if err != nil {
		return nil, err
	}
	buf = putUint16(buf, uint16(r.Type))
	buf = putUint16(buf, uint16(r.Class))
	buf = putUint32(buf, r.TTL)

	rdStart := len(buf) + 2 // placeholder for RDLENGTH
	buf = putUint16(buf, 0)
	rdataBegin := len(buf)
	buf, err = r.Data.pack(c, buf)
	if err != nil {
		return nil, err
	}
	rdlen := len(buf) - rdataBegin
	if rdlen > 0xffff {
		return nil, fmt.Errorf("%w: rdata exceeds 65535 octets", dnserr.MalformedWire)
	}
	buf[rdStart-2] = byte(rdlen >> 8)
	buf[rdStart-1] = byte(rdlen)
	return buf, nil
}

// Decode reads one RR starting at offset within msg, returning the record
// and the offset immediately following it.
func Decode(msg []byte, offset int) (*RR, int, error) {
	owner, pos, err := dnsname.ReadName(msg, offset)
	if err != nil {
		return nil, 0, err
	}
	if pos+10 > len(msg) {
		return nil, 0, fmt.Errorf("%w: truncated RR header", dnserr.MalformedWire)
	}
	t, _ := getUint16(msg, pos)
	class, _ := getUint16(msg, pos+2)
	ttl, _ := getUint32(msg, pos+4)
	rdlen, _ := getUint16(msg, pos+8)
	rdataOff := pos + 10
	if rdataOff+int(rdlen) > len(msg) {
		return nil, 0, fmt.Errorf("%w: RDLENGTH runs past end of message", dnserr.MalformedWire)
	}
	data, err := DecodeRData(Type(t), msg, rdataOff, int(rdlen))
	if err != nil {
		return nil, 0, err
	}
	rr := &RR{Owner: owner, Type: Type(t), Class: Class(class), TTL: ttl, Data: data}
	return rr, rdataOff + int(rdlen), nil
}

// RRset is a non-empty group of RRs sharing (owner, type, class) (spec §3).
type RRset struct {
	Owner dnsname.Name
	Type  Type
	Class Class
	RRs   []*RR
}

// GroupIntoRRsets partitions a section into RRsets keyed by
// (owner-canonical-key, type, class), preserving first-seen order. RRSIG
// and OPT records are never grouped (callers extract them separately).
func GroupIntoRRsets(section []*RR) []*RRset {
	index := map[string]*RRset{}
	var order []string
	for _, r := range section {
		if r.Type == TypeRRSIG || r.Type == TypeOPT || r.Type == TypeTSIG {
			continue
		}
		key := r.Owner.CanonicalKey() + "|" + r.Type.String() + "|" + r.Class.String()
		set, ok := index[key]
		if !ok {
			set = &RRset{Owner: r.Owner, Type: r.Type, Class: r.Class}
			index[key] = set
			order = append(order, key)
		}
		set.RRs = append(set.RRs, r)
	}
	out := make([]*RRset, len(order))
	for i, k := range order {
		out[i] = index[k]
	}
	return out
}

// CoveringRRSIGs returns every RRSIG in section whose owner and
// type_covered match set.
func CoveringRRSIGs(section []*RR, set *RRset) []*RRSIG {
	var out []*RRSIG
	for _, r := range section {
		if r.Type != TypeRRSIG {
			continue
		}
		sig, ok := r.Data.(*RRSIG)
		if !ok || sig.TypeCovered != set.Type || !dnsname.Equal(r.Owner, set.Owner) {
			continue
		}
		out = append(out, sig)
	}
	return out
}

// canonicalOrder sorts a parallel (rrs, wire) pair by canonical RDATA wire
// bytes (RFC 4034 §6.3). It implements sort.Interface so it can be driven by
// sorts.Quicksort.
type canonicalOrder struct {
	rrs  []*RR
	wire [][]byte
}

func (c *canonicalOrder) Len() int      { return len(c.rrs) }
func (c *canonicalOrder) Swap(i, j int) { c.rrs[i], c.rrs[j] = c.rrs[j], c.rrs[i]; c.wire[i], c.wire[j] = c.wire[j], c.wire[i] }
func (c *canonicalOrder) Less(i, j int) bool {
	return compareBytes(c.wire[i], c.wire[j]) < 0
}

// SortCanonical orders rrs by canonical RDATA wire bytes (RFC 4034 §6.3) and
// removes consecutive duplicates, as required before signing or comparing
// RRsets. rrs itself is left unchanged; the sorted, deduplicated records are
// returned in a new slice.
func SortCanonical(rrs []*RR) []*RR {
	wire := make([][]byte, len(rrs))
	for i, r := range rrs {
		buf, _ := r.Data.pack(dnsname.NewCompressor(), nil)
		wire[i] = buf
	}
	order := &canonicalOrder{rrs: append([]*RR(nil), rrs...), wire: wire}
	sorts.Quicksort(order)

	out := order.rrs[:0:0]
	for i, r := range order.rrs {
		if i > 0 && compareBytes(order.wire[i], order.wire[i-1]) == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

var _ sort.Interface = (*canonicalOrder)(nil)

func compareBytes(a, b []byte) int {
	la, lb := len(a), len(b)
	n := la
	if lb < n {
		n = lb
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return la - lb
}

// Package zone implements an in-memory authoritative zone: owner-indexed
// record storage, wildcard synthesis, CNAME/DNAME aliasing, glue records,
// and SOA-backed negative responses (spec §4.4). It does not parse zone
// files or persist state — a zone is built programmatically or from
// whatever zone-fixture loader the caller supplies, and lives only in
// memory for the lifetime of the process.
package zone

import (
	"fmt"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/nsec3"
	"github.com/trustwalk/trustwalk/rr"
)

// Zone is one authoritative zone held entirely in memory.
type Zone struct {
	Apex dnsname.Name

	mu      sync.RWMutex
	records cmap.ConcurrentMap[string, *ownerRecords] // key: owner CanonicalKey
	names   []dnsname.Name                             // sorted owner names, for NSEC chain walking
}

type ownerRecords struct {
	owner dnsname.Name
	sets  map[rr.Type]*rr.RRset
}

// New creates an empty zone for apex.
func New(apex dnsname.Name) *Zone {
	return &Zone{Apex: apex, records: cmap.New[*ownerRecords]()}
}

// AddRRset inserts or replaces the RRset at set.Owner/set.Type. Names are
// tracked in sorted (canonical) order as they're first seen so NSEC/NSEC3
// chain generation never has to re-sort the whole zone per update.
func (z *Zone) AddRRset(set *rr.RRset) {
	z.mu.Lock()
	defer z.mu.Unlock()

	key := set.Owner.CanonicalKey()
	or, ok := z.records.Get(key)
	if !ok {
		or = &ownerRecords{owner: set.Owner, sets: map[rr.Type]*rr.RRset{}}
		z.records.Set(key, or)
		z.insertSorted(set.Owner)
	}
	or.sets[set.Type] = set
}

func (z *Zone) insertSorted(name dnsname.Name) {
	i := 0
	for ; i < len(z.names); i++ {
		if dnsname.CompareCanonical(name, z.names[i]) < 0 {
			break
		}
	}
	z.names = append(z.names, dnsname.Name{})
	copy(z.names[i+1:], z.names[i:])
	z.names[i] = name
}

// OwnerNames returns every owner name in the zone in canonical sorted order.
func (z *Zone) OwnerNames() []dnsname.Name {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return append([]dnsname.Name(nil), z.names...)
}

func (z *Zone) lookup(owner dnsname.Name) (*ownerRecords, bool) {
	return z.records.Get(owner.CanonicalKey())
}

// SOA returns the zone's SOA RRset, required for negative responses.
func (z *Zone) SOA() (*rr.RRset, bool) {
	or, ok := z.lookup(z.Apex)
	if !ok {
		return nil, false
	}
	set, ok := or.sets[rr.TypeSOA]
	return set, ok
}

// Answer is the outcome of resolving a query within a single zone.
type Answer struct {
	Rcode      rr.Rcode
	Answer     []*rr.RRset
	Authority  []*rr.RRset // NS referral, or SOA for negative responses
	Additional []*rr.RRset // glue
	Authoritative bool
	Referral      bool // true when Authority carries a delegation, not a negative-response SOA
}

// Lookup resolves (qname, qtype) against the zone per spec §4.4: exact
// match, CNAME redirection (stopping at the first CNAME found), delegation
// to a child zone via NS glue, wildcard synthesis, and SOA-backed NXDOMAIN
// / NODATA otherwise.
func (z *Zone) Lookup(qname dnsname.Name, qtype rr.Type) (*Answer, error) {
	if !dnsname.IsSubdomain(qname, z.Apex) {
		return nil, fmt.Errorf("%w: name %s is outside zone %s", dnserr.ChainBroken, qname.String(), z.Apex.String())
	}

	if ref, ok := z.findDelegation(qname); ok {
		return ref, nil
	}

	if or, ok := z.lookup(qname); ok {
		if set, ok := or.sets[qtype]; ok {
			return &Answer{Rcode: rr.RcodeSuccess, Answer: []*rr.RRset{set}, Authoritative: true}, nil
		}
		if qtype != rr.TypeCNAME {
			if cname, ok := or.sets[rr.TypeCNAME]; ok {
				return &Answer{Rcode: rr.RcodeSuccess, Answer: []*rr.RRset{cname}, Authoritative: true}, nil
			}
		}
		return z.negativeResponse(qname, rr.RcodeSuccess), nil
	}

	if dname, owner, ok := z.findDNAME(qname); ok {
		synthesized, err := synthesizeCNAME(qname, owner, dname)
		if err != nil {
			return nil, err
		}
		return &Answer{Rcode: rr.RcodeSuccess, Answer: []*rr.RRset{dname, synthesized}, Authoritative: true}, nil
	}

	if wc, ok := z.findWildcardCover(qname); ok {
		if set, ok := wc.sets[qtype]; ok {
			synthesized := synthesizeOwner(set, qname)
			return &Answer{Rcode: rr.RcodeSuccess, Answer: []*rr.RRset{synthesized}, Authoritative: true}, nil
		}
		return z.negativeResponse(qname, rr.RcodeSuccess), nil
	}

	return z.negativeResponse(qname, rr.RcodeNXDomain), nil
}

// negativeResponse builds the authority section for a NODATA/NXDOMAIN
// answer to qname: the zone's SOA, plus whatever authenticated-denial
// records (NSEC or NSEC3) the zone carries covering qname (spec's
// negative-response scenario). A zone with no denial records signed in
// simply carries the SOA, same as an unsigned zone always has.
func (z *Zone) negativeResponse(qname dnsname.Name, rcode rr.Rcode) *Answer {
	soa, ok := z.SOA()
	var authority []*rr.RRset
	if ok {
		authority = []*rr.RRset{soa}
	}
	authority = append(authority, z.denialProof(qname, rcode)...)
	return &Answer{Rcode: rcode, Authority: authority, Authoritative: true}
}

// denialProof returns the NSEC or NSEC3 RRsets proving qname's
// non-existence (rcode NXDomain) or lack of the queried type (rcode
// Success with an empty Answer, i.e. NODATA). It prefers NSEC3 when the
// zone carries an NSEC3PARAM at its apex, otherwise falls back to the
// plain NSEC chain the zone's sorted owner names already track.
func (z *Zone) denialProof(qname dnsname.Name, rcode rr.Rcode) []*rr.RRset {
	if salt, iterations, ok := z.nsec3Params(); ok {
		return z.nsec3DenialProof(qname, rcode, salt, iterations)
	}
	return z.nsecDenialProof(qname, rcode)
}

func (z *Zone) nsec3Params() (salt []byte, iterations uint16, ok bool) {
	or, found := z.lookup(z.Apex)
	if !found {
		return nil, 0, false
	}
	set, has := or.sets[rr.TypeNSEC3PARAM]
	if !has || len(set.RRs) == 0 {
		return nil, 0, false
	}
	p, ok2 := set.RRs[0].Data.(*rr.NSEC3PARAM)
	if !ok2 {
		return nil, 0, false
	}
	return p.Salt, p.Iterations, true
}

// nsec3Entry pairs a decoded NSEC3 record with the RRset it came from, so
// a matched/covering record can be returned as an Authority RRset.
type nsec3Entry struct {
	rec nsec3.Record
	set *rr.RRset
}

func (z *Zone) collectNSEC3() []nsec3Entry {
	var out []nsec3Entry
	for _, name := range z.names {
		or, ok := z.lookup(name)
		if !ok {
			continue
		}
		set, ok := or.sets[rr.TypeNSEC3]
		if !ok || len(set.RRs) == 0 {
			continue
		}
		n3, ok := set.RRs[0].Data.(*rr.NSEC3)
		if !ok {
			continue
		}
		if len(name.Labels) == 0 {
			continue
		}
		hash, err := nsec3.DecodeOwner(name.Labels[0])
		if err != nil {
			continue
		}
		out = append(out, nsec3Entry{rec: nsec3.Record{OwnerHash: hash, RR: n3}, set: set})
	}
	return out
}

func (z *Zone) nsec3DenialProof(qname dnsname.Name, rcode rr.Rcode, salt []byte, iterations uint16) []*rr.RRset {
	entries := z.collectNSEC3()
	if len(entries) == 0 {
		return nil
	}
	records := make([]nsec3.Record, len(entries))
	for i, e := range entries {
		records[i] = e.rec
	}
	setForIndex := func(target *nsec3.Record) *rr.RRset {
		for i := range entries {
			if &records[i] == target {
				return entries[i].set
			}
		}
		return nil
	}

	if rcode == rr.RcodeNXDomain {
		proof, err := nsec3.ProveNameError(qname, z.Apex, salt, iterations, records)
		if err != nil {
			return nil
		}
		var out []*rr.RRset
		if s := setForIndex(proof.EncloserMatch); s != nil {
			out = append(out, s)
		}
		if s := setForIndex(proof.NextCloserCover); s != nil {
			out = appendUniqueRRset(out, s)
		}
		return out
	}

	hash, err := nsec3.HashName(qname, salt, iterations)
	if err != nil {
		return nil
	}
	for i := range entries {
		if nsec3.Matches(entries[i].rec.OwnerHash, hash) {
			return []*rr.RRset{entries[i].set}
		}
	}
	return nil
}

func appendUniqueRRset(sets []*rr.RRset, s *rr.RRset) []*rr.RRset {
	for _, existing := range sets {
		if existing == s {
			return sets
		}
	}
	return append(sets, s)
}

// nsecDenialProof implements the plain-NSEC (non-hashed) case: the
// covering record is whichever owner in the zone's sorted chain
// immediately precedes qname, per RFC 4034 §4.1's "next domain name"
// linkage.
func (z *Zone) nsecDenialProof(qname dnsname.Name, rcode rr.Rcode) []*rr.RRset {
	if or, ok := z.lookup(qname); ok && rcode != rr.RcodeNXDomain {
		if set, has := or.sets[rr.TypeNSEC]; has {
			return []*rr.RRset{set}
		}
		return nil
	}

	covering, ok := z.nsecCovering(qname)
	if !ok {
		return nil
	}
	or, ok := z.lookup(covering)
	if !ok {
		return nil
	}
	set, ok := or.sets[rr.TypeNSEC]
	if !ok {
		return nil
	}
	return []*rr.RRset{set}
}

// nsecCovering returns the zone's sorted owner name that immediately
// precedes qname in canonical order, wrapping around to the last name if
// qname precedes every owner (the NSEC ring's closing link).
func (z *Zone) nsecCovering(qname dnsname.Name) (dnsname.Name, bool) {
	if len(z.names) == 0 {
		return dnsname.Name{}, false
	}
	var prev dnsname.Name
	found := false
	for _, name := range z.names {
		if dnsname.CompareCanonical(name, qname) >= 0 {
			break
		}
		prev = name
		found = true
	}
	if !found {
		return z.names[len(z.names)-1], true
	}
	return prev, true
}

// findDelegation finds the nearest ancestor of qname (strictly below the
// zone apex) that carries an NS RRset, i.e. a cut to a child zone this zone
// is not authoritative for, attaching in-zone glue.
func (z *Zone) findDelegation(qname dnsname.Name) (*Answer, bool) {
	cur, ok := qname.Parent()
	for ok && len(cur.Labels) >= len(z.Apex.Labels) && dnsname.IsSubdomain(cur, z.Apex) {
		if !dnsname.Equal(cur, z.Apex) {
			if or, found := z.lookup(cur); found {
				if ns, hasNS := or.sets[rr.TypeNS]; hasNS {
					authority := []*rr.RRset{ns}
					if ds, hasDS := or.sets[rr.TypeDS]; hasDS {
						authority = append(authority, ds)
					}
					return &Answer{
						Rcode:         rr.RcodeSuccess,
						Authority:     authority,
						Additional:    z.glueFor(ns),
						Referral:      true,
						Authoritative: false,
					}, true
				}
			}
		}
		cur, ok = cur.Parent()
	}
	return nil, false
}

// glueFor returns in-zone A/AAAA RRsets for each nameserver named in ns that
// falls inside this zone (spec §4.4's glue requirement).
func (z *Zone) glueFor(ns *rr.RRset) []*rr.RRset {
	var out []*rr.RRset
	for _, r := range ns.RRs {
		nsdname, ok := r.Data.(*rr.NS)
		if !ok {
			continue
		}
		if !dnsname.IsSubdomain(nsdname.Host, z.Apex) {
			continue
		}
		if or, found := z.lookup(nsdname.Host); found {
			if a, ok := or.sets[rr.TypeA]; ok {
				out = append(out, a)
			}
			if aaaa, ok := or.sets[rr.TypeAAAA]; ok {
				out = append(out, aaaa)
			}
		}
	}
	return out
}

func (z *Zone) findDNAME(qname dnsname.Name) (*rr.RRset, dnsname.Name, bool) {
	cur, ok := qname, true
	for ok {
		if or, found := z.lookup(cur); found {
			if dname, has := or.sets[rr.TypeDNAME]; has {
				return dname, cur, true
			}
		}
		if dnsname.Equal(cur, z.Apex) {
			break
		}
		cur, ok = cur.Parent()
	}
	return nil, dnsname.Name{}, false
}

func synthesizeCNAME(qname, dnameOwner dnsname.Name, dnameSet *rr.RRset) (*rr.RRset, error) {
	d, ok := dnameSet.RRs[0].Data.(*rr.DNAME)
	if !ok {
		return nil, fmt.Errorf("%w: DNAME RRset holds non-DNAME rdata", dnserr.MalformedWire)
	}
	prefixLen := len(qname.Labels) - len(dnameOwner.Labels)
	prefix := dnsname.Name{Labels: append([]string(nil), qname.Labels[:prefixLen]...)}
	target, err := dnsname.Concat(prefix, d.Target)
	if err != nil {
		return nil, err
	}
	cname := &rr.RR{Owner: qname, Type: rr.TypeCNAME, Class: rr.ClassINET, TTL: dnameSet.RRs[0].TTL, Data: &rr.CNAME{Target: target}}
	return &rr.RRset{Owner: qname, Type: rr.TypeCNAME, Class: rr.ClassINET, RRs: []*rr.RR{cname}}, nil
}

// findWildcardCover finds a "*.<ancestor>" owner whose ancestor is the
// longest existing ancestor of qname with no exact match of its own (RFC
// 1034 §4.3.3, spec §4.4). An ancestor counts as existing only if it owns
// records; empty non-terminals are walked past.
func (z *Zone) findWildcardCover(qname dnsname.Name) (*ownerRecords, bool) {
	cur, ok := qname.Parent()
	for ok && dnsname.IsSubdomain(cur, z.Apex) {
		wildcard, err := dnsname.Concat(dnsname.MustParse("*"), cur)
		if err == nil {
			if or, found := z.lookup(wildcard); found {
				return or, true
			}
		}
		if _, exists := z.lookup(cur); exists {
			break // cur is the closest encloser and has no wildcard child
		}
		if dnsname.Equal(cur, z.Apex) {
			break
		}
		cur, ok = cur.Parent()
	}
	return nil, false
}

// synthesizeOwner rewrites a wildcard RRset's records to carry qname as
// their owner, as required whenever a wildcard match is returned (spec
// §4.4); RRSIGs covering the wildcard are left to the signer package, which
// is invoked with the original wildcard owner per RFC 4034 §3.1.3.
func synthesizeOwner(set *rr.RRset, qname dnsname.Name) *rr.RRset {
	out := make([]*rr.RR, len(set.RRs))
	for i, r := range set.RRs {
		cp := *r
		cp.Owner = qname
		out[i] = &cp
	}
	return &rr.RRset{Owner: qname, Type: set.Type, Class: set.Class, RRs: out}
}


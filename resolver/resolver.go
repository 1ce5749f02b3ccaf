// Package resolver implements iterative name resolution: starting from a
// set of root hints, follow NS referrals down the delegation chain,
// chase CNAME/DNAME aliases, validate the DNSSEC chain of trust where one
// exists, and cache what it learns along the way (spec §4.5, grounded on
// the teacher's ImrQuery/IterativeDNSQuery loop).
package resolver

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"time"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/dnssec"
	"github.com/trustwalk/trustwalk/nsec3"
	"github.com/trustwalk/trustwalk/rr"
	"github.com/trustwalk/trustwalk/rrcache"
)

// Querier sends msg to addr (host:port) over whatever transport the caller
// wires in, and returns the decoded response. The transport package
// supplies the concrete UDP/TCP/DoQ implementation; resolver only depends
// on this narrow interface so it can be tested without a network.
type Querier interface {
	Query(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error)
}

// DefaultMaxHops bounds both referral-following and CNAME/DNAME chasing,
// so a misconfigured or hostile zone cannot loop a query forever.
const DefaultMaxHops = 20

// Result is what a caller of Resolve gets back: the final answer RRset (if
// any), the chain of CNAME/DNAME RRs walked to reach it, and whether the
// whole chain validated under DNSSEC.
type Result struct {
	Rcode     rr.Rcode
	Answer    *rr.RRset
	Aliases   []*rr.RR
	Authority []*rr.RR
	AD        bool
}

// Resolver walks the iterative resolution algorithm, consulting cache
// before ever sending a query and populating it with everything learned.
type Resolver struct {
	Cache     *rrcache.Cache
	Transport Querier
	RootHints []string // host:port of root (or other trust-anchor) servers
	MaxHops   int

	// TrustAnchors seeds chain-of-trust validation: zone name (canonical
	// key) to the DS records configured for it. A nil map disables DNSSEC
	// validation entirely — every answer is cached with AD false, same as
	// an unvalidating resolver.
	TrustAnchors map[string][]*rr.DS

	now func() time.Time
}

// New builds a Resolver. rootHints must be non-empty host:port addresses.
func New(cache *rrcache.Cache, transport Querier, rootHints []string) *Resolver {
	return &Resolver{
		Cache:     cache,
		Transport: transport,
		RootHints: rootHints,
		MaxHops:   DefaultMaxHops,
		now:       time.Now,
	}
}

// Resolve answers qname/qtype iteratively, following referrals from the
// root hints and chasing any CNAME/DNAME chain that appears along the way.
func (res *Resolver) Resolve(ctx context.Context, qname dnsname.Name, qtype rr.Type) (*Result, error) {
	result := &Result{}
	current := qname
	hops := 0
	seen := map[string]bool{qname.CanonicalKey(): true}

	for {
		if hops > res.MaxHops {
			return nil, fmt.Errorf("%w: resolving %s", dnserr.TooManyHops, qname.String())
		}

		answer, err := res.resolveOnce(ctx, current, qtype)
		if err != nil {
			return nil, err
		}
		result.Rcode = answer.Rcode
		result.Authority = answer.Authority
		if hops == 0 {
			result.AD = answer.AD
		} else {
			result.AD = result.AD && answer.AD
		}

		if answer.CNAME != nil {
			result.Aliases = append(result.Aliases, answer.CNAME)
			next := answer.CNAME.Data.(*rr.CNAME).Target
			if seen[next.CanonicalKey()] {
				return nil, fmt.Errorf("%w: %s revisits an earlier name in the chain", dnserr.AliasLoop, next.String())
			}
			seen[next.CanonicalKey()] = true
			current = next
			hops++
			continue
		}

		result.Answer = answer.Set
		return result, nil
	}
}

// onceResult is what one non-aliased resolution pass over the delegation
// chain produces: either a terminal RRset, a CNAME to keep chasing, or a
// negative response recorded via Rcode/Authority.
type onceResult struct {
	Set       *rr.RRset
	CNAME     *rr.RR
	Rcode     rr.Rcode
	Authority []*rr.RR
	AD        bool
}

// resolveOnce runs the referral-following loop for a single name: check
// cache, else walk servers from the closest known ancestor zone down to an
// authoritative answer or a negative response.
func (res *Resolver) resolveOnce(ctx context.Context, qname dnsname.Name, qtype rr.Type) (*onceResult, error) {
	key := rrcache.Key{Owner: qname.CanonicalKey(), Type: qtype, Class: rr.ClassINET, Zone: ""}
	if entry, ok := res.Cache.Get(key); ok {
		if entry.Negative {
			return &onceResult{Rcode: rr.RcodeNXDomain, AD: entry.AD}, nil
		}
		if cname := cnameFromSet(entry.Set); cname != nil && entry.Set.Type != qtype {
			return &onceResult{CNAME: cname, AD: entry.AD}, nil
		}
		return &onceResult{Set: entry.Set, AD: entry.AD}, nil
	}

	servers := res.RootHints
	hops := 0
	for {
		if hops > res.MaxHops {
			return nil, fmt.Errorf("%w: too many referrals resolving %s", dnserr.TooManyHops, qname.String())
		}
		hops++

		msg, err := res.queryServers(ctx, servers, qname, qtype)
		if err != nil {
			return nil, err
		}

		if rr.Rcode(msg.Header.Flags.Rcode4) == rr.RcodeNXDomain {
			ad := res.verifyChain(ctx, soaSet(msg.Authority), rrsigRRs(msg.Authority), res.now())
			res.cacheNegative(qname, qtype, ad, msg)
			return &onceResult{Rcode: rr.RcodeNXDomain, Authority: msg.Authority, AD: ad}, nil
		}

		sets := rr.GroupIntoRRsets(msg.Answer)
		for _, set := range sets {
			if dnsname.Equal(set.Owner, qname) && set.Type == qtype {
				ad := res.verifyChain(ctx, set, rrsigRRsForOwner(sets, set.Owner), res.now())
				res.cachePositive(qname, qtype, set, ad)
				return &onceResult{Set: set, AD: ad}, nil
			}
		}
		for _, set := range sets {
			if dnsname.Equal(set.Owner, qname) && set.Type == rr.TypeCNAME {
				ad := res.verifyChain(ctx, set, rrsigRRsForOwner(sets, set.Owner), res.now())
				res.cachePositive(qname, rr.TypeCNAME, set, ad)
				return &onceResult{CNAME: set.RRs[0], AD: ad}, nil
			}
		}

		if len(msg.Answer) > 0 {
			// Answer present but for neither qtype nor CNAME: treat as
			// no-data rather than looping forever on this server set.
			return &onceResult{Rcode: rr.RcodeSuccess, Authority: msg.Authority}, nil
		}

		next, err := res.nextServers(ctx, msg)
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			return &onceResult{Rcode: rr.RcodeSuccess, Authority: msg.Authority}, nil
		}
		servers = next
	}
}

// queryServers tries addresses in a randomized order, returning the first
// usable response; a server under backoff is skipped. Shuffling the order
// and stamping a fresh random query ID on every attempt (RFC 5452) raises
// the cost of an off-path responder guessing a forged reply in time.
func (res *Resolver) queryServers(ctx context.Context, addrs []string, qname dnsname.Name, qtype rr.Type) (*rr.Message, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no servers to ask for %s", dnserr.NoAuthorityAddress, qname.String())
	}
	order := append([]string(nil), addrs...)
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	var lastErr error
	for _, addr := range order {
		if res.Cache.IsBackedOff(addr) {
			continue
		}
		msg := &rr.Message{
			Header:   rr.Header{ID: uint16(rand.Intn(1 << 16)), Flags: rr.Flags{RD: false}},
			Question: []rr.Question{{Name: qname, Type: qtype, Class: rr.ClassINET}},
		}
		resp, err := res.Transport.Query(ctx, addr, msg)
		if err != nil {
			res.Cache.RecordFailure(addr)
			lastErr = err
			continue
		}
		res.Cache.RecordSuccess(addr)
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: every server address is backed off", dnserr.NoAuthorityAddress)
	}
	return nil, fmt.Errorf("%w: %v", dnserr.TransportError, lastErr)
}

// nextServers extracts the referral's NS targets from the authority
// section and resolves them to addresses using in-bailiwick glue from
// additional, falling back to a recursive resolve for out-of-bailiwick
// nameservers.
func (res *Resolver) nextServers(ctx context.Context, msg *rr.Message) ([]string, error) {
	nsSets := rr.GroupIntoRRsets(msg.Authority)
	glue := rr.GroupIntoRRsets(msg.Additional)

	glueAddrs := map[string][]net.IP{}
	for _, set := range glue {
		if set.Type != rr.TypeA && set.Type != rr.TypeAAAA {
			continue
		}
		for _, r := range set.RRs {
			ip := addrFromRR(r)
			if ip != nil {
				key := set.Owner.CanonicalKey()
				glueAddrs[key] = append(glueAddrs[key], ip)
			}
		}
	}

	var out []string
	for _, set := range nsSets {
		if set.Type != rr.TypeNS {
			continue
		}
		for _, r := range set.RRs {
			ns, ok := r.Data.(*rr.NS)
			if !ok {
				continue
			}
			if ips, ok := glueAddrs[ns.Host.CanonicalKey()]; ok {
				for _, ip := range ips {
					out = append(out, net.JoinHostPort(ip.String(), "53"))
				}
				continue
			}
			sub, err := res.Resolve(ctx, ns.Host, rr.TypeA)
			if err != nil || sub.Answer == nil {
				continue
			}
			for _, rrec := range sub.Answer.RRs {
				if ip := addrFromRR(rrec); ip != nil {
					out = append(out, net.JoinHostPort(ip.String(), "53"))
				}
			}
		}
	}
	return out, nil
}

func addrFromRR(r *rr.RR) net.IP {
	switch d := r.Data.(type) {
	case *rr.A:
		return d.Addr
	case *rr.AAAA:
		return d.Addr
	default:
		return nil
	}
}

func cnameFromSet(set *rr.RRset) *rr.RR {
	if set == nil || set.Type != rr.TypeCNAME || len(set.RRs) == 0 {
		return nil
	}
	return set.RRs[0]
}

func soaSet(authority []*rr.RR) *rr.RRset {
	for _, r := range authority {
		if _, ok := r.Data.(*rr.SOA); ok {
			return &rr.RRset{Owner: r.Owner, Type: rr.TypeSOA, Class: r.Class, RRs: []*rr.RR{r}}
		}
	}
	return nil
}

func rrsigRRs(rrs []*rr.RR) []*rr.RR {
	var out []*rr.RR
	for _, r := range rrs {
		if r.Type == rr.TypeRRSIG {
			out = append(out, r)
		}
	}
	return out
}

func rrsigRRsForOwner(sets []*rr.RRset, owner dnsname.Name) []*rr.RR {
	for _, set := range sets {
		if set.Type == rr.TypeRRSIG && dnsname.Equal(set.Owner, owner) {
			return set.RRs
		}
	}
	return nil
}

// cachePositive stores set under its own TTL, picking the minimum TTL
// across its RRs, tagged with ad — which must already reflect independent
// chain-of-trust verification (verifyChain), never a blindly-copied
// upstream AD bit.
func (res *Resolver) cachePositive(qname dnsname.Name, qtype rr.Type, set *rr.RRset, ad bool) {
	ttl := uint32(0)
	for i, r := range set.RRs {
		if i == 0 || r.TTL < ttl {
			ttl = r.TTL
		}
	}
	key := rrcache.Key{Owner: qname.CanonicalKey(), Type: qtype, Class: rr.ClassINET}
	res.Cache.Put(key, set, ttl, ad)
}

// cacheNegative records an NXDOMAIN using the SOA from the authority
// section, per RFC 2308's negative-caching minimum-TTL rule. ad must
// already reflect independent verification of the SOA's RRSIG, same
// contract as cachePositive.
func (res *Resolver) cacheNegative(qname dnsname.Name, qtype rr.Type, ad bool, msg *rr.Message) {
	for _, r := range msg.Authority {
		if _, ok := r.Data.(*rr.SOA); ok {
			soaSet := &rr.RRset{Owner: r.Owner, Type: rr.TypeSOA, Class: r.Class, RRs: []*rr.RR{r}}
			key := rrcache.Key{Owner: qname.CanonicalKey(), Type: qtype, Class: rr.ClassINET}
			res.Cache.PutNegative(key, soaSet, ad)
			return
		}
	}
}

// verifyChain reports whether any RRSIG in sigs, covering set, verifies
// under a zone-signing key whose own chain of trust reaches a configured
// anchor (RFC 4035 §5). This is the only path by which a cache entry's AD
// bit may become true; an upstream-claimed AD is never trusted directly.
func (res *Resolver) verifyChain(ctx context.Context, set *rr.RRset, sigs []*rr.RR, now time.Time) bool {
	if res.TrustAnchors == nil || set == nil || len(sigs) == 0 {
		return false
	}
	for _, sigRR := range sigs {
		sig, ok := sigRR.Data.(*rr.RRSIG)
		if !ok || sig.TypeCovered != set.Type {
			continue
		}
		keys, ok := res.validatedKeys(ctx, sig.SignerName, now)
		if !ok {
			continue
		}
		for _, keyRR := range keys.RRs {
			key, ok := keyRR.Data.(*rr.DNSKEY)
			if !ok || !zoneSigningKey(key) {
				continue
			}
			if dnssec.VerifyRRset(set, sig, key, sig.SignerName, now) == nil {
				return true
			}
		}
	}
	return false
}

// validatedKeys returns zone's DNSKEY RRset once it has itself been
// verified: self-signed by a key matching either a configured trust
// anchor's DS or the parent zone's independently-fetched and verified DS.
// Recursion walks zone.Parent() up to the root, so it always terminates.
func (res *Resolver) validatedKeys(ctx context.Context, zone dnsname.Name, now time.Time) (*rr.RRset, bool) {
	if keys, ok := res.cachedValidatedDNSKEY(zone); ok {
		return keys, true
	}

	var dsRecords []*rr.DS
	if anchors, ok := res.TrustAnchors[zone.CanonicalKey()]; ok {
		dsRecords = anchors
	} else {
		parent, ok := zone.Parent()
		if !ok {
			return nil, false
		}
		parentKeys, ok := res.validatedKeys(ctx, parent, now)
		if !ok {
			return nil, false
		}
		dsSet, dsSigs, authority, err := res.resolveWithSigs(ctx, zone, rr.TypeDS)
		if err != nil {
			return nil, false
		}
		if dsSet == nil {
			if res.provenInsecure(authority, zone, parent) {
				log.Printf("resolver: %s proven insecure (no DS, NSEC3 proof present)", zone.String())
			} else {
				log.Printf("resolver: %s has no DS and no denial proof; leaving unvalidated", zone.String())
			}
			return nil, false
		}
		for _, r := range dsSet.RRs {
			if d, ok := r.Data.(*rr.DS); ok {
				dsRecords = append(dsRecords, d)
			}
		}
		if !res.verifyWithKeys(dsSet, dsSigs, parentKeys, parent, now) {
			return nil, false
		}
	}

	dnskeySet, dnskeySigs, _, err := res.resolveWithSigs(ctx, zone, rr.TypeDNSKEY)
	if err != nil || dnskeySet == nil {
		return nil, false
	}
	ksk := keyMatchingDS(dnskeySet, dsRecords, zone)
	if ksk == nil {
		return nil, false
	}
	sig := findSig(dnskeySigs, ksk.KeyTag())
	if sig == nil || dnssec.VerifyRRset(dnskeySet, sig, ksk, zone, now) != nil {
		return nil, false
	}

	res.cacheValidatedDNSKEY(zone, dnskeySet)
	return dnskeySet, true
}

func (res *Resolver) cachedValidatedDNSKEY(zone dnsname.Name) (*rr.RRset, bool) {
	key := rrcache.Key{Owner: zone.CanonicalKey(), Type: rr.TypeDNSKEY, Class: rr.ClassINET}
	entry, ok := res.Cache.Get(key)
	if !ok || entry.Negative || !entry.AD {
		return nil, false
	}
	return entry.Set, true
}

func (res *Resolver) cacheValidatedDNSKEY(zone dnsname.Name, set *rr.RRset) {
	res.cachePositive(zone, rr.TypeDNSKEY, set, true)
}

// resolveWithSigs fetches qtype at qname and, when found, the RRSIG RRs
// covering it in the same answer section — bypassing the RRset cache,
// since a DNSKEY/DS lookup made purely to validate a chain must always see
// a fresh signature, not whatever an unrelated earlier query cached.
func (res *Resolver) resolveWithSigs(ctx context.Context, qname dnsname.Name, qtype rr.Type) (*rr.RRset, []*rr.RR, []*rr.RR, error) {
	servers := res.RootHints
	hops := 0
	for {
		if hops > res.MaxHops {
			return nil, nil, nil, fmt.Errorf("%w: too many referrals resolving %s %s", dnserr.TooManyHops, qname.String(), qtype.String())
		}
		hops++

		msg, err := res.queryServers(ctx, servers, qname, qtype)
		if err != nil {
			return nil, nil, nil, err
		}

		sets := rr.GroupIntoRRsets(msg.Answer)
		var target *rr.RRset
		for _, set := range sets {
			if dnsname.Equal(set.Owner, qname) && set.Type == qtype {
				target = set
			}
		}
		if target != nil {
			return target, rrsigRRsForOwner(sets, qname), msg.Authority, nil
		}
		if len(msg.Answer) > 0 {
			return nil, nil, msg.Authority, nil
		}

		next, err := res.nextServers(ctx, msg)
		if err != nil {
			return nil, nil, nil, err
		}
		if len(next) == 0 {
			return nil, nil, msg.Authority, nil
		}
		servers = next
	}
}

// provenInsecure reports whether authority's NSEC3 records constitute a
// valid RFC 5155 §7.2.4 no-data proof for a DS query at zone, as issued by
// parentZone — the check a resolver must run before ever treating a
// referral's missing DS as a legitimate unsigned delegation rather than an
// off-path attacker stripping it.
func (res *Resolver) provenInsecure(authority []*rr.RR, zone, parentZone dnsname.Name) bool {
	var records []nsec3.Record
	var salt []byte
	var iterations uint16
	haveParams := false
	for _, r := range authority {
		n3, ok := r.Data.(*rr.NSEC3)
		if !ok {
			continue
		}
		if !haveParams {
			salt, iterations = n3.Salt, n3.Iterations
			haveParams = true
		}
		if len(r.Owner.Labels) == 0 {
			continue
		}
		hash, err := nsec3.DecodeOwner(r.Owner.Labels[0])
		if err != nil {
			continue
		}
		records = append(records, nsec3.Record{OwnerHash: hash, RR: n3})
	}
	if !haveParams || len(records) == 0 {
		return false
	}
	return nsec3.ProveNoData(zone, parentZone, rr.TypeDS, salt, iterations, records) == nil
}

func zoneSigningKey(k *rr.DNSKEY) bool {
	return k.Flags&rr.DNSKEYFlagZone != 0 && k.Flags&rr.DNSKEYFlagRevoke == 0
}

func keyMatchingDS(keys *rr.RRset, dss []*rr.DS, zone dnsname.Name) *rr.DNSKEY {
	for _, d := range dss {
		for _, keyRR := range keys.RRs {
			k, ok := keyRR.Data.(*rr.DNSKEY)
			if !ok || !zoneSigningKey(k) {
				continue
			}
			matched, err := dnssec.MatchesDS(zone, k, d)
			if err == nil && matched {
				return k
			}
		}
	}
	return nil
}

func findSig(sigs []*rr.RR, keyTag uint16) *rr.RRSIG {
	for _, sigRR := range sigs {
		if sig, ok := sigRR.Data.(*rr.RRSIG); ok && sig.KeyTag == keyTag {
			return sig
		}
	}
	return nil
}

func (res *Resolver) verifyWithKeys(set *rr.RRset, sigs []*rr.RR, keys *rr.RRset, keyOwner dnsname.Name, now time.Time) bool {
	for _, sigRR := range sigs {
		sig, ok := sigRR.Data.(*rr.RRSIG)
		if !ok || sig.TypeCovered != set.Type {
			continue
		}
		for _, keyRR := range keys.RRs {
			key, ok := keyRR.Data.(*rr.DNSKEY)
			if !ok || !zoneSigningKey(key) {
				continue
			}
			if dnssec.VerifyRRset(set, sig, key, keyOwner, now) == nil {
				return true
			}
		}
	}
	return false
}

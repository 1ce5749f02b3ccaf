// Package trustproof builds a bounded ownership proof: a chain of zones
// from a trust anchor down to a claimed name, each link carrying its
// DNSKEY set, the RRSIG over it, and the DS record (signed by the parent)
// that vouches for the child's key, terminating in a signed claim record
// for the target name (spec §4.6). It composes package dnssec's DS/DNSKEY
// matching rather than re-implementing chain-of-trust logic.
package trustproof

import (
	"context"
	"crypto"
	"fmt"
	"time"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/dnssec"
	"github.com/trustwalk/trustwalk/rr"
)

// ZoneLink is one step of the proof: the zone's DNSKEY RRset and its
// signature, plus the DS RRset this zone publishes for the next zone down
// the chain and its RRSIG by one of this zone's keys (nil at the last link).
type ZoneLink struct {
	Zone    dnsname.Name
	Keys    *rr.RRset
	KeysSig *rr.RRSIG
	DS      *rr.RRset
	DSSig   *rr.RRSIG
}

// Claim is the final, target-level assertion the proof is vouching for —
// typically a TXT record signed by a ZSK of the last zone in the chain.
type Claim struct {
	Owner dnsname.Name
	RRset *rr.RRset
	Sig   *rr.RRSIG
}

// Proof is an ordered chain of zones from the trust anchor (index 0) down
// to the zone that signs Claim.
type Proof struct {
	Zones []ZoneLink
	Claim Claim
}

// KeyLookup resolves the DNSKEY carrying keyTag for zone. No package in
// this module implements it, and Verify does not use it: Verify works only
// from the keys carried in the Proof.
type KeyLookup func(ctx context.Context, zone dnsname.Name, keyTag uint16) (pub crypto.PublicKey, err error)

// Verify walks p.Zones from the trust anchor forward, checking at each
// link that (a) the DNSKEY RRset's RRSIG verifies under a zone-signing key
// from that same set matching the trust anchor or the parent's DS, and
// (b) except at the anchor, the DS link's digest matches that key — then
// checks the final claim's signature under a key from the last zone. Only
// keys with the ZONE flag set and the REVOKE flag clear are ever accepted
// (RFC 5011 §2.1); anchors is keyed by zone name, each entry the DS records
// configured for that zone. Any break anywhere in the chain returns
// dnserr.ChainBroken.
func Verify(ctx context.Context, p *Proof, anchors map[string][]*rr.DS, now time.Time) error {
	if len(p.Zones) == 0 {
		return fmt.Errorf("%w: empty proof chain", dnserr.ChainBroken)
	}

	var parentDS []*rr.DS
	for i, link := range p.Zones {
		if len(link.Keys.RRs) == 0 {
			return fmt.Errorf("%w: zone %s has no DNSKEY RRs", dnserr.ChainBroken, link.Zone.String())
		}

		var ksk *rr.DNSKEY
		if i == 0 {
			dss, ok := anchors[link.Zone.CanonicalKey()]
			if !ok {
				return fmt.Errorf("%w: no configured trust anchor for %s", dnserr.ChainBroken, link.Zone.String())
			}
			found, err := keyMatchingDS(link.Keys, dss, link.Zone)
			if err != nil {
				return err
			}
			ksk = found
		} else {
			found, err := keyMatchingDS(link.Keys, parentDS, link.Zone)
			if err != nil {
				return err
			}
			ksk = found
		}

		if err := dnssec.VerifyRRset(link.Keys, link.KeysSig, ksk, link.Zone, now); err != nil {
			return fmt.Errorf("%w: DNSKEY RRSIG at %s: %v", dnserr.ChainBroken, link.Zone.String(), err)
		}

		if i+1 < len(p.Zones) {
			if link.DS == nil || link.DSSig == nil {
				return fmt.Errorf("%w: missing DS for %s", dnserr.ChainBroken, link.Zone.String())
			}
			dsSigner, err := anyKeyMatchingTag(link.Keys, link.DSSig.KeyTag)
			if err != nil {
				return fmt.Errorf("%w: DS signer at %s: %v", dnserr.ChainBroken, link.Zone.String(), err)
			}
			if err := dnssec.VerifyRRset(link.DS, link.DSSig, dsSigner, link.Zone, now); err != nil {
				return fmt.Errorf("%w: DS RRSIG at %s: %v", dnserr.ChainBroken, link.Zone.String(), err)
			}
		}
		parentDS = extractDS(link.DS)
	}

	last := p.Zones[len(p.Zones)-1]
	claimKey, err := anyKeyMatchingTag(last.Keys, p.Claim.Sig.KeyTag)
	if err != nil {
		return fmt.Errorf("%w: claim signer at %s: %v", dnserr.ChainBroken, last.Zone.String(), err)
	}
	if err := dnssec.VerifyRRset(p.Claim.RRset, p.Claim.Sig, claimKey, last.Zone, now); err != nil {
		return fmt.Errorf("%w: claim signature: %v", dnserr.ChainBroken, err)
	}
	return nil
}

// isZoneSigningKey reports whether k is usable as a chain-of-trust key:
// the ZONE flag set and the REVOKE flag clear (RFC 4034 §2.1.1, RFC 5011
// §2.1). A revoked or non-zone key never validates anything, no matter
// how well its tag or digest matches.
func isZoneSigningKey(k *rr.DNSKEY) bool {
	return k.Flags&rr.DNSKEYFlagZone != 0 && k.Flags&rr.DNSKEYFlagRevoke == 0
}

func extractDS(set *rr.RRset) []*rr.DS {
	if set == nil {
		return nil
	}
	out := make([]*rr.DS, 0, len(set.RRs))
	for _, r := range set.RRs {
		if d, ok := r.Data.(*rr.DS); ok {
			out = append(out, d)
		}
	}
	return out
}

func keyMatchingDS(keys *rr.RRset, dss []*rr.DS, zone dnsname.Name) (*rr.DNSKEY, error) {
	if len(dss) == 0 {
		return nil, fmt.Errorf("%w: no DS supplied for %s", dnserr.ChainBroken, zone.String())
	}
	for _, d := range dss {
		for _, keyRR := range keys.RRs {
			k, ok := keyRR.Data.(*rr.DNSKEY)
			if !ok || !isZoneSigningKey(k) {
				continue
			}
			matched, err := dnssec.MatchesDS(zone, k, d)
			if err != nil {
				return nil, err
			}
			if matched {
				return k, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no DNSKEY at %s matches parent DS", dnserr.ChainBroken, zone.String())
}

func anyKeyMatchingTag(keys *rr.RRset, tag uint16) (*rr.DNSKEY, error) {
	for _, keyRR := range keys.RRs {
		k, ok := keyRR.Data.(*rr.DNSKEY)
		if ok && isZoneSigningKey(k) && k.KeyTag() == tag {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: no usable DNSKEY with tag %d", dnserr.KeyMismatch, tag)
}

// Package dnssec implements RRset canonicalization, RRSIG construction and
// verification, and DS-digest / key-tag chain-of-trust walking, without any
// dependency on a third-party DNS library — every byte fed to a signature
// goes through the wire codec in package rr (spec §4.2, §8).
package dnssec

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"strings"
	"time"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
	"github.com/trustwalk/trustwalk/signer"
)

// CanonicalRRset renders set's RRs in the canonical form RFC 4034 §6.2/6.3
// describe: owner lowercased, wildcard owners left intact (signing always
// covers the wildcard owner itself, never its expansion), TTL replaced by
// origTTL, then sorted and deduplicated by canonical RDATA bytes.
func CanonicalRRset(set *rr.RRset, origTTL uint32) []*rr.RR {
	out := make([]*rr.RR, len(set.RRs))
	for i, orig := range set.RRs {
		lowered := make([]string, len(orig.Owner.Labels))
		for j, l := range orig.Owner.Labels {
			lowered[j] = strings.ToLower(l)
		}
		cp := *orig
		cp.Owner = dnsname.Name{Labels: lowered}
		cp.TTL = origTTL
		out[i] = &cp
	}
	return rr.SortCanonical(out)
}

// PackRRsetData concatenates the owner+type+class+ttl+rdlength+rdata wire
// encoding of each canonical RR, the second half of an RRSIG's signed data
// (spec §4.2). Each record gets its own fresh compressor and compressOwner
// is always false: the signed bytes must never depend on any particular
// message's compression state (RFC 4034 §6.2 rule 3).
func PackRRsetData(canon []*rr.RR) ([]byte, error) {
	var buf []byte
	for _, r := range canon {
		var err error
		buf, err = rr.Encode(buf, dnsname.NewCompressor(), r, false)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// year68 is the RFC 1982 serial-arithmetic modulus used to resolve
// inception/expiration wraparound for 32-bit times past 2106 (spec §8).
const year68 = int64(1) << 31

// WithinValidityPeriod reports whether now falls within [inception,
// expiration], both 32-bit seconds-since-epoch subject to RFC 1982 rollover.
func WithinValidityPeriod(inception, expiration uint32, now time.Time) bool {
	utc := now.UTC().Unix()
	modi := (int64(inception) - utc) / year68
	mode := (int64(expiration) - utc) / year68
	ti := int64(inception) + modi*year68
	te := int64(expiration) + mode*year68
	return ti <= utc && utc <= te
}

// DigestType identifies a DS digest algorithm (RFC 4034 §5.1.4 / RFC 4509 /
// RFC 6605).
type DigestType uint8

const (
	DigestSHA1   DigestType = 1
	DigestSHA256 DigestType = 2
	DigestSHA384 DigestType = 4
)

// ComputeDS derives the DS digest for key, owned by owner, per RFC 4034
// §5.1.4: digest(owner-wire || DNSKEY-RDATA-wire).
func ComputeDS(owner dnsname.Name, key *rr.DNSKEY, dt DigestType) (*rr.DS, error) {
	c := dnsname.NewCompressor()
	buf, err := c.WriteName(nil, canonicalName(owner), false)
	if err != nil {
		return nil, err
	}
	buf = append(buf, key.Wire()...)

	var digest []byte
	switch dt {
	case DigestSHA1:
		sum := sha1.Sum(buf)
		digest = sum[:]
	case DigestSHA256:
		sum := sha256.Sum256(buf)
		digest = sum[:]
	case DigestSHA384:
		sum := sha512.Sum384(buf)
		digest = sum[:]
	default:
		return nil, fmt.Errorf("%w: DS digest type %d", dnserr.AlgorithmUnsupported, dt)
	}
	return &rr.DS{KeyTag: key.KeyTag(), Algorithm: key.Algorithm, DigestType: uint8(dt), Digest: digest}, nil
}

func canonicalName(n dnsname.Name) dnsname.Name {
	lowered := make([]string, len(n.Labels))
	for i, l := range n.Labels {
		lowered[i] = strings.ToLower(l)
	}
	return dnsname.Name{Labels: lowered}
}

// MatchesDS reports whether key's digest, under ds's algorithm and digest
// type, equals ds.Digest — the DS-to-DNSKEY link in the chain of trust
// (spec §4.2).
func MatchesDS(owner dnsname.Name, key *rr.DNSKEY, ds *rr.DS) (bool, error) {
	if key.Algorithm != ds.Algorithm || key.KeyTag() != ds.KeyTag {
		return false, nil
	}
	computed, err := ComputeDS(owner, key, DigestType(ds.DigestType))
	if err != nil {
		return false, err
	}
	if len(computed.Digest) != len(ds.Digest) {
		return false, nil
	}
	for i := range computed.Digest {
		if computed.Digest[i] != ds.Digest[i] {
			return false, nil
		}
	}
	return true, nil
}

// SignRRset produces an RRSIG covering set, using priv (whose type must
// match alg) and the given validity window. labels excludes a wildcard's
// own "*" label per RFC 4034 §3.1.3.
func SignRRset(set *rr.RRset, signerName dnsname.Name, alg signer.Algorithm, keyTag uint16,
	inception, expiration uint32, origTTL uint32, priv crypto.Signer) (*rr.RRSIG, error) {

	canon := CanonicalRRset(set, origTTL)
	if len(canon) == 0 {
		return nil, fmt.Errorf("%w: cannot sign an empty RRset", dnserr.MalformedWire)
	}

	sig := &rr.RRSIG{
		TypeCovered: set.Type,
		Algorithm:   uint8(alg),
		Labels:      uint8(set.Owner.NumLabels()),
		OrigTTL:     origTTL,
		Expiration:  expiration,
		Inception:   inception,
		KeyTag:      keyTag,
		SignerName:  signerName,
	}

	data, err := signedData(sig, canon)
	if err != nil {
		return nil, err
	}

	rawSig, err := signer.Sign(alg, priv, data)
	if err != nil {
		return nil, err
	}
	sig.Signature = rawSig
	return sig, nil
}

// VerifyRRset checks sig against set using key, the DNSKEY owned by
// keyOwner that sig claims to be signed by. It implements RFC 4035
// §5.3.1 steps 1-4 and 7 in order: type-covered match, key_tag match,
// signer_name equal to the key's owner, the key's protocol octet, the
// validity window and owner/labels consistency (wildcard expansion, spec
// §4.4), and finally the cryptographic signature — returning the first
// dnserr.* failure. Steps 5-6 (RRset/owner matching) are the caller's
// responsibility: set must already be the RRset sig claims to cover.
func VerifyRRset(set *rr.RRset, sig *rr.RRSIG, key *rr.DNSKEY, keyOwner dnsname.Name, now time.Time) error {
	if sig.TypeCovered != set.Type {
		return fmt.Errorf("%w: RRSIG covers %s, not %s", dnserr.SignatureInvalid, sig.TypeCovered, set.Type)
	}
	if sig.KeyTag != key.KeyTag() {
		return fmt.Errorf("%w: RRSIG key_tag %d does not match DNSKEY tag %d", dnserr.KeyMismatch, sig.KeyTag, key.KeyTag())
	}
	if !dnsname.Equal(sig.SignerName, keyOwner) {
		return fmt.Errorf("%w: RRSIG signer_name %s does not match key owner %s", dnserr.KeyMismatch, sig.SignerName.String(), keyOwner.String())
	}
	if key.Protocol != 3 {
		return fmt.Errorf("%w: DNSKEY protocol %d, must be 3", dnserr.KeyMismatch, key.Protocol)
	}
	if sig.Algorithm != key.Algorithm {
		return fmt.Errorf("%w: RRSIG algorithm %d does not match DNSKEY algorithm %d", dnserr.KeyMismatch, sig.Algorithm, key.Algorithm)
	}
	if !WithinValidityPeriod(sig.Inception, sig.Expiration, now) {
		return dnserr.SignatureExpired
	}

	pub, err := signer.PublicKeyFromDNSKEY(key)
	if err != nil {
		return err
	}

	canon := CanonicalRRset(set, sig.OrigTTL)
	// A wildcard-expanded answer is signed under the wildcard owner, which
	// carries fewer labels than the query name; reconstruct the wildcard
	// owner for canonicalization when sig.Labels says so (RFC 4034 §3.1.3).
	if int(sig.Labels) < set.Owner.NumLabels() {
		wildcardOwner, err := wildcardOwnerFor(set.Owner, int(sig.Labels))
		if err != nil {
			return err
		}
		rewritten := make([]*rr.RR, len(canon))
		for i, r := range canon {
			cp := *r
			cp.Owner = wildcardOwner
			rewritten[i] = &cp
		}
		canon = rewritten
	} else if int(sig.Labels) > set.Owner.NumLabels() {
		return fmt.Errorf("%w: RRSIG labels field exceeds owner name", dnserr.SignatureInvalid)
	}

	data, err := signedData(sig, canon)
	if err != nil {
		return err
	}
	if err := signer.Verify(signer.Algorithm(sig.Algorithm), pub, data, sig.Signature); err != nil {
		return err
	}
	return nil
}

func wildcardOwnerFor(owner dnsname.Name, keptLabels int) (dnsname.Name, error) {
	if keptLabels < 0 || keptLabels > len(owner.Labels) {
		return dnsname.Name{}, fmt.Errorf("%w: invalid RRSIG labels count", dnserr.SignatureInvalid)
	}
	suffix := owner.Suffix(keptLabels)
	return dnsname.Concat(dnsname.MustParse("*"), suffix)
}

func signedData(sig *rr.RRSIG, canon []*rr.RR) ([]byte, error) {
	buf := sig.PackSignedData()
	rrsetBytes, err := PackRRsetData(canon)
	if err != nil {
		return nil, err
	}
	return append(buf, rrsetBytes...), nil
}

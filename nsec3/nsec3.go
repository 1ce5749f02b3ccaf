// Package nsec3 implements RFC 5155 hashed authenticated denial of
// existence: owner-name hashing, NSEC3 matching and covering under circular
// hash-order, and the closest-encloser proof used to prove name error,
// no-data, and opt-out delegation (spec §4.3).
package nsec3

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
)

// MaxIterations caps the additional hash iterations RFC 5155 §10.3 allows,
// independent of the zone's NSEC3PARAM value, to bound the CPU cost a
// hostile iteration count could otherwise impose on a validator.
const MaxIterations = 512

var base32Hex = newBase32Hex()

// HashName computes the RFC 5155 §5 iterated-hash owner name: 1 + iterations
// rounds of SHA-1 salted with salt, over the canonical wire form of name.
func HashName(name dnsname.Name, salt []byte, iterations uint16) ([]byte, error) {
	if iterations > MaxIterations {
		return nil, fmt.Errorf("%w: NSEC3 iteration count %d exceeds cap %d", dnserr.MalformedWire, iterations, MaxIterations)
	}
	c := dnsname.NewCompressor()
	wire, err := c.WriteName(nil, lowerName(name), false)
	if err != nil {
		return nil, err
	}

	h := sha1.Sum(append(append([]byte(nil), wire...), salt...))
	digest := h[:]
	for i := uint16(0); i < iterations; i++ {
		sum := sha1.Sum(append(append([]byte(nil), digest...), salt...))
		digest = sum[:]
	}
	return digest, nil
}

func lowerName(n dnsname.Name) dnsname.Name {
	lowered := make([]string, len(n.Labels))
	for i, l := range n.Labels {
		lowered[i] = strings.ToLower(l)
	}
	return dnsname.Name{Labels: lowered}
}

// EncodeOwner renders a hash as the base32hex owner label NSEC3 records use.
func EncodeOwner(hash []byte) string {
	return strings.ToLower(base32Hex.EncodeToString(hash))
}

// DecodeOwner is the inverse of EncodeOwner.
func DecodeOwner(label string) ([]byte, error) {
	b, err := base32Hex.DecodeString(strings.ToUpper(label))
	if err != nil {
		return nil, fmt.Errorf("%w: bad NSEC3 owner label %q: %v", dnserr.MalformedWire, label, err)
	}
	return b, nil
}

// compareHash performs unsigned big-endian byte comparison, the ordering
// NSEC3 hashed owners use (RFC 5155 §7.2).
func compareHash(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// Covers reports whether hash falls strictly between rec's owner hash and
// its NextHashedOwner, honoring the wraparound at the end of the hash ring
// (the last NSEC3 record's next-hash is the zone's lowest hash).
func Covers(rec *rr.NSEC3, ownerHash, hash []byte) bool {
	lo, hi := ownerHash, rec.NextHashedOwner
	if compareHash(lo, hi) < 0 {
		return compareHash(lo, hash) < 0 && compareHash(hash, hi) < 0
	}
	// wraps around the end of the ring
	return compareHash(lo, hash) < 0 || compareHash(hash, hi) < 0
}

// Matches reports whether hash exactly equals rec's owner hash.
func Matches(ownerHash, hash []byte) bool {
	return compareHash(ownerHash, hash) == 0
}

// Record pairs a zone's NSEC3 RR with the raw owner hash decoded from its
// owner name's leftmost label, so repeated comparisons don't re-decode it.
type Record struct {
	OwnerHash []byte
	RR        *rr.NSEC3
}

// ClosestEncloserProof is the result of walking qname's ancestor chain
// against a zone's NSEC3 chain (RFC 5155 §7.2.1): the longest ancestor name
// with a matching NSEC3 record, the NSEC3 that covers the name one label
// longer (the "next closer name"), and whether opt-out applies.
type ClosestEncloserProof struct {
	Encloser        dnsname.Name
	EncloserMatch   *Record
	NextCloser      dnsname.Name
	NextCloserCover *Record
	OptOut          bool
}

// FindClosestEncloser walks qname's ancestors from longest to shortest,
// returning the first name that has a matching NSEC3 record in records plus
// the next-closer covering proof just below it. zone bounds the walk so it
// never climbs above the zone apex.
func FindClosestEncloser(qname, zone dnsname.Name, salt []byte, iterations uint16, records []Record) (*ClosestEncloserProof, error) {
	if !dnsname.IsSubdomain(qname, zone) {
		return nil, fmt.Errorf("%w: name is not in zone", dnserr.ChainBroken)
	}

	candidates := ancestorsFrom(qname, zone)
	for i, cand := range candidates {
		h, err := HashName(cand, salt, iterations)
		if err != nil {
			return nil, err
		}
		rec := findMatch(records, h)
		if rec == nil {
			continue
		}
		var nextCloser dnsname.Name
		if i == 0 {
			nextCloser = qname
		} else {
			nextCloser = candidates[i-1]
		}
		nextHash, err := HashName(nextCloser, salt, iterations)
		if err != nil {
			return nil, err
		}
		cover := findCover(records, nextHash)
		if cover == nil {
			return nil, fmt.Errorf("%w: no NSEC3 covers the next closer name", dnserr.ProofMissing)
		}
		optOut := cover.RR.Flags&rr.NSEC3FlagOptOut != 0
		return &ClosestEncloserProof{
			Encloser:        cand,
			EncloserMatch:   rec,
			NextCloser:      nextCloser,
			NextCloserCover: cover,
			OptOut:          optOut,
		}, nil
	}
	return nil, fmt.Errorf("%w: no closest encloser found in NSEC3 chain", dnserr.ProofMissing)
}

// ancestorsFrom returns qname and each of its ancestors up to and
// including zone, ordered longest (qname itself) to shortest.
func ancestorsFrom(qname, zone dnsname.Name) []dnsname.Name {
	var out []dnsname.Name
	cur := qname
	for len(cur.Labels) > len(zone.Labels) {
		out = append(out, cur)
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		cur = parent
	}
	out = append(out, zone)
	return out
}

func findMatch(records []Record, hash []byte) *Record {
	for i := range records {
		if Matches(records[i].OwnerHash, hash) {
			return &records[i]
		}
	}
	return nil
}

func findCover(records []Record, hash []byte) *Record {
	for i := range records {
		if Covers(records[i].RR, records[i].OwnerHash, hash) {
			return &records[i]
		}
	}
	return nil
}

// ProveNameError verifies that qname itself does not exist: the closest
// encloser proof must cover the next closer name, and additionally the
// wildcard at the closest encloser must be covered by an NSEC3; a matching
// wildcard NSEC3 fails the proof whatever types it lists.
func ProveNameError(qname, zone dnsname.Name, salt []byte, iterations uint16, records []Record) (*ClosestEncloserProof, error) {
	proof, err := FindClosestEncloser(qname, zone, salt, iterations, records)
	if err != nil {
		return nil, err
	}
	wildcard, err := dnsname.Concat(dnsname.MustParse("*"), proof.Encloser)
	if err != nil {
		return nil, err
	}
	wh, err := HashName(wildcard, salt, iterations)
	if err != nil {
		return nil, err
	}
	if findMatch(records, wh) != nil {
		return nil, fmt.Errorf("%w: wildcard exists, not a name error", dnserr.ProofMissing)
	}
	if findCover(records, wh) == nil {
		return nil, fmt.Errorf("%w: no NSEC3 covers the wildcard", dnserr.ProofMissing)
	}
	return proof, nil
}

// ProveNoData verifies qname exists (its NSEC3 matches) but lacks qtype in
// its type bitmap, and lacks CNAME unless CNAME is the queried type. The
// bitmap's NS/SOA bits are not examined, so delegation points are not
// distinguished.
func ProveNoData(qname, zone dnsname.Name, qtype rr.Type, salt []byte, iterations uint16, records []Record) error {
	h, err := HashName(qname, salt, iterations)
	if err != nil {
		return err
	}
	rec := findMatch(records, h)
	if rec == nil {
		return fmt.Errorf("%w: no NSEC3 matches the queried name", dnserr.ProofMissing)
	}
	for _, t := range rec.RR.Types {
		if t == qtype {
			return fmt.Errorf("%w: matching NSEC3 asserts the type exists", dnserr.ProofMissing)
		}
		if t == rr.TypeCNAME && qtype != rr.TypeCNAME {
			return fmt.Errorf("%w: matching NSEC3 asserts a CNAME, not no-data", dnserr.ProofMissing)
		}
	}
	return nil
}

package trustproof

import (
	"context"
	"crypto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/dnssec"
	"github.com/trustwalk/trustwalk/rr"
	"github.com/trustwalk/trustwalk/signer"
)

func anchorDS(t *testing.T, owner dnsname.Name, kp *signer.KeyPair) map[string][]*rr.DS {
	t.Helper()
	ds, err := dnssec.ComputeDS(owner, kp.Public, dnssec.DigestSHA256)
	require.NoError(t, err)
	return map[string][]*rr.DS{owner.CanonicalKey(): {ds}}
}

func keyRRset(t *testing.T, owner dnsname.Name, keys ...*signer.KeyPair) *rr.RRset {
	t.Helper()
	set := &rr.RRset{Owner: owner, Type: rr.TypeDNSKEY, Class: rr.ClassINET}
	for _, kp := range keys {
		set.RRs = append(set.RRs, &rr.RR{Owner: owner, Type: rr.TypeDNSKEY, Class: rr.ClassINET, TTL: 3600, Data: kp.Public})
	}
	return set
}

func signSet(t *testing.T, set *rr.RRset, signerName dnsname.Name, kp *signer.KeyPair, now time.Time) *rr.RRSIG {
	t.Helper()
	inception := uint32(now.Add(-time.Hour).Unix())
	expiration := uint32(now.Add(time.Hour).Unix())
	priv, ok := kp.Signer.(crypto.Signer)
	require.True(t, ok)
	sig, err := dnssec.SignRRset(set, signerName, kp.Alg, kp.Tag, inception, expiration, 3600, priv)
	require.NoError(t, err)
	return sig
}

func TestVerifyTwoZoneChain(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	rootName := dnsname.MustParse(".")
	childName := dnsname.MustParse("example.com.")

	rootKSK, err := signer.GenerateKey(signer.AlgED25519, rr.DNSKEYFlagZone|rr.DNSKEYFlagSEP)
	require.NoError(t, err)
	childKSK, err := signer.GenerateKey(signer.AlgED25519, rr.DNSKEYFlagZone|rr.DNSKEYFlagSEP)
	require.NoError(t, err)

	rootKeys := keyRRset(t, rootName, rootKSK)
	rootKeysSig := signSet(t, rootKeys, rootName, rootKSK, now)

	childKeys := keyRRset(t, childName, childKSK)
	childKeysSig := signSet(t, childKeys, childName, childKSK, now)

	ds, err := dnssec.ComputeDS(childName, childKSK.Public, dnssec.DigestSHA256)
	require.NoError(t, err)
	dsSet := &rr.RRset{Owner: childName, Type: rr.TypeDS, Class: rr.ClassINET,
		RRs: []*rr.RR{{Owner: childName, Type: rr.TypeDS, Class: rr.ClassINET, TTL: 3600, Data: ds}}}
	dsSig := signSet(t, dsSet, rootName, rootKSK, now)

	claimOwner := dnsname.MustParse("proof.example.com.")
	claimSet := &rr.RRset{Owner: claimOwner, Type: rr.TypeTXT, Class: rr.ClassINET,
		RRs: []*rr.RR{{Owner: claimOwner, Type: rr.TypeTXT, Class: rr.ClassINET, TTL: 300, Data: &rr.TXT{Strings: []string{"hello"}}}}}
	claimSig := signSet(t, claimSet, childName, childKSK, now)

	proof := &Proof{
		Zones: []ZoneLink{
			{Zone: rootName, Keys: rootKeys, KeysSig: rootKeysSig, DS: dsSet, DSSig: dsSig},
			{Zone: childName, Keys: childKeys, KeysSig: childKeysSig},
		},
		Claim: Claim{Owner: claimOwner, RRset: claimSet, Sig: claimSig},
	}

	anchors := anchorDS(t, rootName, rootKSK)

	err = Verify(context.Background(), proof, anchors, now)
	require.NoError(t, err)
}

func TestVerifyRejectsBrokenChain(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rootName := dnsname.MustParse(".")
	childName := dnsname.MustParse("example.com.")

	rootKSK, err := signer.GenerateKey(signer.AlgED25519, rr.DNSKEYFlagZone|rr.DNSKEYFlagSEP)
	require.NoError(t, err)
	childKSK, err := signer.GenerateKey(signer.AlgED25519, rr.DNSKEYFlagZone|rr.DNSKEYFlagSEP)
	require.NoError(t, err)
	otherKSK, err := signer.GenerateKey(signer.AlgED25519, rr.DNSKEYFlagZone|rr.DNSKEYFlagSEP)
	require.NoError(t, err)

	rootKeys := keyRRset(t, rootName, rootKSK)
	rootKeysSig := signSet(t, rootKeys, rootName, rootKSK, now)

	childKeys := keyRRset(t, childName, childKSK)
	childKeysSig := signSet(t, childKeys, childName, childKSK, now)

	// DS computed against a key that never signed childKeys.
	ds, err := dnssec.ComputeDS(childName, otherKSK.Public, dnssec.DigestSHA256)
	require.NoError(t, err)
	dsSet := &rr.RRset{Owner: childName, Type: rr.TypeDS, Class: rr.ClassINET,
		RRs: []*rr.RR{{Owner: childName, Type: rr.TypeDS, Class: rr.ClassINET, TTL: 3600, Data: ds}}}
	dsSig := signSet(t, dsSet, rootName, rootKSK, now)

	claimOwner := dnsname.MustParse("proof.example.com.")
	claimSet := &rr.RRset{Owner: claimOwner, Type: rr.TypeTXT, Class: rr.ClassINET,
		RRs: []*rr.RR{{Owner: claimOwner, Type: rr.TypeTXT, Class: rr.ClassINET, TTL: 300, Data: &rr.TXT{Strings: []string{"hello"}}}}}
	claimSig := signSet(t, claimSet, childName, childKSK, now)

	proof := &Proof{
		Zones: []ZoneLink{
			{Zone: rootName, Keys: rootKeys, KeysSig: rootKeysSig, DS: dsSet, DSSig: dsSig},
			{Zone: childName, Keys: childKeys, KeysSig: childKeysSig},
		},
		Claim: Claim{Owner: claimOwner, RRset: claimSet, Sig: claimSig},
	}

	anchors := anchorDS(t, rootName, rootKSK)

	err = Verify(context.Background(), proof, anchors, now)
	require.Error(t, err)
}

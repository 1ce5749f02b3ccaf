package dnssec

import (
	"crypto/ed25519"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
	"github.com/trustwalk/trustwalk/signer"
)

func makeDNSKEY(t *testing.T, pub ed25519.PublicKey) *rr.DNSKEY {
	t.Helper()
	return &rr.DNSKEY{
		Flags:     rr.DNSKEYFlagZone | rr.DNSKEYFlagSEP,
		Protocol:  3,
		Algorithm: uint8(signer.AlgED25519),
		PublicKey: pub,
	}
}

func TestSignAndVerifyRRset(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	owner := dnsname.MustParse("example.com.")
	keyRR := makeDNSKEY(t, pub)
	set := &rr.RRset{
		Owner: owner,
		Type:  rr.TypeDNSKEY,
		Class: rr.ClassINET,
		RRs:   []*rr.RR{{Owner: owner, Type: rr.TypeDNSKEY, Class: rr.ClassINET, TTL: 3600, Data: keyRR}},
	}

	now := time.Unix(1_700_000_000, 0)
	inception := uint32(now.Unix() - 3600)
	expiration := uint32(now.Unix() + 3600)

	sig, err := SignRRset(set, owner, signer.AlgED25519, keyRR.KeyTag(), inception, expiration, 3600, priv)
	require.NoError(t, err)

	err = VerifyRRset(set, sig, keyRR, owner, now)
	require.NoError(t, err)
}

func TestVerifyRRsetRejectsExpiredSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	owner := dnsname.MustParse("example.com.")
	keyRR := makeDNSKEY(t, pub)
	set := &rr.RRset{
		Owner: owner,
		Type:  rr.TypeDNSKEY,
		Class: rr.ClassINET,
		RRs:   []*rr.RR{{Owner: owner, Type: rr.TypeDNSKEY, Class: rr.ClassINET, TTL: 3600, Data: keyRR}},
	}

	now := time.Unix(1_700_000_000, 0)
	inception := uint32(now.Unix() - 7200)
	expiration := uint32(now.Unix() - 3600)

	sig, err := SignRRset(set, owner, signer.AlgED25519, keyRR.KeyTag(), inception, expiration, 3600, priv)
	require.NoError(t, err)

	err = VerifyRRset(set, sig, keyRR, owner, now)
	require.Error(t, err)
}

func TestVerifyRRsetRejectsTamperedRRset(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	owner := dnsname.MustParse("www.example.com.")
	keyRR := makeDNSKEY(t, pub)
	a := &rr.A{Addr: net.IPv4(192, 0, 2, 1)}
	set := &rr.RRset{
		Owner: owner,
		Type:  rr.TypeA,
		Class: rr.ClassINET,
		RRs:   []*rr.RR{{Owner: owner, Type: rr.TypeA, Class: rr.ClassINET, TTL: 300, Data: a}},
	}

	now := time.Unix(1_700_000_000, 0)
	inception := uint32(now.Unix() - 3600)
	expiration := uint32(now.Unix() + 3600)

	sig, err := SignRRset(set, owner, signer.AlgED25519, keyRR.KeyTag(), inception, expiration, 300, priv)
	require.NoError(t, err)

	set.RRs[0].Data = &rr.A{Addr: net.IPv4(192, 0, 2, 2)}
	err = VerifyRRset(set, sig, keyRR, owner, now)
	require.Error(t, err)
}

func TestVerifyRRsetHandlesWildcardExpansion(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	wildcardOwner := dnsname.MustParse("*.example.com.")
	expandedOwner := dnsname.MustParse("something.example.com.")
	signerOwner := dnsname.MustParse("example.com.")
	keyRR := makeDNSKEY(t, pub)

	wildcardSet := &rr.RRset{
		Owner: wildcardOwner,
		Type:  rr.TypeTXT,
		Class: rr.ClassINET,
		RRs:   []*rr.RR{{Owner: wildcardOwner, Type: rr.TypeTXT, Class: rr.ClassINET, TTL: 300, Data: &rr.TXT{Strings: []string{"hi"}}}},
	}

	now := time.Unix(1_700_000_000, 0)
	inception := uint32(now.Unix() - 3600)
	expiration := uint32(now.Unix() + 3600)

	sig, err := SignRRset(wildcardSet, signerOwner, signer.AlgED25519, keyRR.KeyTag(), inception, expiration, 300, priv)
	require.NoError(t, err)

	synthesized := &rr.RRset{
		Owner: expandedOwner,
		Type:  rr.TypeTXT,
		Class: rr.ClassINET,
		RRs:   []*rr.RR{{Owner: expandedOwner, Type: rr.TypeTXT, Class: rr.ClassINET, TTL: 300, Data: &rr.TXT{Strings: []string{"hi"}}}},
	}

	err = VerifyRRset(synthesized, sig, keyRR, signerOwner, now)
	require.NoError(t, err)
}

func TestVerifyRRsetRejectsKeyTagMismatch(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	owner := dnsname.MustParse("example.com.")
	keyRR := makeDNSKEY(t, pub)
	set := &rr.RRset{
		Owner: owner,
		Type:  rr.TypeA,
		Class: rr.ClassINET,
		RRs:   []*rr.RR{{Owner: owner, Type: rr.TypeA, Class: rr.ClassINET, TTL: 300, Data: &rr.A{Addr: net.IPv4(192, 0, 2, 1)}}},
	}

	now := time.Unix(1_700_000_000, 0)
	inception := uint32(now.Unix() - 3600)
	expiration := uint32(now.Unix() + 3600)

	sig, err := SignRRset(set, owner, signer.AlgED25519, keyRR.KeyTag()+1, inception, expiration, 300, priv)
	require.NoError(t, err)

	err = VerifyRRset(set, sig, keyRR, owner, now)
	require.ErrorIs(t, err, dnserr.KeyMismatch)
}

func TestVerifyRRsetRejectsSignerNameMismatch(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	owner := dnsname.MustParse("example.com.")
	otherOwner := dnsname.MustParse("other.example.com.")
	keyRR := makeDNSKEY(t, pub)
	set := &rr.RRset{
		Owner: owner,
		Type:  rr.TypeA,
		Class: rr.ClassINET,
		RRs:   []*rr.RR{{Owner: owner, Type: rr.TypeA, Class: rr.ClassINET, TTL: 300, Data: &rr.A{Addr: net.IPv4(192, 0, 2, 1)}}},
	}

	now := time.Unix(1_700_000_000, 0)
	inception := uint32(now.Unix() - 3600)
	expiration := uint32(now.Unix() + 3600)

	sig, err := SignRRset(set, owner, signer.AlgED25519, keyRR.KeyTag(), inception, expiration, 300, priv)
	require.NoError(t, err)

	err = VerifyRRset(set, sig, keyRR, otherOwner, now)
	require.Error(t, err)
}

func TestVerifyRRsetRejectsNonThreeProtocol(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	owner := dnsname.MustParse("example.com.")
	keyRR := makeDNSKEY(t, pub)
	keyRR.Protocol = 2
	set := &rr.RRset{
		Owner: owner,
		Type:  rr.TypeA,
		Class: rr.ClassINET,
		RRs:   []*rr.RR{{Owner: owner, Type: rr.TypeA, Class: rr.ClassINET, TTL: 300, Data: &rr.A{Addr: net.IPv4(192, 0, 2, 1)}}},
	}

	now := time.Unix(1_700_000_000, 0)
	inception := uint32(now.Unix() - 3600)
	expiration := uint32(now.Unix() + 3600)

	sig, err := SignRRset(set, owner, signer.AlgED25519, keyRR.KeyTag(), inception, expiration, 300, priv)
	require.NoError(t, err)

	err = VerifyRRset(set, sig, keyRR, owner, now)
	require.Error(t, err)
}

func TestComputeDSAndMatchesDS(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	owner := dnsname.MustParse("example.com.")
	keyRR := makeDNSKEY(t, pub)

	ds, err := ComputeDS(owner, keyRR, DigestSHA256)
	require.NoError(t, err)
	require.Equal(t, keyRR.KeyTag(), ds.KeyTag)

	ok, err := MatchesDS(owner, keyRR, ds)
	require.NoError(t, err)
	require.True(t, ok)

	ds.Digest[0] ^= 0xff
	ok, err = MatchesDS(owner, keyRR, ds)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWithinValidityPeriod(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	inception := uint32(now.Unix() - 100)
	expiration := uint32(now.Unix() + 100)
	require.True(t, WithinValidityPeriod(inception, expiration, now))
	require.False(t, WithinValidityPeriod(inception, expiration, now.Add(200*time.Second)))
}

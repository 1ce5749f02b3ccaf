package zone

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
)

func mustRRset(t *testing.T, owner string, typ rr.Type, data rr.RData) *rr.RRset {
	t.Helper()
	o := dnsname.MustParse(owner)
	return &rr.RRset{Owner: o, Type: typ, Class: rr.ClassINET, RRs: []*rr.RR{
		{Owner: o, Type: typ, Class: rr.ClassINET, TTL: 3600, Data: data},
	}}
}

func newTestZone(t *testing.T) *Zone {
	t.Helper()
	apex := dnsname.MustParse("example.com.")
	z := New(apex)
	z.AddRRset(mustRRset(t, "example.com.", rr.TypeSOA, &rr.SOA{
		MName: dnsname.MustParse("ns1.example.com."), RName: dnsname.MustParse("hostmaster.example.com."),
		Serial: 1, Refresh: 3600, Retry: 600, Expire: 604800, Minimum: 300,
	}))
	z.AddRRset(mustRRset(t, "www.example.com.", rr.TypeA, &rr.A{Addr: net.ParseIP("192.0.2.1")}))
	z.AddRRset(mustRRset(t, "*.wild.example.com.", rr.TypeA, &rr.A{Addr: net.ParseIP("192.0.2.2")}))
	z.AddRRset(mustRRset(t, "child.example.com.", rr.TypeNS, &rr.NS{Host: dnsname.MustParse("ns1.child.example.com.")}))
	z.AddRRset(mustRRset(t, "ns1.child.example.com.", rr.TypeA, &rr.A{Addr: net.ParseIP("192.0.2.53")}))
	return z
}

func TestLookupExactMatch(t *testing.T) {
	z := newTestZone(t)
	ans, err := z.Lookup(dnsname.MustParse("www.example.com."), rr.TypeA)
	require.NoError(t, err)
	require.Equal(t, rr.RcodeSuccess, ans.Rcode)
	require.Len(t, ans.Answer, 1)
}

func TestLookupNXDomain(t *testing.T) {
	z := newTestZone(t)
	ans, err := z.Lookup(dnsname.MustParse("nope.example.com."), rr.TypeA)
	require.NoError(t, err)
	require.Equal(t, rr.RcodeNXDomain, ans.Rcode)
	require.NotEmpty(t, ans.Authority)
}

func TestLookupWildcard(t *testing.T) {
	z := newTestZone(t)
	ans, err := z.Lookup(dnsname.MustParse("anything.wild.example.com."), rr.TypeA)
	require.NoError(t, err)
	require.Equal(t, rr.RcodeSuccess, ans.Rcode)
	require.Len(t, ans.Answer, 1)
	require.True(t, dnsname.Equal(ans.Answer[0].Owner, dnsname.MustParse("anything.wild.example.com.")))
}

func TestLookupDelegationWithGlue(t *testing.T) {
	z := newTestZone(t)
	ans, err := z.Lookup(dnsname.MustParse("host.child.example.com."), rr.TypeA)
	require.NoError(t, err)
	require.True(t, ans.Referral)
	require.NotEmpty(t, ans.Authority)
	require.NotEmpty(t, ans.Additional)
}

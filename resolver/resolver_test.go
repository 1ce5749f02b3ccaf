package resolver

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
	"github.com/trustwalk/trustwalk/rrcache"
)

// scriptedQuerier replies from a map keyed by server address alone, letting
// a test script a referral chain without any real network.
type scriptedQuerier struct {
	t      *testing.T
	byAddr map[string]*rr.Message
}

func (q *scriptedQuerier) Query(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error) {
	resp, ok := q.byAddr[addr]
	require.Truef(q.t, ok, "unexpected query to %s for %s", addr, msg.Question[0].Name.String())
	return resp, nil
}

func aRecord(owner dnsname.Name, ip string) *rr.RR {
	return &rr.RR{Owner: owner, Type: rr.TypeA, Class: rr.ClassINET, TTL: 300, Data: &rr.A{Addr: net.ParseIP(ip)}}
}

func nsRecord(owner, host dnsname.Name) *rr.RR {
	return &rr.RR{Owner: owner, Type: rr.TypeNS, Class: rr.ClassINET, TTL: 300, Data: &rr.NS{Host: host}}
}

func TestResolveFollowsReferral(t *testing.T) {
	root := "root:53"
	tld := "tld:53"

	com := dnsname.MustParse("com.")
	example := dnsname.MustParse("example.com.")
	ns1 := dnsname.MustParse("ns1.example.com.")
	www := dnsname.MustParse("www.example.com.")

	rootResp := &rr.Message{
		Header:    rr.Header{Flags: rr.Flags{QR: true, RA: true}},
		Authority: []*rr.RR{nsRecord(com, dnsname.MustParse("a.tld-servers.net."))},
		Additional: []*rr.RR{
			{Owner: dnsname.MustParse("a.tld-servers.net."), Type: rr.TypeA, Class: rr.ClassINET, TTL: 300, Data: &rr.A{Addr: net.ParseIP("198.51.100.1")}},
		},
	}
	tldResp := &rr.Message{
		Header:     rr.Header{Flags: rr.Flags{QR: true, RA: true}},
		Authority:  []*rr.RR{nsRecord(example, ns1)},
		Additional: []*rr.RR{aRecord(ns1, "203.0.113.5")},
	}
	answerResp := &rr.Message{
		Header: rr.Header{Flags: rr.Flags{QR: true, AA: true}},
		Answer: []*rr.RR{aRecord(www, "203.0.113.10")},
	}

	q := &scriptedQuerier{t: t, byAddr: map[string]*rr.Message{
		root:             rootResp,
		tld:              tldResp,
		"198.51.100.1:53": tldResp,
		"203.0.113.5:53":  answerResp,
	}}

	res := New(rrcache.New(1<<20), q, []string{root})
	result, err := res.Resolve(context.Background(), www, rr.TypeA)
	require.NoError(t, err)
	require.NotNil(t, result.Answer)
	require.Equal(t, rr.TypeA, result.Answer.Type)
	require.Len(t, result.Answer.RRs, 1)
}

func TestResolveCNAMEChase(t *testing.T) {
	root := "root:53"
	alias := dnsname.MustParse("alias.example.com.")
	target := dnsname.MustParse("target.example.com.")

	cnameResp := &rr.Message{
		Header: rr.Header{Flags: rr.Flags{QR: true, AA: true}},
		Answer: []*rr.RR{{Owner: alias, Type: rr.TypeCNAME, Class: rr.ClassINET, TTL: 300, Data: &rr.CNAME{Target: target}}},
	}
	targetResp := &rr.Message{
		Header: rr.Header{Flags: rr.Flags{QR: true, AA: true}},
		Answer: []*rr.RR{aRecord(target, "203.0.113.20")},
	}

	calls := 0
	q := &fnQuerier{fn: func(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error) {
		calls++
		if dnsname.Equal(msg.Question[0].Name, alias) {
			return cnameResp, nil
		}
		return targetResp, nil
	}}

	res := New(rrcache.New(1<<20), q, []string{root})
	result, err := res.Resolve(context.Background(), alias, rr.TypeA)
	require.NoError(t, err)
	require.Len(t, result.Aliases, 1)
	require.NotNil(t, result.Answer)
	require.Equal(t, rr.TypeA, result.Answer.Type)
}

type fnQuerier struct {
	fn func(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error)
}

func (q *fnQuerier) Query(ctx context.Context, addr string, msg *rr.Message) (*rr.Message, error) {
	return q.fn(ctx, addr, msg)
}

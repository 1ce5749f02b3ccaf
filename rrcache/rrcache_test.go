package rrcache

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
)

func sampleSet() *rr.RRset {
	owner := dnsname.MustParse("www.example.com.")
	return &rr.RRset{Owner: owner, Type: rr.TypeA, Class: rr.ClassINET, RRs: []*rr.RR{
		{Owner: owner, Type: rr.TypeA, Class: rr.ClassINET, TTL: 300, Data: &rr.A{Addr: net.ParseIP("192.0.2.1")}},
	}}
}

func TestCachePutGet(t *testing.T) {
	c := New(1 << 20)
	key := Key{Owner: "www.example.com.", Type: rr.TypeA, Class: rr.ClassINET, Zone: "example.com."}
	c.Put(key, sampleSet(), 300, true)

	e, ok := c.Get(key)
	require.True(t, ok)
	require.True(t, e.AD)
	require.False(t, e.Negative)
}

func TestCacheExpiry(t *testing.T) {
	c := New(1 << 20)
	fixed := time.Unix(1000, 0)
	c.now = func() time.Time { return fixed }
	key := Key{Owner: "www.example.com.", Type: rr.TypeA, Class: rr.ClassINET, Zone: "example.com."}
	c.Put(key, sampleSet(), 10, false)

	c.now = func() time.Time { return fixed.Add(20 * time.Second) }
	_, ok := c.Get(key)
	require.False(t, ok)
}

func TestBackoff(t *testing.T) {
	c := New(1 << 20)
	addr := "192.0.2.53:53"
	require.False(t, c.IsBackedOff(addr))
	c.RecordFailure(addr)
	require.True(t, c.IsBackedOff(addr))
	c.RecordSuccess(addr)
	require.False(t, c.IsBackedOff(addr))
}

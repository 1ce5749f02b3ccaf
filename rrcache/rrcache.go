// Package rrcache implements the resolver's RRset cache: a size-budgeted
// cache keyed by (owner, type, zone), evicted oldest-insertion-first, with
// TTL-aware expiry, an "ad" bit carrying validation provenance,
// negative-cache entries backed by a zone's SOA minimum, and
// per-authority-address query backoff (spec §4.5).
package rrcache

import (
	"container/list"
	"sync"
	"time"

	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
)

// Key identifies one cache slot. Zone is the zone an answer was learned
// from, so a poisoned answer from one delegation can't shadow a sibling
// zone's data for the same owner/type.
type Key struct {
	Owner string // CanonicalKey()
	Type  rr.Type
	Class rr.Class
	Zone  string // CanonicalKey()
}

// Entry is one cached RRset plus its provenance.
type Entry struct {
	Set        *rr.RRset
	Negative   bool       // true for a NODATA/NXDOMAIN placeholder
	SOA        *rr.RRset  // authority SOA backing a negative entry's TTL
	Expires    time.Time
	AD         bool // validated under a complete chain of trust (spec §4.2)
	Eternal    bool // never expires or evicted (root trust anchors)
	sizeBytes  int
	elem       *list.Element
}

// Cache is a size-budgeted cache that evicts in insertion order (FIFO). The
// zero value is not usable; use New.
type Cache struct {
	mu       sync.Mutex
	budget   int
	used     int
	entries  map[Key]*Entry
	order    *list.List // front = newest insertion; eternal entries are never linked
	backoffs map[string]*backoffState
	now      func() time.Time
}

// New creates a cache with the given byte-size budget. Entry size is
// approximated as the wire size of its packed RRset (spec §4.5); an entry
// that would itself exceed the budget is simply not stored.
func New(budgetBytes int) *Cache {
	return &Cache{
		budget:   budgetBytes,
		entries:  map[Key]*Entry{},
		order:    list.New(),
		backoffs: map[string]*backoffState{},
		now:      time.Now,
	}
}

// Get returns the cached entry for key if present and unexpired. It does
// not affect eviction order: eviction is FIFO by insertion, not LRU, so a
// read never extends an entry's lifetime over one that was merely looked
// up less recently.
func (c *Cache) Get(key Key) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.Eternal && c.now().After(e.Expires) {
		c.removeLocked(key, e)
		return nil, false
	}
	return e, true
}

// Put stores set with the given TTL cap and AD provenance. ttl is the
// minimum TTL already applied by the caller across the RRset's records and
// any covering RRSIGs (spec §4.5). Eviction proceeds oldest-first until the
// budget is met.
func (c *Cache) Put(key Key, set *rr.RRset, ttl uint32, ad bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, &Entry{Set: set, Expires: c.now().Add(time.Duration(ttl) * time.Second), AD: ad}, approxSize(set))
}

// PutNegative stores a NODATA/NXDOMAIN placeholder, whose TTL is governed
// by the authority SOA's MINIMUM field (RFC 2308), capped by the SOA's own
// remaining TTL.
func (c *Cache) PutNegative(key Key, soa *rr.RRset, ad bool) {
	if len(soa.RRs) == 0 {
		return
	}
	s, ok := soa.RRs[0].Data.(*rr.SOA)
	if !ok {
		return
	}
	ttl := s.Minimum
	if soa.RRs[0].TTL < ttl {
		ttl = soa.RRs[0].TTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, &Entry{Negative: true, SOA: soa, Expires: c.now().Add(time.Duration(ttl) * time.Second), AD: ad}, approxSize(soa))
}

// PutEternal stores an entry (typically a configured trust anchor's
// DNSKEY/DS) that never expires and is exempt from eviction.
func (c *Cache) PutEternal(key Key, set *rr.RRset, ad bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry{Set: set, AD: ad, Eternal: true}
}

func (c *Cache) putLocked(key Key, e *Entry, size int) {
	if old, ok := c.entries[key]; ok {
		c.removeLocked(key, old)
	}
	if size > c.budget {
		return // too large to ever fit; drop silently rather than thrash eviction
	}
	for c.used+size > c.budget && c.order.Len() > 0 {
		back := c.order.Back()
		victimKey := back.Value.(Key)
		c.removeLocked(victimKey, c.entries[victimKey])
	}
	e.sizeBytes = size
	e.elem = c.order.PushFront(key)
	c.entries[key] = e
	c.used += size
}

func (c *Cache) removeLocked(key Key, e *Entry) {
	if e == nil {
		return
	}
	if e.elem != nil {
		c.order.Remove(e.elem)
		c.used -= e.sizeBytes
	}
	delete(c.entries, key)
}

// approxSize estimates an RRset's cached footprint from its packed wire
// form, the same unit the budget is expressed in.
func approxSize(set *rr.RRset) int {
	total := 0
	for _, r := range set.RRs {
		buf, err := rr.Encode(nil, dnsname.NewCompressor(), r, false)
		if err != nil {
			continue
		}
		total += len(buf)
	}
	return total
}

// backoffState tracks consecutive query failures to one authority address,
// grounding the resolver's per-authority-address backoff (spec §4.5): a
// server that keeps failing is skipped for an increasing interval rather
// than retried every query.
type backoffState struct {
	failures   int
	retryAfter time.Time
}

const maxBackoff = 5 * time.Minute

// RecordFailure registers a failed query to addr and returns the duration
// the resolver should now avoid it for.
func (c *Cache) RecordFailure(addr string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.backoffs[addr]
	if !ok {
		b = &backoffState{}
		c.backoffs[addr] = b
	}
	b.failures++
	delay := time.Duration(1<<uint(min(b.failures, 8))) * time.Second
	if delay > maxBackoff {
		delay = maxBackoff
	}
	b.retryAfter = c.now().Add(delay)
	return delay
}

// RecordSuccess clears addr's backoff state after a successful query.
func (c *Cache) RecordSuccess(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.backoffs, addr)
}

// IsBackedOff reports whether addr is currently within its backoff window.
func (c *Cache) IsBackedOff(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.backoffs[addr]
	if !ok {
		return false
	}
	return c.now().Before(b.retryAfter)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

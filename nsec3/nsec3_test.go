package nsec3

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
)

func TestHashNameIsDeterministic(t *testing.T) {
	name := dnsname.MustParse("www.example.com.")
	salt := []byte{0xAA, 0xBB}

	h1, err := HashName(name, salt, 3)
	require.NoError(t, err)
	h2, err := HashName(name, salt, 3)
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	h3, err := HashName(name, salt, 4)
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestHashNameRejectsExcessiveIterations(t *testing.T) {
	name := dnsname.MustParse("example.com.")
	_, err := HashName(name, nil, MaxIterations+1)
	require.Error(t, err)
}

func TestEncodeDecodeOwnerRoundTrip(t *testing.T) {
	name := dnsname.MustParse("example.com.")
	h, err := HashName(name, nil, 0)
	require.NoError(t, err)

	label := EncodeOwner(h)
	decoded, err := DecodeOwner(label)
	require.NoError(t, err)
	require.Equal(t, h, decoded)
}

func TestCoversHandlesWraparound(t *testing.T) {
	rec := &rr.NSEC3{NextHashedOwner: []byte{0x10}}
	// lo (0xF0) > hi (0x10): the ring wraps past the end back to the start.
	lo := []byte{0xF0}
	require.True(t, Covers(rec, lo, []byte{0xFF}))
	require.True(t, Covers(rec, lo, []byte{0x05}))
	require.False(t, Covers(rec, lo, []byte{0x50}))
}

func TestCoversWithinNonWrappingRange(t *testing.T) {
	rec := &rr.NSEC3{NextHashedOwner: []byte{0xF0}}
	lo := []byte{0x10}
	require.True(t, Covers(rec, lo, []byte{0x50}))
	require.False(t, Covers(rec, lo, []byte{0x05}))
	require.False(t, Covers(rec, lo, []byte{0xFF}))
}

// buildChain hashes each name in zone, producing a closed NSEC3 ring
// ordered by hash, each record's NextHashedOwner pointing at the next
// ring member (wrapping at the end), as a real zone's NSEC3 chain would.
func buildChain(t *testing.T, zone dnsname.Name, names []dnsname.Name, salt []byte, iterations uint16) []Record {
	t.Helper()
	type entry struct {
		name dnsname.Name
		hash []byte
	}
	entries := make([]entry, len(names))
	for i, n := range names {
		h, err := HashName(n, salt, iterations)
		require.NoError(t, err)
		entries[i] = entry{n, h}
	}
	sort.Slice(entries, func(i, j int) bool {
		return compareHash(entries[i].hash, entries[j].hash) < 0
	})

	records := make([]Record, len(entries))
	for i, e := range entries {
		next := entries[(i+1)%len(entries)].hash
		records[i] = Record{
			OwnerHash: e.hash,
			RR: &rr.NSEC3{
				HashAlg:         1,
				Iterations:      iterations,
				Salt:            salt,
				NextHashedOwner: next,
				Types:           []rr.Type{rr.TypeA},
			},
		}
	}
	return records
}

func TestProveNameError(t *testing.T) {
	zone := dnsname.MustParse("example.com.")
	salt := []byte{0x01}
	var iterations uint16 = 2

	existing := []dnsname.Name{
		zone,
		dnsname.MustParse("www.example.com."),
		dnsname.MustParse("mail.example.com."),
	}
	records := buildChain(t, zone, existing, salt, iterations)

	missing := dnsname.MustParse("doesnotexist.example.com.")
	_, err := ProveNameError(missing, zone, salt, iterations, records)
	require.NoError(t, err)
}

func TestProveNoData(t *testing.T) {
	zone := dnsname.MustParse("example.com.")
	salt := []byte{0x01}
	var iterations uint16 = 2

	existing := []dnsname.Name{
		zone,
		dnsname.MustParse("www.example.com."),
	}
	records := buildChain(t, zone, existing, salt, iterations)

	target := dnsname.MustParse("www.example.com.")
	err := ProveNoData(target, zone, rr.TypeAAAA, salt, iterations, records)
	require.NoError(t, err)

	err = ProveNoData(target, zone, rr.TypeA, salt, iterations, records)
	require.Error(t, err)
}

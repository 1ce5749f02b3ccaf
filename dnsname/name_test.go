package dnsname

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustwalk/trustwalk/dnserr"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{".", "com.", "example.com.", "www.example.com.", "a\\.b.example.com."}
	for _, s := range cases {
		n, err := Parse(s)
		require.NoError(t, err)
		require.Equal(t, s, n.String())
	}
}

func TestLabelTooLong(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Parse(string(long) + ".com.")
	require.ErrorIs(t, err, dnserr.LabelTooLong)
}

func TestNameTooLong(t *testing.T) {
	// 4 labels of 63 octets plus separators exceeds 255.
	label := make([]byte, 63)
	for i := range label {
		label[i] = 'a'
	}
	s := string(label) + "." + string(label) + "." + string(label) + "." + string(label) + "."
	_, err := Parse(s)
	require.Error(t, err)
}

func TestEqualCaseInsensitive(t *testing.T) {
	a, _ := Parse("WWW.Example.COM.")
	b, _ := Parse("www.example.com.")
	require.True(t, Equal(a, b))
}

func TestIsSubdomain(t *testing.T) {
	child, _ := Parse("www.example.com.")
	parent, _ := Parse("example.com.")
	require.True(t, IsSubdomain(child, parent))
	require.False(t, IsSubdomain(parent, child))
}

func TestWireCompression(t *testing.T) {
	c := NewCompressor()
	var buf []byte
	n1, _ := Parse("www.example.com.")
	n2, _ := Parse("mail.example.com.")
	var err error
	buf, err = c.WriteName(buf, n1, true)
	require.NoError(t, err)
	off2 := len(buf)
	buf, err = c.WriteName(buf, n2, true)
	require.NoError(t, err)

	got1, end1, err := ReadName(buf, 0)
	require.NoError(t, err)
	require.True(t, Equal(got1, n1))
	require.Equal(t, off2, end1)

	got2, _, err := ReadName(buf, off2)
	require.NoError(t, err)
	require.True(t, Equal(got2, n2))
	// mail.example.com. must have compressed away to a pointer, so its
	// wire form is far shorter than writing "example.com." out again.
	require.Less(t, len(buf)-off2, 1+len("mail")+3)
}

func TestWirePointerLoopRejected(t *testing.T) {
	buf := []byte{0xc0, 0x00} // pointer at offset 0 pointing to itself
	_, _, err := ReadName(buf, 0)
	require.Error(t, err)
}

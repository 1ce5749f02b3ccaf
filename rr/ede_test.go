package rr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttachAndFindEDE(t *testing.T) {
	opt := &OPT{}
	AttachEDE(opt, EDEDNSSECBogus, "signature expired")

	code, extra, ok := FindEDE(opt)
	require.True(t, ok)
	require.Equal(t, EDEDNSSECBogus, code)
	require.Equal(t, "signature expired", extra)
	require.Equal(t, "DNSSEC Bogus", EDEString(code))
}

func TestFindEDEAbsent(t *testing.T) {
	_, _, ok := FindEDE(&OPT{})
	require.False(t, ok)
}

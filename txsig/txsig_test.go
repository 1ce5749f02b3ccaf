package txsig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/dnsname"
)

func TestTSIGRoundTrip(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	keyName := dnsname.MustParse("key.example.com.")
	msg := []byte("pretend-dns-message-bytes")
	now := time.Unix(1_700_000_000, 0)

	tsig, err := SignTSIG(msg, keyName, HmacSHA256, secret, now, 300, 42)
	require.NoError(t, err)
	require.Equal(t, uint16(42), tsig.OriginalID)

	err = VerifyTSIG(msg, tsig, secret, now.Add(10*time.Second))
	require.NoError(t, err)
}

func TestTSIGRejectsBadSecret(t *testing.T) {
	keyName := dnsname.MustParse("key.example.com.")
	msg := []byte("pretend-dns-message-bytes")
	now := time.Unix(1_700_000_000, 0)

	tsig, err := SignTSIG(msg, keyName, HmacSHA256, []byte("correct-secret"), now, 300, 1)
	require.NoError(t, err)

	err = VerifyTSIG(msg, tsig, []byte("wrong-secret"), now)
	require.Error(t, err)
}

func TestTSIGRejectsExpiredFudge(t *testing.T) {
	keyName := dnsname.MustParse("key.example.com.")
	msg := []byte("pretend-dns-message-bytes")
	now := time.Unix(1_700_000_000, 0)
	secret := []byte("secret")

	tsig, err := SignTSIG(msg, keyName, HmacSHA256, secret, now, 5, 1)
	require.NoError(t, err)

	err = VerifyTSIG(msg, tsig, secret, now.Add(time.Minute))
	require.Error(t, err)
}

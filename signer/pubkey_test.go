package signer

import (
	"crypto/dsa"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/rr"
)

func TestPublicKeyFromDNSKEYRoundTripsGeneratedKeys(t *testing.T) {
	flags := rr.DNSKEYFlagZone | rr.DNSKEYFlagSEP
	for _, alg := range []Algorithm{AlgRSASHA256, AlgECDSAP256SHA256, AlgECDSAP384SHA384, AlgED25519, AlgED448} {
		t.Run(alg.String(), func(t *testing.T) {
			kp, err := GenerateKey(alg, flags)
			require.NoError(t, err)

			pub, err := PublicKeyFromDNSKEY(kp.Public)
			require.NoError(t, err)
			require.NotNil(t, pub)
		})
	}
}

func TestRSAPublicKeyFromWireRejectsTruncated(t *testing.T) {
	_, err := rsaPublicKeyFromWire(nil)
	require.Error(t, err)

	_, err = rsaPublicKeyFromWire([]byte{0, 1, 2})
	require.Error(t, err)
}

func TestDSAPublicKeyFromWireRoundTrips(t *testing.T) {
	params := dsa.Parameters{}
	require.NoError(t, dsa.GenerateParameters(&params, rand.Reader, dsa.L1024N160))

	priv := &dsa.PrivateKey{Parameters: params}
	require.NoError(t, dsa.GenerateKey(priv, rand.Reader))

	size := (params.P.BitLen() + 7) / 8
	tByte := byte((size - 64) / 8)
	wire := make([]byte, 0, 1+20+3*size)
	wire = append(wire, tByte)
	q := make([]byte, 20)
	priv.Q.FillBytes(q)
	wire = append(wire, q...)
	p := make([]byte, size)
	priv.P.FillBytes(p)
	wire = append(wire, p...)
	g := make([]byte, size)
	priv.G.FillBytes(g)
	wire = append(wire, g...)
	y := make([]byte, size)
	priv.Y.FillBytes(y)
	wire = append(wire, y...)

	pub, err := dsaPublicKeyFromWire(wire)
	require.NoError(t, err)
	require.Equal(t, 0, new(big.Int).Sub(pub.Y, priv.Y).Sign())
	require.Equal(t, 0, new(big.Int).Sub(pub.P, priv.P).Sign())
}

func TestDSAPublicKeyFromWireRejectsTooShort(t *testing.T) {
	_, err := dsaPublicKeyFromWire([]byte{0, 1, 2})
	require.Error(t, err)
}

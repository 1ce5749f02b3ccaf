package signer

import (
	"crypto"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustwalk/trustwalk/rr"
)

func TestSignVerifyRoundTripEachAlgorithm(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	flags := rr.DNSKEYFlagZone | rr.DNSKEYFlagSEP

	algs := []Algorithm{
		AlgRSASHA256,
		AlgECDSAP256SHA256,
		AlgECDSAP384SHA384,
		AlgED25519,
		AlgED448,
	}
	for _, alg := range algs {
		t.Run(alg.String(), func(t *testing.T) {
			kp, err := GenerateKey(alg, flags)
			require.NoError(t, err)

			priv, ok := kp.Signer.(crypto.Signer)
			require.True(t, ok)

			sig, err := Sign(alg, priv, data)
			require.NoError(t, err)

			pub, err := PublicKeyFromDNSKEY(kp.Public)
			require.NoError(t, err)

			err = Verify(alg, pub, data, sig)
			require.NoError(t, err)

			tampered := append([]byte(nil), sig...)
			tampered[0] ^= 0xff
			err = Verify(alg, pub, data, tampered)
			require.Error(t, err)
		})
	}
}

func TestVerifyRejectsWrongKeyType(t *testing.T) {
	kp, err := GenerateKey(AlgED25519, rr.DNSKEYFlagZone)
	require.NoError(t, err)
	priv := kp.Signer.(crypto.Signer)
	sig, err := Sign(AlgED25519, priv, []byte("data"))
	require.NoError(t, err)

	other, err := GenerateKey(AlgED25519, rr.DNSKEYFlagZone)
	require.NoError(t, err)
	otherPub, err := PublicKeyFromDNSKEY(other.Public)
	require.NoError(t, err)

	err = Verify(AlgED25519, otherPub, []byte("data"), sig)
	require.Error(t, err)
}

func TestAlgorithmString(t *testing.T) {
	require.Equal(t, "ED25519", AlgED25519.String())
	require.Equal(t, "ALG200", Algorithm(200).String())
}

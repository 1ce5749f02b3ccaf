package signer

import (
	"crypto"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/rr"
)

// PublicKeyFromDNSKEY decodes a DNSKEY's wire-format public key into the
// concrete crypto.PublicKey its algorithm uses, the inverse of the
// per-algorithm public-key field encodings (such as those GenerateKey writes
// into DNSKEY.PublicKey) (spec §3/§4.2).
func PublicKeyFromDNSKEY(key *rr.DNSKEY) (crypto.PublicKey, error) {
	alg := Algorithm(key.Algorithm)
	switch alg {
	case AlgRSASHA1, AlgRSASHA1NSEC3SHA1, AlgRSASHA256, AlgRSASHA512, AlgRSAMD5:
		return rsaPublicKeyFromWire(key.PublicKey)
	case AlgECDSAP256SHA256:
		return ecdsaPublicKeyFromWire(elliptic.P256(), key.PublicKey)
	case AlgECDSAP384SHA384:
		return ecdsaPublicKeyFromWire(elliptic.P384(), key.PublicKey)
	case AlgED25519:
		if len(key.PublicKey) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: Ed25519 key wrong length", dnserr.MalformedWire)
		}
		return ed25519.PublicKey(key.PublicKey), nil
	case AlgED448:
		if len(key.PublicKey) != ed448.PublicKeySize {
			return nil, fmt.Errorf("%w: Ed448 key wrong length", dnserr.MalformedWire)
		}
		pk := make(ed448.PublicKey, ed448.PublicKeySize)
		copy(pk, key.PublicKey)
		return pk, nil
	case AlgDSA, AlgDSANSEC3SHA1:
		return dsaPublicKeyFromWire(key.PublicKey)
	default:
		return nil, fmt.Errorf("%w: algorithm %s", dnserr.AlgorithmUnsupported, alg)
	}
}

// rsaPublicKeyFromWire parses RFC 3110's exponent-length-prefixed RSA
// public key wire form.
func rsaPublicKeyFromWire(wire []byte) (*rsa.PublicKey, error) {
	if len(wire) < 1 {
		return nil, fmt.Errorf("%w: empty RSA key", dnserr.MalformedWire)
	}
	expLen := int(wire[0])
	pos := 1
	if expLen == 0 {
		if len(wire) < 3 {
			return nil, fmt.Errorf("%w: truncated RSA exponent length", dnserr.MalformedWire)
		}
		expLen = int(wire[1])<<8 | int(wire[2])
		pos = 3
	}
	if pos+expLen > len(wire) {
		return nil, fmt.Errorf("%w: RSA exponent runs past key", dnserr.MalformedWire)
	}
	e := new(big.Int).SetBytes(wire[pos : pos+expLen])
	n := new(big.Int).SetBytes(wire[pos+expLen:])
	return &rsa.PublicKey{E: int(e.Int64()), N: n}, nil
}

func ecdsaPublicKeyFromWire(curve elliptic.Curve, wire []byte) (*ecdsa.PublicKey, error) {
	size := (curve.Params().BitSize + 7) / 8
	if len(wire) != 2*size {
		return nil, fmt.Errorf("%w: ECDSA key wrong length", dnserr.MalformedWire)
	}
	x := new(big.Int).SetBytes(wire[:size])
	y := new(big.Int).SetBytes(wire[size:])
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// RFC 2536 §2: DSA public key wire form is T(1) Q(20) P(64+8T) G(64+8T)
// Y(64+8T).
func dsaPublicKeyFromWire(wire []byte) (*dsa.PublicKey, error) {
	if len(wire) < 21 {
		return nil, fmt.Errorf("%w: DSA key too short", dnserr.MalformedWire)
	}
	t := int(wire[0])
	size := 64 + 8*t
	q := new(big.Int).SetBytes(wire[1:21])
	pos := 21
	if pos+3*size > len(wire) {
		return nil, fmt.Errorf("%w: DSA key truncated for T=%d", dnserr.MalformedWire, t)
	}
	p := new(big.Int).SetBytes(wire[pos : pos+size])
	pos += size
	g := new(big.Int).SetBytes(wire[pos : pos+size])
	pos += size
	y := new(big.Int).SetBytes(wire[pos : pos+size])
	return &dsa.PublicKey{Parameters: dsa.Parameters{P: p, Q: q, G: g}, Y: y}, nil
}

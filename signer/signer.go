// Package signer provides uniform sign/verify/digest adapters over the
// public-key algorithms DNSSEC uses (RSA, ECDSA P-256/P-384, Ed25519, Ed448,
// DSA), plus the BIND K<name>+<alg>+<tag>.key/.private file codec (spec §6).
// Every algorithm is reached through the same Sign/Verify functions so
// the dnssec package never branches on algorithm number itself.
package signer

import (
	"crypto"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math/big"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/trustwalk/trustwalk/dnserr"
)

// Algorithm is a DNSSEC algorithm number (RFC 8624 / IANA registry).
type Algorithm uint8

const (
	AlgRSAMD5           Algorithm = 1
	AlgDSA              Algorithm = 3
	AlgRSASHA1          Algorithm = 5
	AlgDSANSEC3SHA1     Algorithm = 6
	AlgRSASHA1NSEC3SHA1 Algorithm = 7
	AlgRSASHA256        Algorithm = 8
	AlgRSASHA512        Algorithm = 10
	AlgECCGOST          Algorithm = 12
	AlgECDSAP256SHA256  Algorithm = 13
	AlgECDSAP384SHA384  Algorithm = 14
	AlgED25519          Algorithm = 15
	AlgED448            Algorithm = 16
)

var algNames = map[Algorithm]string{
	AlgRSAMD5: "RSAMD5", AlgDSA: "DSA", AlgRSASHA1: "RSASHA1",
	AlgDSANSEC3SHA1: "DSA-NSEC3-SHA1", AlgRSASHA1NSEC3SHA1: "RSASHA1-NSEC3-SHA1",
	AlgRSASHA256: "RSASHA256", AlgRSASHA512: "RSASHA512",
	AlgECDSAP256SHA256: "ECDSAP256SHA256", AlgECDSAP384SHA384: "ECDSAP384SHA384",
	AlgED25519: "ED25519", AlgED448: "ED448",
}

func (a Algorithm) String() string {
	if s, ok := algNames[a]; ok {
		return s
	}
	return fmt.Sprintf("ALG%d", a)
}

// Sign produces a DNSSEC signature over data (the RRSIG_RDATA-prefix plus
// canonical RRset bytes, spec §4.2) using priv, whose concrete type must
// match alg. Revoked keys must never reach here (spec §9 Open Questions);
// that check is the caller's (dnssec package's) responsibility.
func Sign(alg Algorithm, priv crypto.Signer, data []byte) ([]byte, error) {
	switch alg {
	case AlgRSASHA1, AlgRSASHA1NSEC3SHA1, AlgRSASHA256, AlgRSASHA512:
		h, hashed := hashFor(alg, data)
		rsaKey, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected *rsa.PrivateKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		return rsa.SignPKCS1v15(rand.Reader, rsaKey, h, hashed)

	case AlgECDSAP256SHA256, AlgECDSAP384SHA384:
		_, hashed := hashFor(alg, data)
		ecKey, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected *ecdsa.PrivateKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		return signECDSA(ecKey, hashed)

	case AlgED25519:
		edKey, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected ed25519.PrivateKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		return ed25519.Sign(edKey, data), nil

	case AlgED448:
		edKey, ok := priv.(ed448.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected ed448.PrivateKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		return ed448.Sign(edKey, data, ""), nil

	case AlgDSA, AlgDSANSEC3SHA1:
		dsaKey, ok := priv.(*dsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected *dsa.PrivateKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		return signDSA(dsaKey, data)

	default:
		return nil, fmt.Errorf("%w: algorithm %s", dnserr.AlgorithmUnsupported, alg)
	}
}

// Verify checks sig over data against pub, whose concrete type must match
// alg. Returns dnserr.SignatureInvalid (never a generic error) on a bad
// signature so callers can treat verification failure uniformly.
func Verify(alg Algorithm, pub crypto.PublicKey, data, sig []byte) error {
	switch alg {
	case AlgRSASHA1, AlgRSASHA1NSEC3SHA1, AlgRSASHA256, AlgRSASHA512:
		h, hashed := hashFor(alg, data)
		rsaKey, ok := pub.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: expected *rsa.PublicKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		if err := rsa.VerifyPKCS1v15(rsaKey, h, hashed, sig); err != nil {
			return dnserr.SignatureInvalid
		}
		return nil

	case AlgECDSAP256SHA256, AlgECDSAP384SHA384:
		_, hashed := hashFor(alg, data)
		ecKey, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: expected *ecdsa.PublicKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		if !verifyECDSA(ecKey, hashed, sig) {
			return dnserr.SignatureInvalid
		}
		return nil

	case AlgED25519:
		edKey, ok := pub.(ed25519.PublicKey)
		if !ok {
			return fmt.Errorf("%w: expected ed25519.PublicKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		if !ed25519.Verify(edKey, data, sig) {
			return dnserr.SignatureInvalid
		}
		return nil

	case AlgED448:
		edKey, ok := pub.(ed448.PublicKey)
		if !ok {
			return fmt.Errorf("%w: expected ed448.PublicKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		if !ed448.Verify(edKey, data, sig, "") {
			return dnserr.SignatureInvalid
		}
		return nil

	case AlgDSA, AlgDSANSEC3SHA1:
		dsaKey, ok := pub.(*dsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: expected *dsa.PublicKey for %s", dnserr.AlgorithmUnsupported, alg)
		}
		if !verifyDSA(dsaKey, data, sig) {
			return dnserr.SignatureInvalid
		}
		return nil

	default:
		return fmt.Errorf("%w: algorithm %s", dnserr.AlgorithmUnsupported, alg)
	}
}

func hashFor(alg Algorithm, data []byte) (crypto.Hash, []byte) {
	switch alg {
	case AlgRSASHA1, AlgRSASHA1NSEC3SHA1:
		sum := sha1.Sum(data)
		return crypto.SHA1, sum[:]
	case AlgRSASHA512:
		sum := sha512.Sum512(data)
		return crypto.SHA512, sum[:]
	case AlgECDSAP384SHA384:
		sum := sha512.Sum384(data)
		return crypto.SHA384, sum[:]
	default: // RSASHA256, ECDSAP256SHA256
		sum := sha256.Sum256(data)
		return crypto.SHA256, sum[:]
	}
}

// ecdsaSig is the fixed-width r||s encoding RFC 6605 mandates for DNSSEC,
// distinct from the ASN.1 DER encoding Go's ecdsa package produces natively.
func signECDSA(key *ecdsa.PrivateKey, hashed []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, key, hashed)
	if err != nil {
		return nil, err
	}
	size := (key.Curve.Params().BitSize + 7) / 8
	out := make([]byte, 2*size)
	r.FillBytes(out[:size])
	s.FillBytes(out[size:])
	return out, nil
}

func verifyECDSA(pub *ecdsa.PublicKey, hashed, sig []byte) bool {
	size := (pub.Curve.Params().BitSize + 7) / 8
	if len(sig) != 2*size {
		return false
	}
	r := new(big.Int).SetBytes(sig[:size])
	s := new(big.Int).SetBytes(sig[size:])
	return ecdsa.Verify(pub, hashed, r, s)
}

// DSA's DNSSEC wire signature (RFC 2536 §3) is T(1) || R(20) || S(20), not
// Go's ASN.1 DER; T is (keysize-512)/64.
func signDSA(key *dsa.PrivateKey, data []byte) ([]byte, error) {
	sum := sha1.Sum(data)
	r, s, err := dsa.Sign(rand.Reader, key, sum[:])
	if err != nil {
		return nil, err
	}
	t := byte((key.P.BitLen() - 512) / 64)
	out := make([]byte, 41)
	out[0] = t
	r.FillBytes(out[1:21])
	s.FillBytes(out[21:41])
	return out, nil
}

func verifyDSA(pub *dsa.PublicKey, data, sig []byte) bool {
	if len(sig) != 41 {
		return false
	}
	sum := sha1.Sum(data)
	r := new(big.Int).SetBytes(sig[1:21])
	s := new(big.Int).SetBytes(sig[21:41])
	return dsa.Verify(pub, sum[:], r, s)
}

var _ = elliptic.P256 // keep crypto/elliptic import anchored for curve selection in keyfile.go

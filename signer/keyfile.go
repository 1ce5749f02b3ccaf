package signer

import (
	"bufio"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/rr"
)

// KeyPair bundles a DNSKEY record with the crypto.Signer backing it. Signer
// is nil for a public-only keyset (e.g. a trust anchor read without its
// .private file).
type KeyPair struct {
	Owner  string
	Alg    Algorithm
	Tag    uint16
	Public *rr.DNSKEY
	Signer interface{} // concrete type matches Alg: *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey, ed448.PrivateKey, *dsa.PrivateKey
}

// FileBase formats the BIND naming convention K<name>+<alg3>+<tag5>
// (spec §6), without extension.
func FileBase(owner string, alg Algorithm, tag uint16) string {
	return fmt.Sprintf("K%s+%03d+%05d", owner, alg, tag)
}

// WritePublicKeyFile writes the presentation-format .key file: a DNSKEY
// resource record line.
func WritePublicKeyFile(dir string, owner string, kp *KeyPair) (string, error) {
	path := dir + "/" + FileBase(owner, kp.Alg, kp.Tag) + ".key"
	line := fmt.Sprintf("%s IN DNSKEY %s\n", owner, kp.Public.String())
	return path, os.WriteFile(path, []byte(line), 0o644)
}

// WritePrivateKeyFile writes the BIND .private field set for kp.Signer.
func WritePrivateKeyFile(dir string, owner string, kp *KeyPair) (string, error) {
	path := dir + "/" + FileBase(owner, kp.Alg, kp.Tag) + ".private"
	var b strings.Builder
	fmt.Fprintf(&b, "Private-key-format: v1.3\n")
	fmt.Fprintf(&b, "Algorithm: %d (%s)\n", kp.Alg, kp.Alg)

	switch key := kp.Signer.(type) {
	case *rsa.PrivateKey:
		writeRSAFields(&b, key)
	case *ecdsa.PrivateKey:
		fmt.Fprintf(&b, "PrivateKey: %s\n", b64(key.D.Bytes()))
	case ed25519.PrivateKey:
		fmt.Fprintf(&b, "PrivateKey: %s\n", b64(key.Seed()))
	case ed448.PrivateKey:
		fmt.Fprintf(&b, "PrivateKey: %s\n", b64(key[:ed448.SeedSize]))
	case *dsa.PrivateKey:
		fmt.Fprintf(&b, "Prime(p): %s\n", b64(key.P.Bytes()))
		fmt.Fprintf(&b, "Subprime(q): %s\n", b64(key.Q.Bytes()))
		fmt.Fprintf(&b, "Base(g): %s\n", b64(key.G.Bytes()))
		fmt.Fprintf(&b, "Private_value(x): %s\n", b64(key.X.Bytes()))
		fmt.Fprintf(&b, "Public_value(y): %s\n", b64(key.Y.Bytes()))
	default:
		return "", fmt.Errorf("%w: unknown private key type for %s", dnserr.AlgorithmUnsupported, kp.Alg)
	}
	return path, os.WriteFile(path, []byte(b.String()), 0o600)
}

// writeRSAFields emits BIND's RSA .private fields. Exponent1/Exponent2/
// Coefficient are the CRT parameters Go's rsa.PrecomputedValues carries once
// Precompute has been called.
func writeRSAFields(b *strings.Builder, key *rsa.PrivateKey) {
	key.Precompute()
	fmt.Fprintf(b, "Modulus: %s\n", b64(key.N.Bytes()))
	fmt.Fprintf(b, "PublicExponent: %s\n", b64(big.NewInt(int64(key.E)).Bytes()))
	fmt.Fprintf(b, "PrivateExponent: %s\n", b64(key.D.Bytes()))
	if len(key.Primes) == 2 {
		fmt.Fprintf(b, "Prime1: %s\n", b64(key.Primes[0].Bytes()))
		fmt.Fprintf(b, "Prime2: %s\n", b64(key.Primes[1].Bytes()))
		fmt.Fprintf(b, "Exponent1: %s\n", b64(key.Precomputed.Dp.Bytes()))
		fmt.Fprintf(b, "Exponent2: %s\n", b64(key.Precomputed.Dq.Bytes()))
		fmt.Fprintf(b, "Coefficient: %s\n", b64(key.Precomputed.Qinv.Bytes()))
	}
}

func b64(x []byte) string { return base64.StdEncoding.EncodeToString(x) }

// ReadPrivateKeyFile parses a BIND-format .private file into a crypto.Signer
// matching alg. alg alone selects which fields are parsed; the file's own
// Algorithm line is not checked against it.
func ReadPrivateKeyFile(path string, alg Algorithm) (interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fields := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if sp := strings.IndexByte(val, ' '); sp >= 0 {
			val = val[:sp] // drop "(ALGNAME)" trailer on the Algorithm line
		}
		fields[key] = val
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	switch alg {
	case AlgRSASHA1, AlgRSASHA1NSEC3SHA1, AlgRSASHA256, AlgRSASHA512, AlgRSAMD5:
		return parseRSAFields(fields)
	case AlgECDSAP256SHA256:
		return parseECDSAField(fields, elliptic.P256())
	case AlgECDSAP384SHA384:
		return parseECDSAField(fields, elliptic.P384())
	case AlgED25519:
		return parseEd25519Field(fields)
	case AlgED448:
		return parseEd448Field(fields)
	case AlgDSA, AlgDSANSEC3SHA1:
		return parseDSAFields(fields)
	default:
		return nil, fmt.Errorf("%w: algorithm %s", dnserr.AlgorithmUnsupported, alg)
	}
}

func decodeField(fields map[string]string, name string) ([]byte, error) {
	v, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", dnserr.MalformedWire, name)
	}
	b, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", dnserr.MalformedWire, name, err)
	}
	return b, nil
}

func parseRSAFields(fields map[string]string) (interface{}, error) {
	mod, err := decodeField(fields, "Modulus")
	if err != nil {
		return nil, err
	}
	pubExp, err := decodeField(fields, "PublicExponent")
	if err != nil {
		return nil, err
	}
	privExp, err := decodeField(fields, "PrivateExponent")
	if err != nil {
		return nil, err
	}
	p1, err := decodeField(fields, "Prime1")
	if err != nil {
		return nil, err
	}
	p2, err := decodeField(fields, "Prime2")
	if err != nil {
		return nil, err
	}
	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{
			N: new(big.Int).SetBytes(mod),
			E: int(new(big.Int).SetBytes(pubExp).Int64()),
		},
		D:      new(big.Int).SetBytes(privExp),
		Primes: []*big.Int{new(big.Int).SetBytes(p1), new(big.Int).SetBytes(p2)},
	}
	priv.Precompute()
	return priv, nil
}

func parseECDSAField(fields map[string]string, curve elliptic.Curve) (*ecdsa.PrivateKey, error) {
	d, err := decodeField(fields, "PrivateKey")
	if err != nil {
		return nil, err
	}
	priv := new(ecdsa.PrivateKey)
	priv.Curve = curve
	priv.D = new(big.Int).SetBytes(d)
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(d)
	return priv, nil
}

func parseEd25519Field(fields map[string]string) (ed25519.PrivateKey, error) {
	seed, err := decodeField(fields, "PrivateKey")
	if err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: Ed25519 seed wrong length", dnserr.MalformedWire)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func parseEd448Field(fields map[string]string) (ed448.PrivateKey, error) {
	seed, err := decodeField(fields, "PrivateKey")
	if err != nil {
		return nil, err
	}
	if len(seed) != ed448.SeedSize {
		return nil, fmt.Errorf("%w: Ed448 seed wrong length", dnserr.MalformedWire)
	}
	return ed448.NewKeyFromSeed(seed), nil
}

func parseDSAFields(fields map[string]string) (*dsa.PrivateKey, error) {
	p, err := decodeField(fields, "Prime(p)")
	if err != nil {
		return nil, err
	}
	q, err := decodeField(fields, "Subprime(q)")
	if err != nil {
		return nil, err
	}
	g, err := decodeField(fields, "Base(g)")
	if err != nil {
		return nil, err
	}
	x, err := decodeField(fields, "Private_value(x)")
	if err != nil {
		return nil, err
	}
	y, err := decodeField(fields, "Public_value(y)")
	if err != nil {
		return nil, err
	}
	priv := new(dsa.PrivateKey)
	priv.P = new(big.Int).SetBytes(p)
	priv.Q = new(big.Int).SetBytes(q)
	priv.G = new(big.Int).SetBytes(g)
	priv.X = new(big.Int).SetBytes(x)
	priv.Y = new(big.Int).SetBytes(y)
	return priv, nil
}

// ParseFileBase extracts the algorithm and key tag from a K<name>+<alg>+<tag>
// basename (without extension), as produced by FileBase.
func ParseFileBase(base string) (owner string, alg Algorithm, tag uint16, err error) {
	if len(base) < 1 || base[0] != 'K' {
		return "", 0, 0, fmt.Errorf("%w: key filename must start with 'K'", dnserr.MalformedWire)
	}
	rest := base[1:]
	parts := strings.Split(rest, "+")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("%w: expected K<name>+<alg>+<tag>", dnserr.MalformedWire)
	}
	algNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: bad algorithm field: %v", dnserr.MalformedWire, err)
	}
	tagNum, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: bad key-tag field: %v", dnserr.MalformedWire, err)
	}
	return parts[0], Algorithm(algNum), uint16(tagNum), nil
}

// GenerateKey creates a fresh DNSKEY + private key for alg. flags is the
// DNSKEY flags field (e.g. rr.DNSKEYFlagZone|rr.DNSKEYFlagSEP for a KSK).
func GenerateKey(alg Algorithm, flags uint16) (*KeyPair, error) {
	var pub []byte
	var signer interface{}

	switch alg {
	case AlgRSASHA1, AlgRSASHA1NSEC3SHA1, AlgRSASHA256, AlgRSASHA512:
		bits := 2048
		if alg == AlgRSASHA512 {
			bits = 4096
		}
		priv, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, err
		}
		pub = rsaPublicKeyWire(priv.PublicKey.E, priv.PublicKey.N)
		signer = priv

	case AlgECDSAP256SHA256, AlgECDSAP384SHA384:
		curve := elliptic.P256()
		if alg == AlgECDSAP384SHA384 {
			curve = elliptic.P384()
		}
		priv, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			return nil, err
		}
		size := (curve.Params().BitSize + 7) / 8
		pub = make([]byte, 2*size)
		priv.PublicKey.X.FillBytes(pub[:size])
		priv.PublicKey.Y.FillBytes(pub[size:])
		signer = priv

	case AlgED25519:
		pk, sk, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		pub = []byte(pk)
		signer = sk

	case AlgED448:
		pk, sk, err := ed448.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		pub = pk[:]
		signer = sk

	default:
		return nil, fmt.Errorf("%w: GenerateKey does not support %s", dnserr.AlgorithmUnsupported, alg)
	}

	dnskey := &rr.DNSKEY{Flags: flags, Protocol: 3, Algorithm: uint8(alg), PublicKey: pub}
	return &KeyPair{Alg: alg, Tag: dnskey.KeyTag(), Public: dnskey, Signer: signer}, nil
}

// rsaPublicKeyWire renders the RFC 3110 exponent-length-prefixed form DNSKEY
// uses for RSA keys: a 1-byte length (or 0 followed by a 2-byte length for
// exponents over 255 bytes) then the exponent, then the modulus.
func rsaPublicKeyWire(e int, n *big.Int) []byte {
	expBytes := big.NewInt(int64(e)).Bytes()
	var out []byte
	if len(expBytes) < 256 {
		out = append(out, byte(len(expBytes)))
	} else {
		out = append(out, 0, byte(len(expBytes)>>8), byte(len(expBytes)))
	}
	out = append(out, expBytes...)
	out = append(out, n.Bytes()...)
	return out
}

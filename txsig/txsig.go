// Package txsig implements the two DNS transaction-signature mechanisms:
// SIG(0) (RFC 2931, asymmetric, reusing the RRSIG RDATA layout with
// type_covered=0) and TSIG (RFC 8945, symmetric HMAC). Both sign a whole
// message rather than an RRset (spec §4.7).
package txsig

import (
	"crypto"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"time"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
	"github.com/trustwalk/trustwalk/signer"
)

// DefaultFudge is RFC 8945's recommended clock-skew allowance, also used as
// SIG(0)'s window (spec §4.7, §9 Open Questions).
const DefaultFudge = 300 * time.Second

// SignSIG0 produces a SIG(0) record over msg (already encoded, without any
// SIG(0) RR of its own) using priv/alg, with a symmetric
// [now-fudge, now+fudge] validity window (spec's resolution of the
// inception-vs-now Open Question) and keyName identifying the signing key
// by its owner name.
func SignSIG0(msg []byte, keyName dnsname.Name, alg signer.Algorithm, keyTag uint16, priv crypto.Signer, now time.Time, fudge time.Duration) (*rr.RRSIG, error) {
	inception := uint32(now.Add(-fudge).Unix())
	expiration := uint32(now.Add(fudge).Unix())

	sig := &rr.RRSIG{
		TypeCovered: 0,
		Algorithm:   uint8(alg),
		Labels:      0,
		OrigTTL:     0,
		Expiration:  expiration,
		Inception:   inception,
		KeyTag:      keyTag,
		SignerName:  keyName,
	}
	data := append(sig.PackSignedData(), msg...)

	rawSig, err := signer.Sign(alg, priv, data)
	if err != nil {
		return nil, err
	}
	sig.Signature = rawSig
	return sig, nil
}

// VerifySIG0 checks sig over msg (the message bytes with the SIG(0) RR
// removed) using pub, including the validity window.
func VerifySIG0(msg []byte, sig *rr.RRSIG, pub crypto.PublicKey, now time.Time) error {
	if now.Before(timeFromUnix(sig.Inception)) || now.After(timeFromUnix(sig.Expiration)) {
		return dnserr.SignatureExpired
	}
	data := append(sig.PackSignedData(), msg...)
	return signer.Verify(signer.Algorithm(sig.Algorithm), pub, data, sig.Signature)
}

func timeFromUnix(u uint32) time.Time { return time.Unix(int64(u), 0) }

// TSIGAlgorithm identifies the HMAC hash TSIG uses, named by its standard
// DNS presentation name (RFC 8945 §6).
type TSIGAlgorithm string

const (
	HmacSHA1   TSIGAlgorithm = "hmac-sha1."
	HmacSHA256 TSIGAlgorithm = "hmac-sha256."
	HmacSHA384 TSIGAlgorithm = "hmac-sha384."
	HmacSHA512 TSIGAlgorithm = "hmac-sha512."
)

func hasherFor(alg TSIGAlgorithm) (func() hash.Hash, error) {
	switch alg {
	case HmacSHA1:
		return sha1.New, nil
	case HmacSHA256:
		return sha256.New, nil
	case HmacSHA384:
		return sha512.New384, nil
	case HmacSHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: TSIG algorithm %q", dnserr.AlgorithmUnsupported, alg)
	}
}

// tsigVariables renders the RFC 8945 §4.2 "TSIG variables" appended to the
// signed data after the message itself: the TSIG owner name, class, TTL
// (always ANY/0), algorithm name, time signed, fudge, error and other data.
func tsigVariables(keyName dnsname.Name, alg TSIGAlgorithm, timeSigned uint64, fudge uint16, errCode uint16, other []byte) ([]byte, error) {
	c := dnsname.NewCompressor()
	buf, err := c.WriteName(nil, keyName, false)
	if err != nil {
		return nil, err
	}
	buf = append(buf, byte(rr.ClassANY>>8), byte(rr.ClassANY))
	buf = append(buf, 0, 0, 0, 0) // TTL = 0

	algName, err := dnsname.Parse(string(alg))
	if err != nil {
		return nil, err
	}
	buf, err = c.WriteName(buf, algName, false)
	if err != nil {
		return nil, err
	}
	buf = append(buf, byte(timeSigned>>40), byte(timeSigned>>32), byte(timeSigned>>24),
		byte(timeSigned>>16), byte(timeSigned>>8), byte(timeSigned))
	buf = append(buf, byte(fudge>>8), byte(fudge))
	buf = append(buf, byte(errCode>>8), byte(errCode))
	buf = append(buf, byte(len(other)>>8), byte(len(other)))
	buf = append(buf, other...)
	return buf, nil
}

// SignTSIG computes the MAC for msg (the message bytes, with OriginalID
// already restored into the header and without a TSIG RR of its own),
// returning a ready-to-attach TSIG record.
func SignTSIG(msg []byte, keyName dnsname.Name, alg TSIGAlgorithm, secret []byte, now time.Time, fudge uint16, originalID uint16) (*rr.TSIG, error) {
	hasher, err := hasherFor(alg)
	if err != nil {
		return nil, err
	}
	timeSigned := uint64(now.Unix())
	vars, err := tsigVariables(keyName, alg, timeSigned, fudge, 0, nil)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(hasher, secret)
	mac.Write(msg)
	mac.Write(vars)

	algName, err := dnsname.Parse(string(alg))
	if err != nil {
		return nil, err
	}
	return &rr.TSIG{
		AlgorithmName: algName,
		TimeSigned:    timeSigned,
		Fudge:         fudge,
		MAC:           mac.Sum(nil),
		OriginalID:    originalID,
		Error:         0,
	}, nil
}

// VerifyTSIG recomputes the MAC for msg against t and reports whether it
// matches within the fudge window, in constant time.
func VerifyTSIG(msg []byte, t *rr.TSIG, secret []byte, now time.Time) error {
	skew := time.Duration(t.Fudge) * time.Second
	signedAt := time.Unix(int64(t.TimeSigned), 0)
	if now.Before(signedAt.Add(-skew)) || now.After(signedAt.Add(skew)) {
		return dnserr.SignatureExpired
	}

	alg := TSIGAlgorithm(t.AlgorithmName.String())
	hasher, err := hasherFor(alg)
	if err != nil {
		return err
	}
	vars, err := tsigVariables(t.AlgorithmName, alg, t.TimeSigned, t.Fudge, t.Error, t.OtherData)
	if err != nil {
		return err
	}
	mac := hmac.New(hasher, secret)
	mac.Write(msg)
	mac.Write(vars)
	expected := mac.Sum(nil)
	if !hmac.Equal(expected, t.MAC) {
		return dnserr.SignatureInvalid
	}
	return nil
}

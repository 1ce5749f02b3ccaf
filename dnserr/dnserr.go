// Package dnserr collects the error taxonomy shared across the wire codec,
// the DNSSEC validator and the resolver. Every sentinel here is meant to be
// compared with errors.Is; wrapping with context is done by the caller via
// fmt.Errorf("...: %w", dnserr.X).
package dnserr

import "errors"

var (
	// MalformedWire covers any decode failure not more specifically
	// classified below (truncated header, bad RDLENGTH, ...).
	MalformedWire = errors.New("malformed wire-format message")

	// NameTooLong: a domain name's wire encoding exceeds 255 octets.
	NameTooLong = errors.New("domain name exceeds 255 octets")

	// LabelTooLong: a single label exceeds 63 octets.
	LabelTooLong = errors.New("label exceeds 63 octets")

	// PointerLoop: name decompression exhausted its jump budget, or a
	// pointer referred forward (only backward pointers are legal).
	PointerLoop = errors.New("compression pointer loop or forward reference")

	// Truncated: the TC bit was set and the message was cut short.
	Truncated = errors.New("message truncated")

	// AlgorithmUnsupported: a DNSSEC/crypto algorithm number this module
	// does not implement.
	AlgorithmUnsupported = errors.New("unsupported algorithm")

	// KeyMismatch: an RRSIG's key_tag/signer_name/algorithm does not
	// identify the DNSKEY it was matched against.
	KeyMismatch = errors.New("rrsig does not match key")

	// SignatureInvalid: cryptographic verification failed.
	SignatureInvalid = errors.New("signature verification failed")

	// SignatureExpired: now is outside [inception, expiration].
	SignatureExpired = errors.New("signature outside its validity period")

	// ProofMissing: no NSEC/NSEC3 record covers or matches as required.
	ProofMissing = errors.New("denial-of-existence proof not found")

	// ChainBroken is recoverable: the resolver demotes the query to
	// insecure and continues without the AD bit.
	ChainBroken = errors.New("chain of trust broken")

	// NoAuthorityAddress: referral resolved to a zone with no usable
	// nameserver address.
	NoAuthorityAddress = errors.New("no usable authority address")

	// TooManyHops: max_referrals (or alias hop budget) exceeded.
	TooManyHops = errors.New("too many referrals or alias hops")

	// AliasLoop: CNAME/DNAME chasing revisited an owner name.
	AliasLoop = errors.New("alias loop detected")

	// Timeout: the per-call or overall resolve() deadline elapsed.
	Timeout = errors.New("timeout")

	// TransportError: the injected Querier returned a transport-level
	// failure (connection refused, read error, ...).
	TransportError = errors.New("transport error")
)

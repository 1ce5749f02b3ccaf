package dnsconfig

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trustwalk/trustwalk/dnsname"
	"github.com/trustwalk/trustwalk/rr"
)

// rootHintsFile and trustAnchorsFile are the on-disk shapes LoadRootHints
// and LoadTrustAnchors decode: a YAML mapping whose "hints" or "anchors"
// key holds the list of entries.
type rootHintsFile struct {
	Hints []RootHint `yaml:"hints"`
}

type trustAnchorsFile struct {
	Anchors []TrustAnchor `yaml:"anchors"`
}

// defaultRootHints are the IANA root server addresses compiled into this
// binary, used whenever no operator root-hints file is configured. Only
// the IPv4 glue is carried; a resolver falls back to these the same way
// named's built-in hints work.
var defaultRootHints = []string{
	"198.41.0.4:53",     // a.root-servers.net
	"199.9.14.201:53",   // b.root-servers.net
	"192.33.4.12:53",    // c.root-servers.net
	"199.7.91.13:53",    // d.root-servers.net
	"192.203.230.10:53", // e.root-servers.net
	"192.5.5.241:53",    // f.root-servers.net
	"192.112.36.4:53",   // g.root-servers.net
	"198.97.190.53:53",  // h.root-servers.net
	"192.36.148.17:53",  // i.root-servers.net
	"192.58.128.30:53",  // j.root-servers.net
	"193.0.14.129:53",   // k.root-servers.net
	"199.7.83.42:53",    // l.root-servers.net
	"202.12.27.33:53",   // m.root-servers.net
}

// defaultRootDS is the DS of the 2017 ICANN root KSK-2017 (key tag 20326),
// compiled in as the default trust anchor for the root zone.
var defaultRootDS = &rr.DS{
	KeyTag:     20326,
	Algorithm:  8,
	DigestType: 2,
	Digest:     mustHex("E06D44B80B8F1D39A95C0B0D7C65D08458E880409BBC683457104237C7F8EC8D"),
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// LoadRootHints reads a YAML root-hints file into a flat list of the
// host:port addresses of every listed server, for seeding a
// resolver.Resolver's RootHints. An
// empty path returns the compiled-in IANA root server addresses.
func LoadRootHints(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), defaultRootHints...), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading root hints %q: %w", path, err)
	}
	var doc rootHintsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing root hints %q: %w", path, err)
	}
	var addrs []string
	for _, h := range doc.Hints {
		for _, a := range h.Addresses {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("root hints %q: no addresses found", path)
	}
	return addrs, nil
}

// LoadTrustAnchors reads a YAML trust-anchors file into rr.DS records
// keyed by the zone they anchor, for seeding trustproof's anchor set. An
// empty path returns the compiled-in 2017 ICANN root KSK as the sole
// anchor for the root zone.
func LoadTrustAnchors(path string) (map[string][]*rr.DS, error) {
	if path == "" {
		return map[string][]*rr.DS{dnsname.Root.CanonicalKey(): {defaultRootDS}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trust anchors %q: %w", path, err)
	}
	var doc trustAnchorsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing trust anchors %q: %w", path, err)
	}

	out := map[string][]*rr.DS{}
	for _, a := range doc.Anchors {
		if _, err := dnsname.Parse(a.Zone); err != nil {
			return nil, fmt.Errorf("trust anchor zone %q: %w", a.Zone, err)
		}
		digest, err := hex.DecodeString(a.Digest)
		if err != nil {
			return nil, fmt.Errorf("trust anchor %q: bad digest hex: %w", a.Zone, err)
		}
		out[a.Zone] = append(out[a.Zone], &rr.DS{
			KeyTag:     a.KeyTag,
			Algorithm:  a.Algorithm,
			DigestType: a.DigestType,
			Digest:     digest,
		})
	}
	return out, nil
}

package dnsconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidatesConfig(t *testing.T) {
	dir := t.TempDir()
	logFile := writeFile(t, dir, "server.log", "")
	hintsFile := writeFile(t, dir, "hints.yaml", "")

	cfgYAML := `
log:
  file: ` + logFile + `
dnsengine:
  addresses:
    - "127.0.0.1:5353"
  transports:
    - do53
resolver:
  root_hints_file: ` + hintsFile + `
  cache_budget_bytes: 1048576
  max_hops: 24
`
	cfgFile := writeFile(t, dir, "config.yaml", cfgYAML)

	v := viper.New()
	cfg, err := Load(v, cfgFile)
	require.NoError(t, err)
	require.Equal(t, []string{"127.0.0.1:5353"}, cfg.DnsEngine.Addresses)
	require.Equal(t, 24, cfg.Resolver.MaxHops)
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	hintsFile := writeFile(t, dir, "hints.yaml", "")

	cfgYAML := `
dnsengine:
  addresses:
    - "127.0.0.1:5353"
  transports:
    - do53
resolver:
  root_hints_file: ` + hintsFile + `
  cache_budget_bytes: 1048576
  max_hops: 24
`
	cfgFile := writeFile(t, dir, "config.yaml", cfgYAML)

	v := viper.New()
	_, err := Load(v, cfgFile)
	require.Error(t, err)
}

func TestLoadRootHintsAndTrustAnchors(t *testing.T) {
	dir := t.TempDir()
	hints := writeFile(t, dir, "hints.yaml", `
hints:
  - name: a.root-servers.net.
    addresses: ["198.41.0.4:53"]
  - name: b.root-servers.net.
    addresses: ["199.9.14.201:53"]
`)
	anchors := writeFile(t, dir, "anchors.yaml", `
anchors:
  - zone: "."
    key_tag: 20326
    algorithm: 8
    digest_type: 2
    digest: "E06D44B80B8F1D39A95C0B0D7C65D08458E880409BBC683457104237C7F8EC8D"
`)

	addrs, err := LoadRootHints(hints)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"198.41.0.4:53", "199.9.14.201:53"}, addrs)

	tas, err := LoadTrustAnchors(anchors)
	require.NoError(t, err)
	require.Len(t, tas["."], 1)
	require.Equal(t, uint16(20326), tas["."][0].KeyTag)
}

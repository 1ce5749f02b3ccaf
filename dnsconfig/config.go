// Package dnsconfig loads and validates this module's configuration
// (trust anchors, root hints, cache budget, listen addresses) the way the
// teacher's own config.go/parseconfig.go do: Viper for layered file+env
// loading, validator struct tags for post-load checks, lumberjack for log
// rotation.
package dnsconfig

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the root configuration document.
type Config struct {
	App       AppDetails
	Log       LogConf
	DnsEngine DnsEngineConf
	Resolver  ResolverConf
	Zones     map[string]ZoneConf
}

// AppDetails identifies this process for logging and stamps boot/reload
// times, mirroring the teacher's Config.App.
type AppDetails struct {
	Name             string
	Version          string
	ServerBootTime   time.Time
	ServerConfigTime time.Time
}

// LogConf names the log file lumberjack rotates into.
type LogConf struct {
	File string `validate:"required"`
}

// DnsEngineConf configures the listening addresses and transports an
// authoritative or resolving server binds.
type DnsEngineConf struct {
	Addresses  []string `validate:"required,min=1,dive,hostname_port"`
	Transports []string `validate:"required,min=1,dive,oneof=do53 doq"`
}

// ResolverConf configures the iterative resolver: where to load root
// hints and trust anchors from, and the bounds it enforces. Both files are
// optional: an operator who supplies neither still gets the compiled-in
// root hints and the 2017 ICANN root KSK trust anchor (LoadRootHints,
// LoadTrustAnchors).
type ResolverConf struct {
	RootHintsFile    string `mapstructure:"root_hints_file" validate:"omitempty,file"`
	TrustAnchorsFile string `mapstructure:"trust_anchors_file" validate:"omitempty,file"`
	CacheBudgetBytes int    `mapstructure:"cache_budget_bytes" validate:"required,min=1024"`
	MaxHops          int    `mapstructure:"max_hops" validate:"required,min=1,max=64"`
}

// ZoneConf names a zone file this process loads as authoritative.
type ZoneConf struct {
	Apex string `validate:"required"`
	File string `validate:"required,file"`
}

// RootHint is one entry of the root-hints file: a server name and its
// glue addresses.
type RootHint struct {
	Name      string   `yaml:"name"`
	Addresses []string `yaml:"addresses"`
}

// TrustAnchor is one entry of the trust-anchors file: a DS-style anchor
// binding a zone to a key digest, used to seed chain-of-trust validation
// without first fetching the zone's own DNSKEY over the network.
type TrustAnchor struct {
	Zone       string `yaml:"zone"`
	KeyTag     uint16 `yaml:"key_tag"`
	Algorithm  uint8  `yaml:"algorithm"`
	DigestType uint8  `yaml:"digest_type"`
	Digest     string `yaml:"digest"`
}

// Load reads cfgfile (if non-empty; otherwise Viper's already-configured
// search paths/env) into a Config and validates it. v may be nil, in which
// case the global viper instance is used, matching the teacher's
// ValidateConfig(v, cfgfile) signature.
func Load(v *viper.Viper, cfgfile string) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	if cfgfile != "" {
		v.SetConfigFile(cfgfile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", cfgfile, err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("unmarshaling config %q: %w", cfgfile, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	cfg.App.ServerConfigTime = time.Now()
	return &cfg, nil
}

// Validate runs struct-tag validation section by section, so one
// section's errors don't mask another's, matching ValidateBySection's
// per-section reporting.
func Validate(cfg *Config) error {
	validate := validator.New()
	sections := map[string]interface{}{
		"log":       cfg.Log,
		"dnsengine": cfg.DnsEngine,
		"resolver":  cfg.Resolver,
	}
	for zname, zc := range cfg.Zones {
		sections["zone:"+zname] = zc
	}

	var errs []string
	for name, section := range sections {
		if err := validate.Struct(section); err != nil {
			errs = append(errs, fmt.Sprintf("section %s: %v", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}

// Reload re-reads cfgfile and stamps a fresh ServerConfigTime, for a
// running process that reloads on SIGHUP.
func Reload(v *viper.Viper, cfgfile string) (*Config, error) {
	cfg, err := Load(v, cfgfile)
	if err != nil {
		log.Printf("dnsconfig: reload of %q failed: %v", cfgfile, err)
		return nil, err
	}
	return cfg, nil
}

package dnsconfig

import "github.com/spf13/pflag"

// Flags holds the command-line flags an embedding binary parses before
// loading config — this module ships no CLI front end of its own, only
// the flag definitions a binary wires into its own flag.Parse call.
type Flags struct {
	ConfigFile string
	Verbose    bool
	Debug      bool
}

// RegisterFlags defines the standard set of flags on fs and returns a
// Flags struct whose fields are populated once fs.Parse runs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "configuration file")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "verbose logging")
	fs.BoolVarP(&f.Debug, "debug", "d", false, "debug logging")
	return f
}

package vmsg

import "flag"

// Config holds the vendor-message identity this servent advertises.
type Config struct {
	// OurVendor is the 4-byte code stamped on messages we originate.
	OurVendor VendorCode
}

// NewConfig returns the default vendor-message configuration.
func NewConfig() *Config {
	return &Config{OurVendor: VendorCode{'G', 'T', 'K', 'G'}}
}

// DefaultConfig is the package-level default, safe for read-only use.
var DefaultConfig = NewConfig()

// RegisterFlags wires cfg's fields onto fs for command-line overrides.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Func("vmsg.vendor", "4-character vendor code advertised in vendor messages", func(s string) error {
		var v VendorCode
		copy(v[:], s)
		cfg.OurVendor = v
		return nil
	})
}

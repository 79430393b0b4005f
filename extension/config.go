package extension

import bazaar "github.com/xraph/bazaar"

// Config holds the Bazaar extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.bazaar" or "bazaar" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// FeePercent is the platform fee retained from every purchase, in whole
	// percent. Zero means "use the engine default".
	FeePercent int64 `json:"fee_percent" mapstructure:"fee_percent" yaml:"fee_percent"`

	// Owner is the bootstrap platform owner principal. It is installed on the
	// first start only; an owner already recorded in the store wins.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		FeePercent: bazaar.DefaultFeePercent,
	}
}

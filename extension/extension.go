// Package extension provides the Forge extension adapter for Bazaar.
//
// It implements the forge.Extension interface to integrate Bazaar
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.bazaar" or "bazaar" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	bazaar "github.com/xraph/bazaar"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bazaar"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Digital content marketplace settlement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Bazaar as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *bazaar.Bazaar
	store      store.Store
	bazaarOpts []bazaar.Option
}

// New creates a new Bazaar Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Bazaar instance.
// This is nil until Register is called.
func (e *Extension) Engine() *bazaar.Bazaar { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the marketplace engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build engine options from resolved config.
	opts := e.buildBazaarOpts()

	eng := bazaar.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*bazaar.Bazaar, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("bazaar: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("bazaar: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildBazaarOpts constructs bazaar.Option values from the resolved config.
func (e *Extension) buildBazaarOpts() []bazaar.Option {
	opts := make([]bazaar.Option, 0, len(e.bazaarOpts)+3)

	if e.config.DisableMigrate {
		opts = append(opts, bazaar.WithoutMigrate())
	}

	if e.config.FeePercent > 0 {
		opts = append(opts, bazaar.WithFeePercent(e.config.FeePercent))
	}

	if owner, ok := types.ParsePrincipal(e.config.Owner); ok {
		opts = append(opts, bazaar.WithOwner(owner))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.bazaarOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("bazaar: configuration is required but not found in config files; " +
				"ensure 'extensions.bazaar' or 'bazaar' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("bazaar: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("fee_percent", e.config.FeePercent),
		forge.F("owner", e.config.Owner),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.bazaar" first (namespaced pattern).
	if cm.IsSet("extensions.bazaar") {
		if err := cm.Bind("extensions.bazaar", &cfg); err == nil {
			e.Logger().Debug("bazaar: loaded config from file",
				forge.F("key", "extensions.bazaar"),
			)
			return cfg, true
		}
		e.Logger().Warn("bazaar: failed to bind extensions.bazaar config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "bazaar" key.
	if cm.IsSet("bazaar") {
		if err := cm.Bind("bazaar", &cfg); err == nil {
			e.Logger().Debug("bazaar: loaded config from file",
				forge.F("key", "bazaar"),
			)
			return cfg, true
		}
		e.Logger().Warn("bazaar: failed to bind bazaar config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.FeePercent == 0 {
		cfg.FeePercent = defaults.FeePercent
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Owner == "" && programmaticConfig.Owner != "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}

	// Int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.FeePercent == 0 && programmaticConfig.FeePercent != 0 {
		yamlConfig.FeePercent = programmaticConfig.FeePercent
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}

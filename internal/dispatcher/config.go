package dispatcher

// Config holds dispatcher configuration options.
type Config struct {
	// MaxRemapDepth limits how many user mappings may expand in a row
	// before a handler runs. Registration rejects cycles, so the limit only
	// matters for chains that grow through trailing input.
	MaxRemapDepth int

	// EnableMetrics enables dispatch statistics collection.
	EnableMetrics bool

	// RecoverFromPanic wraps handler execution in panic recovery.
	RecoverFromPanic bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRemapDepth:    1000,
		EnableMetrics:    false,
		RecoverFromPanic: true,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithMaxRemapDepth returns a copy of the config with the remap limit set.
func (c Config) WithMaxRemapDepth(max int) Config {
	c.MaxRemapDepth = max
	return c
}

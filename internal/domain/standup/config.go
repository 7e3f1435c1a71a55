package standup

// Config holds tunables for the scheduling domain.
type Config struct {
	// WorkerCount bounds the per-team fan-out of the daily scheduler.
	WorkerCount int
}

// DefaultConfig returns the default domain configuration.
func DefaultConfig() *Config {
	return &Config{
		WorkerCount: 8,
	}
}

// Validate normalizes invalid values to their defaults.
func (c *Config) Validate() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultConfig().WorkerCount
	}
}

package config

import "time"

// DefaultIntervalMS is the reference polling cadence in milliseconds.
const DefaultIntervalMS = 750

// Config holds the user-configurable settings for the overlay.
type Config struct {
	Interval int  `mapstructure:"interval"` // poll period in milliseconds
	Mock     bool `mapstructure:"mock"`     // synthesize sensor data
	Debug    bool `mapstructure:"debug"`
	Verbose  bool `mapstructure:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{Interval: DefaultIntervalMS}
}

// Validate normalizes out-of-range values instead of failing startup.
func (c *Config) Validate() {
	if c.Interval <= 0 {
		c.Interval = DefaultIntervalMS
	}
}

// Period returns the poll interval as a duration.
func (c *Config) Period() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

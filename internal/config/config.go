package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load merges defaults, an optional overtop.toml, and command-line flags
// (flags win). The config file is taken from OVERTOP_CONFIG when set,
// otherwise looked up in the user config dir and next to the executable.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("overtop", pflag.ContinueOnError)
	flags.Int("interval", DefaultIntervalMS, "poll period in milliseconds")
	flags.Bool("mock", false, "use synthesized sensor data")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("verbose", false, "enable verbose logging")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("interval", DefaultIntervalMS)
	v.SetConfigName("overtop")
	v.SetConfigType("toml")
	if path := os.Getenv("OVERTOP_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "overtop"))
		}
		if exe, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(exe))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Validate()
	return cfg, nil
}

package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds optional defaults read from laneflow.toml. Flags always win
// over config values.
type Config struct {
	// CacheDir overrides the artifact cache location.
	CacheDir string `toml:"cache_dir"`

	// Pretty enables indented output by default.
	Pretty *bool `toml:"pretty"`

	// RedisURL switches the serve command to a shared Redis cache.
	RedisURL string `toml:"redis_url"`

	// Addr is the default listen address for serve.
	Addr string `toml:"addr"`
}

// LoadConfig reads laneflow.toml from the working directory, falling back to
// the XDG config location (~/.config/laneflow/laneflow.toml). A missing or
// unreadable file yields an empty config; configuration is always optional.
func LoadConfig() *Config {
	for _, path := range configPaths() {
		var cfg Config
		if _, err := toml.DecodeFile(path, &cfg); err == nil {
			return &cfg
		}
	}
	return &Config{}
}

func configPaths() []string {
	paths := []string{appName + ".toml"}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		paths = append(paths, filepath.Join(configHome, appName, appName+".toml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, appName+".toml"))
	}
	return paths
}

// PrettyDefault returns the configured pretty default, or true when unset.
func (c *Config) PrettyDefault() bool {
	if c == nil || c.Pretty == nil {
		return true
	}
	return *c.Pretty
}

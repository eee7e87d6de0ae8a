package config

import (
	"time"

	"github.com/puranjayb/AWS-Potato/internal/flagx"
)

// Config holds runtime settings for the CLI.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DownloadDir    string
}

// LoadDefaults populates c with values that match the local dev server.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 60 * time.Second
	c.DownloadDir = "downloads"
}

// Load constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags. args are usually os.Args[1:].
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, flagx.SourceFlags(args).ConfigFile); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

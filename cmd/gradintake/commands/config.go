package commands

import (
	"os"
	"time"

	"gradintake/lib/configutil"
	"gradintake/lib/serviceutil"
)

// Config is the process-wide pipeline configuration, read from
// config.json5 and passed explicitly into each stage.
type Config struct {
	BaseUrl string `json:"base_url"`
	Query   string `json:"query"`
	// Delay is the politeness spacing between requests, e.g. "800ms".
	Delay      string `json:"delay"`
	RetryCount int    `json:"retry_count"`
	DataDir    string `json:"data_dir"`
	// CanonicalizeUrl points at the optional name-canonicalization
	// service. Empty disables it.
	CanonicalizeUrl string `json:"canonicalize_url"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if os.IsNotExist(err) {
		cfg = Config{}
	} else if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	if cfg.BaseUrl == "" {
		cfg.BaseUrl = "https://www.thegradcafe.com"
	}
	if cfg.Query == "" {
		cfg.Query = "computer science"
	}
	if cfg.Delay == "" {
		cfg.Delay = "800ms"
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = 3
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	return cfg
}

func (c Config) delay() time.Duration {
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		serviceutil.Fatal("invalid delay in config", err)
	}
	return d
}

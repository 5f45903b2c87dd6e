package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the rbtl configuration file (~/.config/rbtl/config.yaml).
// All numeric fields are pointers so we can distinguish "not set" from zero
// values.
type Config struct {
	StoreDir string `yaml:"store_dir"`

	// Inference defaults
	Rate      *float64 `yaml:"rate"`
	Iters     *int     `yaml:"iters"`
	Eps       *float64 `yaml:"eps"`
	Chains    *int     `yaml:"chains"`
	Warmup    *int     `yaml:"warmup"`
	Draws     *int     `yaml:"draws"`
	Seed      *int64   `yaml:"seed"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rbtl", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or doesn't parse.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyFitConfig applies config file defaults to fit command variables when
// the corresponding CLI flag was not explicitly set.
func applyFitConfig(c *cli.Command, cfg Config, storeDir *string, rate *float64, iters *int) {
	if cfg.StoreDir != "" && !c.IsSet("store") {
		*storeDir = cfg.StoreDir
	}
	if cfg.Rate != nil && !c.IsSet("rate") {
		*rate = *cfg.Rate
	}
	if cfg.Iters != nil && !c.IsSet("iters") {
		*iters = *cfg.Iters
	}
}

// applySampleConfig applies config file defaults to sample command variables.
func applySampleConfig(c *cli.Command, cfg Config,
	storeDir *string, eps *float64, chains, warmup, draws *int, seed *int64,
) {
	if cfg.StoreDir != "" && !c.IsSet("store") {
		*storeDir = cfg.StoreDir
	}
	if cfg.Eps != nil && !c.IsSet("eps") {
		*eps = *cfg.Eps
	}
	if cfg.Chains != nil && !c.IsSet("chains") {
		*chains = *cfg.Chains
	}
	if cfg.Warmup != nil && !c.IsSet("warmup") {
		*warmup = *cfg.Warmup
	}
	if cfg.Draws != nil && !c.IsSet("draws") {
		*draws = *cfg.Draws
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"yieldpool/native/staking"
)

// Config carries the pool daemon settings: where the ledger lives, where
// telemetry is served and the policy applied when the pool ledger is first
// initialised.
type Config struct {
	DataDir             string `toml:"DataDir"`
	MetricsAddress      string `toml:"MetricsAddress"`
	ModuleAddress       string `toml:"ModuleAddress"`
	AnnualRateScaled    uint64 `toml:"AnnualRateScaled"`
	WaitDurationSeconds uint64 `toml:"WaitDurationSeconds"`
}

func defaultConfig() *Config {
	params := staking.DefaultParams()
	return &Config{
		DataDir:             "./yieldpool-data",
		MetricsAddress:      ":9464",
		ModuleAddress:       "0x59a5e2c1b0e1e5c3a7a8e5b0d4c3f2e1a0b9c8d7",
		AnnualRateScaled:    params.AnnualRateScaled,
		WaitDurationSeconds: params.WaitDurationSeconds,
	}
}

// Load reads the configuration from path, creating a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := defaultConfig()
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaults.DataDir
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = defaults.MetricsAddress
	}
	if strings.TrimSpace(c.ModuleAddress) == "" {
		c.ModuleAddress = defaults.ModuleAddress
	}
}

// Validate rejects configurations the pool cannot run with.
func (c *Config) Validate() error {
	if _, err := c.ModuleAddressBytes(); err != nil {
		return err
	}
	return c.Params().Validate()
}

// Params maps the configured policy onto staking engine parameters.
func (c *Config) Params() staking.Params {
	return staking.Params{
		AnnualRateScaled:    c.AnnualRateScaled,
		WaitDurationSeconds: c.WaitDurationSeconds,
	}
}

// ModuleAddressBytes decodes the configured vault address.
func (c *Config) ModuleAddressBytes() ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(c.ModuleAddress)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("config: decode module address: %w", err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("config: module address must be %d bytes (got %d)", len(addr), len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

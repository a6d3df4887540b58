package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"pyrochain/core"
	"pyrochain/native/emission"
	"pyrochain/native/nodepool"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	StorageBackend string `toml:"StorageBackend"`

	LogLevel      string `toml:"LogLevel"`
	LogFile       string `toml:"LogFile"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB"`
	LogMaxBackups int    `toml:"LogMaxBackups"`
	LogMaxAgeDays int    `toml:"LogMaxAgeDays"`

	BaseReward         string `toml:"BaseReward"`
	HalvingPeriodTicks uint64 `toml:"HalvingPeriodTicks"`
	EmissionOffset     uint64 `toml:"EmissionOffset"`
	TickSeconds        uint64 `toml:"TickSeconds"`

	MinBurn       string `toml:"MinBurn"`
	MaxSingleBurn string `toml:"MaxSingleBurn"`
	MaxTotalPower string `toml:"MaxTotalPower"`

	MaxClaimDays   uint64 `toml:"MaxClaimDays"`
	CalcWindowDays uint64 `toml:"CalcWindowDays"`
	StartYear      int    `toml:"StartYear"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RPCAddress == "" {
		cfg.RPCAddress = ":8545"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./pyro-data"
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = "leveldb"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogMaxSizeMB == 0 {
		cfg.LogMaxSizeMB = 100
	}
	if cfg.LogMaxBackups == 0 {
		cfg.LogMaxBackups = 3
	}
	if cfg.LogMaxAgeDays == 0 {
		cfg.LogMaxAgeDays = 28
	}
	if cfg.BaseReward == "" {
		cfg.BaseReward = defaultBaseReward
	}
	if cfg.HalvingPeriodTicks == 0 {
		cfg.HalvingPeriodTicks = defaultHalvingPeriod
	}
	if cfg.TickSeconds == 0 {
		cfg.TickSeconds = 3600
	}
	if cfg.MinBurn == "" {
		cfg.MinBurn = defaultMinBurn
	}
	if cfg.MaxSingleBurn == "" {
		cfg.MaxSingleBurn = defaultMaxSingleBurn
	}
	if cfg.MaxTotalPower == "" {
		cfg.MaxTotalPower = defaultMaxTotalPower
	}
	if cfg.MaxClaimDays == 0 {
		cfg.MaxClaimDays = 30
	}
	if cfg.CalcWindowDays == 0 {
		cfg.CalcWindowDays = 365
	}
	if cfg.StartYear == 0 {
		cfg.StartYear = 2025
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// EngineConfig converts the file representation into the engine's native
// parameter set.
func (c *Config) EngineConfig() (core.Config, error) {
	base, err := parseAmount("BaseReward", c.BaseReward)
	if err != nil {
		return core.Config{}, err
	}
	minBurn, err := parseAmount("MinBurn", c.MinBurn)
	if err != nil {
		return core.Config{}, err
	}
	maxBurn, err := parseAmount("MaxSingleBurn", c.MaxSingleBurn)
	if err != nil {
		return core.Config{}, err
	}
	maxPower, err := parseAmount("MaxTotalPower", c.MaxTotalPower)
	if err != nil {
		return core.Config{}, err
	}
	return core.Config{
		Schedule: emission.Schedule{
			BaseReward:    base,
			HalvingPeriod: c.HalvingPeriodTicks,
			Offset:        c.EmissionOffset,
		},
		Pool: nodepool.DefaultPool(),
		Params: core.Params{
			MinBurn:        minBurn,
			MaxSingleBurn:  maxBurn,
			MaxTotalPower:  maxPower,
			MaxClaimDays:   c.MaxClaimDays,
			CalcWindowDays: c.CalcWindowDays,
			TickSeconds:    c.TickSeconds,
			StartYear:      c.StartYear,
		},
	}, nil
}

func parseAmount(field, raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("config: %s is not a base-10 integer: %q", field, raw)
	}
	return value, nil
}

package config

import "fmt"

const (
	defaultBaseReward    = "2400000000000000000000"
	defaultHalvingPeriod = uint64(24 * 1460)
	defaultMinBurn       = "1000000000000000000"
	defaultMaxSingleBurn = "1000000000000000000000000"
	defaultMaxTotalPower = "100000000000000000000000000"

	maxDayParam = uint64(365)
)

func Validate(c *Config) error {
	switch c.StorageBackend {
	case "leveldb", "bolt", "memory":
	default:
		return fmt.Errorf("storage: unknown backend %q", c.StorageBackend)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.LogLevel)
	}
	if c.TickSeconds == 0 || c.TickSeconds > 86400 {
		return fmt.Errorf("emission: tick_seconds outside (0, 86400]")
	}
	if c.HalvingPeriodTicks == 0 {
		return fmt.Errorf("emission: halving_period_ticks == 0")
	}
	if c.MaxClaimDays == 0 || c.MaxClaimDays > maxDayParam {
		return fmt.Errorf("settlement: max_claim_days outside (0, %d]", maxDayParam)
	}
	if c.CalcWindowDays == 0 || c.CalcWindowDays > maxDayParam {
		return fmt.Errorf("settlement: calc_window_days outside (0, %d]", maxDayParam)
	}
	if c.StartYear < 1970 {
		return fmt.Errorf("event: start_year before epoch")
	}
	return nil
}

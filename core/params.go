package core

import (
	"errors"
	"math/big"

	"pyrochain/native/emission"
	"pyrochain/native/nodepool"
)

const (
	// UserAllocationPercent is the share of each day's emission distributed
	// to power holders through settlement.
	UserAllocationPercent = 75
	// NodeAllocationPercent is the share of every emission tick routed into
	// the node reward pool. The same percent parameterises the event-burn
	// payment formula.
	NodeAllocationPercent = 25

	// SecondsPerDay converts timestamps to day indexes.
	SecondsPerDay = 86400

	// maxParamDays bounds the admin-settable day windows.
	maxParamDays = 365
)

// Params carries the tunable engine parameters. Burn bounds and the two day
// windows are seeded from configuration and may later be adjusted through
// the admin surface, where they persist in global state.
type Params struct {
	MinBurn        *big.Int
	MaxSingleBurn  *big.Int
	MaxTotalPower  *big.Int
	MaxClaimDays   uint64
	CalcWindowDays uint64
	TickSeconds    uint64
	StartYear      int
}

// Validate checks the parameter bounds the admin surface also enforces.
func (p Params) Validate() error {
	if p.MinBurn == nil || p.MinBurn.Sign() <= 0 {
		return errors.New("engine: min burn must be positive")
	}
	if p.MaxSingleBurn == nil || p.MaxSingleBurn.Cmp(p.MinBurn) < 0 {
		return errors.New("engine: max single burn must be >= min burn")
	}
	if p.MaxTotalPower == nil || p.MaxTotalPower.Sign() <= 0 {
		return errors.New("engine: max total power must be positive")
	}
	if p.MaxClaimDays == 0 || p.MaxClaimDays > maxParamDays {
		return errors.New("engine: max claim days out of bounds")
	}
	if p.CalcWindowDays == 0 || p.CalcWindowDays > maxParamDays {
		return errors.New("engine: calc window out of bounds")
	}
	if p.TickSeconds == 0 {
		return errors.New("engine: tick seconds must be positive")
	}
	if p.StartYear <= 0 {
		return errors.New("engine: start year must be set")
	}
	return nil
}

// Config bundles everything an engine needs besides its storage.
type Config struct {
	Schedule emission.Schedule
	Pool     nodepool.Pool
	Params   Params
}

// Validate checks the full engine configuration.
func (c Config) Validate() error {
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	return c.Params.Validate()
}

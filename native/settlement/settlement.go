package settlement

import (
	"errors"
	"math/big"
)

var ErrInvalidParams = errors.New("settlement: invalid parameters")

// Source supplies the historical inputs a settlement run needs. Exact-entry
// lookups are distinguished from forward-fill lookups so the computation can
// seed a carry-forward value once and then walk the range without repeating
// the full backward search per day.
type Source interface {
	DayEmission(day uint64) (*big.Int, error)
	UserPowerAt(day uint64) (*big.Int, bool, error)
	GlobalPowerAt(day uint64) (*big.Int, bool, error)
	UserPowerOn(day uint64) (*big.Int, error)
	GlobalPowerOn(day uint64) (*big.Int, error)
	FirstUserDay() (uint64, bool, error)
}

// Params bound a single settlement call.
type Params struct {
	MaxClaimDays uint64
	UserPercent  uint64
}

// Validate ensures the parameters are usable.
func (p Params) Validate() error {
	if p.MaxClaimDays == 0 || p.MaxClaimDays > 365 {
		return ErrInvalidParams
	}
	if p.UserPercent == 0 || p.UserPercent > 100 {
		return ErrInvalidParams
	}
	return nil
}

// Result describes one settlement batch. Settled reports whether the range
// was non-empty and the caller should advance the per-user pointer to
// EndDay. A zero Amount with Settled true is a valid outcome: the days were
// processed, they just paid nothing.
type Result struct {
	StartDay uint64
	EndDay   uint64
	Amount   *big.Int
	Settled  bool
}

// Compute determines the next settlement batch for a user. lastSettledDay of
// zero means the user has never settled, in which case the range starts at
// the user's first historical entry. The range never includes today and is
// capped at MaxClaimDays, so arbitrarily large backlogs resolve through
// repeated calls.
//
// The per-day reward applies truncating division at each step in a fixed
// order: (emission * userPercent) / 100, then * power, then / totalPower.
// The rounding is part of the protocol, not an accident.
func Compute(src Source, lastSettledDay, today uint64, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	empty := Result{Amount: big.NewInt(0)}
	var startDay uint64
	if lastSettledDay == 0 {
		first, ok, err := src.FirstUserDay()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return empty, nil
		}
		startDay = first
	} else {
		startDay = lastSettledDay + 1
	}
	if today == 0 || startDay > today-1 {
		return empty, nil
	}
	endDay := today - 1
	if cap := startDay + p.MaxClaimDays - 1; cap < endDay {
		endDay = cap
	}

	userCarry, err := src.UserPowerOn(startDay)
	if err != nil {
		return Result{}, err
	}
	globalCarry, err := src.GlobalPowerOn(startDay)
	if err != nil {
		return Result{}, err
	}

	total := big.NewInt(0)
	userShare := new(big.Int).SetUint64(p.UserPercent)
	hundred := big.NewInt(100)
	for day := startDay; day <= endDay; day++ {
		if exact, ok, err := src.UserPowerAt(day); err != nil {
			return Result{}, err
		} else if ok {
			userCarry = exact
		}
		if exact, ok, err := src.GlobalPowerAt(day); err != nil {
			return Result{}, err
		} else if ok {
			globalCarry = exact
		}
		if userCarry.Sign() <= 0 || globalCarry.Sign() <= 0 {
			continue
		}
		emission, err := src.DayEmission(day)
		if err != nil {
			return Result{}, err
		}
		if emission == nil || emission.Sign() <= 0 {
			continue
		}
		reward := new(big.Int).Mul(emission, userShare)
		reward.Quo(reward, hundred)
		reward.Mul(reward, userCarry)
		reward.Quo(reward, globalCarry)
		total.Add(total, reward)
	}

	return Result{StartDay: startDay, EndDay: endDay, Amount: total, Settled: true}, nil
}

package emission

import (
	"errors"
	"math/big"
)

var (
	ErrZeroHalvingPeriod = errors.New("emission: halving period must be positive")
	ErrOffsetTooLarge    = errors.New("emission: offset must be smaller than the halving period")
	ErrNilBaseReward     = errors.New("emission: base reward must be set")
)

// Schedule maps a monotonically increasing tick counter to a per-tick reward
// with geometric halving. The reward for a tick is the base reward shifted
// right once per elapsed halving era, so the emission eventually reaches zero.
type Schedule struct {
	BaseReward    *big.Int
	HalvingPeriod uint64
	Offset        uint64
}

// Validate ensures the schedule parameters are usable.
func (s Schedule) Validate() error {
	if s.BaseReward == nil || s.BaseReward.Sign() < 0 {
		return ErrNilBaseReward
	}
	if s.HalvingPeriod == 0 {
		return ErrZeroHalvingPeriod
	}
	if s.Offset >= s.HalvingPeriod {
		return ErrOffsetTooLarge
	}
	return nil
}

// era returns the halving era a tick falls into.
func (s Schedule) era(tick uint64) uint64 {
	return (tick + s.Offset) / s.HalvingPeriod
}

// RewardAt returns the reward minted for a single tick. Pure and total: any
// tick value is valid and the result is non-increasing in tick.
func (s Schedule) RewardAt(tick uint64) *big.Int {
	if s.BaseReward == nil || s.BaseReward.Sign() <= 0 || s.HalvingPeriod == 0 {
		return big.NewInt(0)
	}
	era := s.era(tick)
	if era >= uint64(s.BaseReward.BitLen()) {
		return big.NewInt(0)
	}
	return new(big.Int).Rsh(s.BaseReward, uint(era))
}

// Accumulate sums the rewards for every tick in (from, to]. The sum is
// computed per halving era rather than per tick, so arbitrarily large
// catch-up gaps cost a handful of iterations: each era contributes
// count-in-era * era-reward.
func (s Schedule) Accumulate(from, to uint64) *big.Int {
	total := big.NewInt(0)
	if to <= from || s.HalvingPeriod == 0 {
		return total
	}
	tick := from + 1
	for tick <= to {
		reward := s.RewardAt(tick)
		if reward.Sign() == 0 {
			break
		}
		era := s.era(tick)
		// Last tick belonging to the current era.
		eraEnd := (era+1)*s.HalvingPeriod - 1 - s.Offset
		end := eraEnd
		if to < end {
			end = to
		}
		count := new(big.Int).SetUint64(end - tick + 1)
		total.Add(total, count.Mul(count, reward))
		if end == to {
			break
		}
		tick = end + 1
	}
	return total
}

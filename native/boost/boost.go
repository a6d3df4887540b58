package boost

import (
	"errors"
	"math/big"
	"time"
)

// WindowDays is the length of the automatic year-end event window.
const WindowDays = 21

// windowStartMonth/Day anchor the automatic window so it spans the turn of
// the year: it opens on December 22nd and runs 21 days into January.
const (
	windowStartMonth = time.December
	windowStartDay   = 22
)

var (
	ErrNoPower         = errors.New("boost: user has no power")
	ErrTotalPowerZero  = errors.New("boost: total power is zero")
	ErrUnderpayment    = errors.New("boost: payment below computed requirement")
	ErrAlreadyEntered  = errors.New("boost: already participated at this multiplier")
	ErrOutsideWindow   = errors.New("boost: event not active")
	ErrMultiplierUnder = errors.New("boost: multiplier must exceed one")
)

// WindowActive reports whether the automatic calendar window covers the
// instant. Days in early January belong to the window opened the previous
// December.
func WindowActive(now time.Time) bool {
	now = now.UTC()
	for _, year := range []int{now.Year(), now.Year() - 1} {
		start := time.Date(year, windowStartMonth, windowStartDay, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, WindowDays)
		if !now.Before(start) && now.Before(end) {
			return true
		}
	}
	return false
}

// Active reports whether the event is live, either by manual override or by
// the automatic calendar window.
func Active(now time.Time, override bool) bool {
	return override || WindowActive(now)
}

// Multiplier derives the current event multiplier: 2^(year-startYear+level)
// scaled by ten. Years before the start year clamp the exponent at zero.
func Multiplier(now time.Time, startYear int, level uint64) *big.Int {
	exp := int64(now.UTC().Year()-startYear) + int64(level)
	if exp < 0 {
		exp = 0
	}
	mult := new(big.Int).Lsh(big.NewInt(1), uint(exp))
	return mult.Mul(mult, big.NewInt(10))
}

// ParticipationKey derives the flag key for a multiplier value. Flags are
// keyed by the multiplier itself, not the calendar year: a manual re-trigger
// at the same multiplier stays blocked while a new multiplier level opens a
// fresh slot.
func ParticipationKey(multiplier *big.Int) string {
	if multiplier == nil {
		return "0"
	}
	return multiplier.String()
}

// CirculatingSupply derives the circulating supply for the payment formula:
// (currentBalance + totalEverClaimed - incomingValue) - totalEverBurned.
// currentBalance is expected to already include the incoming value of the
// call being processed. A negative result clamps to zero.
func CirculatingSupply(balance, claimed, incoming, burned *big.Int) *big.Int {
	supply := new(big.Int).Add(balance, claimed)
	supply.Sub(supply, incoming)
	supply.Sub(supply, burned)
	if supply.Sign() < 0 {
		supply.SetInt64(0)
	}
	return supply
}

// RequiredPayment computes the mandatory event-burn payment:
// power * circulatingSupply * nodePercent / (totalPower * 100), with the
// single truncating division applied last.
func RequiredPayment(userPower, circulating, totalPower *big.Int, nodePercent uint64) (*big.Int, error) {
	if totalPower == nil || totalPower.Sign() <= 0 {
		return nil, ErrTotalPowerZero
	}
	num := new(big.Int).Mul(userPower, circulating)
	num.Mul(num, new(big.Int).SetUint64(nodePercent))
	den := new(big.Int).Mul(totalPower, big.NewInt(100))
	return num.Quo(num, den), nil
}

// AddedPower computes the entitlement increase for a successful event burn:
// the user's power is multiplied, so the increase is power * (multiplier-1).
func AddedPower(userPower, multiplier *big.Int) (*big.Int, error) {
	if userPower == nil || userPower.Sign() <= 0 {
		return nil, ErrNoPower
	}
	if multiplier == nil || multiplier.Cmp(big.NewInt(1)) <= 0 {
		return nil, ErrMultiplierUnder
	}
	factor := new(big.Int).Sub(multiplier, big.NewInt(1))
	return factor.Mul(userPower, factor), nil
}

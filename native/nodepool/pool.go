package nodepool

import (
	"errors"
	"math/big"
)

var (
	ErrSeatOutOfRange    = errors.New("nodepool: seat index out of range")
	ErrWithdrawnExceeds  = errors.New("nodepool: withdrawn exceeds entitlement")
	ErrNothingToClaim    = errors.New("nodepool: nothing to claim")
	ErrInvalidTierSplit  = errors.New("nodepool: tier percents must sum to the pool percent")
	ErrZeroSeats         = errors.New("nodepool: tiers must have seats")
	ErrUnauthorizedAddr  = errors.New("nodepool: caller is not the seat withdrawal address")
	ErrSeatAddressUnset  = errors.New("nodepool: seat withdrawal address unset")
	ErrBadSeatAddrLength = errors.New("nodepool: seat address must be 20 bytes")
)

// Tier is one seat class sharing a fixed percentage of the pool.
type Tier struct {
	Percent uint64
	Seats   uint64
}

// Pool describes the fixed seat layout: big seats first, then small seats.
// Seat entitlements are derived from the live pool total on every claim, so
// they grow as emission flows in; only the withdrawn side is stored.
type Pool struct {
	Big          Tier
	Small        Tier
	TotalPercent uint64
}

// DefaultPool matches the production layout: 20% of the pool across 1200
// big seats and 5% across 3600 small seats, out of the 25% node allocation.
func DefaultPool() Pool {
	return Pool{
		Big:          Tier{Percent: 20, Seats: 1200},
		Small:        Tier{Percent: 5, Seats: 3600},
		TotalPercent: 25,
	}
}

// Validate ensures the layout is internally consistent.
func (p Pool) Validate() error {
	if p.Big.Seats == 0 || p.Small.Seats == 0 {
		return ErrZeroSeats
	}
	if p.TotalPercent == 0 || p.Big.Percent+p.Small.Percent != p.TotalPercent {
		return ErrInvalidTierSplit
	}
	return nil
}

// SeatCount returns the total number of seats across both tiers.
func (p Pool) SeatCount() uint64 {
	return p.Big.Seats + p.Small.Seats
}

// TierFor resolves the tier a seat index belongs to.
func (p Pool) TierFor(index uint64) (Tier, error) {
	switch {
	case index < p.Big.Seats:
		return p.Big, nil
	case index < p.SeatCount():
		return p.Small, nil
	default:
		return Tier{}, ErrSeatOutOfRange
	}
}

// SeatEntitlement derives a seat's lifetime entitlement from the live pool
// total: (pool * tierPercent / totalPercent) / tierSeats, truncating at each
// division. At small pool sizes this legitimately truncates to zero.
func (p Pool) SeatEntitlement(poolTotal *big.Int, index uint64) (*big.Int, error) {
	tier, err := p.TierFor(index)
	if err != nil {
		return nil, err
	}
	if poolTotal == nil || poolTotal.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	share := new(big.Int).Mul(poolTotal, new(big.Int).SetUint64(tier.Percent))
	share.Quo(share, new(big.Int).SetUint64(p.TotalPercent))
	share.Quo(share, new(big.Int).SetUint64(tier.Seats))
	return share, nil
}

// Claimable computes the outstanding amount for a seat given its derived
// entitlement and the stored cumulative withdrawn total. A withdrawn total
// above the entitlement is an accounting violation and is rejected rather
// than clamped.
func Claimable(entitlement, withdrawn *big.Int) (*big.Int, error) {
	if entitlement == nil {
		entitlement = big.NewInt(0)
	}
	if withdrawn == nil {
		withdrawn = big.NewInt(0)
	}
	if withdrawn.Cmp(entitlement) > 0 {
		return nil, ErrWithdrawnExceeds
	}
	out := new(big.Int).Sub(entitlement, withdrawn)
	if out.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	return out, nil
}

package core

import (
	"math/big"
	"strconv"

	"pyrochain/core/types"
	"pyrochain/native/boost"
	"pyrochain/observability/metrics"
)

// Burn converts value into power for the caller and cascades the increase
// up the referral tree. Normal burns are disabled while the event window is
// active; the two burn paths are mutually exclusive operating modes.
func (e *Engine) Burn(from [20]byte, value *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	g, err := e.st.Global()
	if err != nil {
		return e.abort(err)
	}
	if !g.Started {
		return e.abort(ErrNotStarted)
	}
	if g.Paused {
		return e.abort(ErrPaused)
	}
	now := e.now()
	if boost.Active(now, g.EventOverride) {
		return e.abort(ErrEventActive)
	}
	if err := e.advance(g, now); err != nil {
		return e.abort(err)
	}
	if value == nil || value.Sign() <= 0 {
		return e.abort(ErrInvalidAmount)
	}
	if value.Cmp(g.MinBurn) < 0 {
		return e.abort(ErrBelowMinBurn)
	}
	if value.Cmp(g.MaxSingleBurn) > 0 {
		return e.abort(ErrAboveMaxBurn)
	}
	user, err := e.st.User(from)
	if err != nil {
		return e.abort(err)
	}
	if user.TokenID == 0 {
		return e.abort(ErrNotBound)
	}
	balance, err := e.st.Balance(from)
	if err != nil {
		return e.abort(err)
	}
	if balance.Cmp(value) < 0 {
		return e.abort(ErrInsufficientBalance)
	}
	if err := e.st.SetBalance(from, new(big.Int).Sub(balance, value)); err != nil {
		return e.abort(err)
	}
	g.PoolBalance.Add(g.PoolBalance, value)
	g.TotalBurned.Add(g.TotalBurned, value)

	if err := e.grantWithCascade(g, from, value, g.CurrentDay); err != nil {
		return e.abort(err)
	}

	// Re-read: grantWithCascade rewrote the account with its new power.
	user, err = e.st.User(from)
	if err != nil {
		return e.abort(err)
	}
	user.BurnEligible = new(big.Int).Add(user.BurnEligible, value)
	user.BurnTotal = new(big.Int).Add(user.BurnTotal, value)
	if err := e.st.SetUser(from, user); err != nil {
		return e.abort(err)
	}
	if err := e.st.SetGlobal(g); err != nil {
		return e.abort(err)
	}

	metrics.Burns.Inc()
	e.appendEvent(types.Event{Type: eventBurn, Attributes: map[string]string{
		"from":   addrAttr(from),
		"amount": value.String(),
		"day":    strconv.FormatUint(g.CurrentDay, 10),
	}})
	return e.commit(g)
}

// EventBurnReceipt reports the accounting of a successful event burn.
type EventBurnReceipt struct {
	Multiplier *big.Int
	Required   *big.Int
	Refunded   *big.Int
	AddedPower *big.Int
}

// EventBurn is the event-window burn path: the payment is a computed
// requirement rather than a chosen amount, any excess is refunded in the
// same operation, and on success the caller's power is multiplied.
func (e *Engine) EventBurn(from [20]byte, value *big.Int) (*EventBurnReceipt, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	g, err := e.st.Global()
	if err != nil {
		return nil, e.abort(err)
	}
	if !g.Started {
		return nil, e.abort(ErrNotStarted)
	}
	if g.Paused {
		return nil, e.abort(ErrPaused)
	}
	now := e.now()
	if !boost.Active(now, g.EventOverride) {
		return nil, e.abort(ErrEventInactive)
	}
	if err := e.advance(g, now); err != nil {
		return nil, e.abort(err)
	}
	if value == nil || value.Sign() <= 0 {
		return nil, e.abort(ErrInvalidAmount)
	}
	user, err := e.st.User(from)
	if err != nil {
		return nil, e.abort(err)
	}
	if user.Power.Sign() <= 0 {
		return nil, e.abort(boost.ErrNoPower)
	}
	mult := boost.Multiplier(now, int(g.StartYear), g.EventLevel)
	flag := boost.ParticipationKey(mult)
	participated, err := e.st.Participated(flag, from)
	if err != nil {
		return nil, e.abort(err)
	}
	if participated {
		return nil, e.abort(boost.ErrAlreadyEntered)
	}

	balance, err := e.st.Balance(from)
	if err != nil {
		return nil, e.abort(err)
	}
	if balance.Cmp(value) < 0 {
		return nil, e.abort(ErrInsufficientBalance)
	}

	// The supply formula expects the balance with this call's value already
	// in: mirror that before backing the incoming value out again.
	poolWithValue := new(big.Int).Add(g.PoolBalance, value)
	circulating := boost.CirculatingSupply(poolWithValue, g.TotalClaimed, value, g.TotalBurned)
	required, err := boost.RequiredPayment(user.Power, circulating, g.TotalPower, NodeAllocationPercent)
	if err != nil {
		return nil, e.abort(err)
	}
	if value.Cmp(required) < 0 {
		return nil, e.abort(boost.ErrUnderpayment)
	}
	refund := new(big.Int).Sub(value, required)

	// Only the required amount leaves the caller; the excess refund is a
	// side channel that never touches the settlement machinery.
	if err := e.st.SetBalance(from, new(big.Int).Sub(balance, required)); err != nil {
		return nil, e.abort(err)
	}
	g.PoolBalance.Add(g.PoolBalance, required)
	g.TotalBurned.Add(g.TotalBurned, required)

	added, err := boost.AddedPower(user.Power, mult)
	if err != nil {
		return nil, e.abort(err)
	}
	if err := e.grantWithCascade(g, from, added, g.CurrentDay); err != nil {
		return nil, e.abort(err)
	}
	if err := e.st.SetParticipated(flag, from); err != nil {
		return nil, e.abort(err)
	}

	user, err = e.st.User(from)
	if err != nil {
		return nil, e.abort(err)
	}
	user.BurnEligible = new(big.Int).Add(user.BurnEligible, required)
	user.BurnTotal = new(big.Int).Add(user.BurnTotal, required)
	if err := e.st.SetUser(from, user); err != nil {
		return nil, e.abort(err)
	}
	if err := e.st.SetGlobal(g); err != nil {
		return nil, e.abort(err)
	}

	metrics.EventBurns.Inc()
	e.appendEvent(types.Event{Type: eventEventBurn, Attributes: map[string]string{
		"from":       addrAttr(from),
		"multiplier": mult.String(),
		"required":   required.String(),
		"refunded":   refund.String(),
		"added":      added.String(),
	}})
	if err := e.commit(g); err != nil {
		return nil, err
	}
	return &EventBurnReceipt{
		Multiplier: mult,
		Required:   required,
		Refunded:   refund,
		AddedPower: added,
	}, nil
}

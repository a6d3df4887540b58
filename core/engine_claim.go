package core

import (
	"math/big"
	"strconv"

	"pyrochain/core/state"
	"pyrochain/core/types"
	"pyrochain/native/settlement"
	"pyrochain/observability/metrics"
)

// settleSource adapts the state manager and power ledger to the settlement
// computation for one user.
type settleSource struct {
	e          *Engine
	userSeries string
}

func (s settleSource) DayEmission(day uint64) (*big.Int, error) {
	return s.e.st.DayEmission(day)
}

func (s settleSource) UserPowerAt(day uint64) (*big.Int, bool, error) {
	return s.e.st.Value(s.userSeries, day)
}

func (s settleSource) GlobalPowerAt(day uint64) (*big.Int, bool, error) {
	return s.e.st.Value(state.GlobalPowerSeries, day)
}

func (s settleSource) UserPowerOn(day uint64) (*big.Int, error) {
	return s.e.ledger.ValueOn(s.userSeries, day)
}

func (s settleSource) GlobalPowerOn(day uint64) (*big.Int, error) {
	return s.e.ledger.ValueOn(state.GlobalPowerSeries, day)
}

func (s settleSource) FirstUserDay() (uint64, bool, error) {
	days, err := s.e.st.Days(s.userSeries)
	if err != nil {
		return 0, false, err
	}
	if len(days) == 0 {
		return 0, false, nil
	}
	return days[0], true, nil
}

func (e *Engine) settleParams(g *state.GlobalState) settlement.Params {
	return settlement.Params{
		MaxClaimDays: g.MaxClaimDays,
		UserPercent:  UserAllocationPercent,
	}
}

// Claim settles the caller's next batch of unsettled days and pays the
// computed reward. The batch is capped at the configured maximum, so a
// large backlog resolves through repeated calls; a drained backlog returns
// an empty result rather than an error. A zero reward still advances the
// settled-day pointer.
func (e *Engine) Claim(user [20]byte) (settlement.Result, error) {
	if err := e.begin(); err != nil {
		return settlement.Result{}, err
	}
	defer e.end()

	g, err := e.st.Global()
	if err != nil {
		return settlement.Result{}, e.abort(err)
	}
	if !g.Started {
		return settlement.Result{}, e.abort(ErrNotStarted)
	}
	if g.Paused {
		return settlement.Result{}, e.abort(ErrPaused)
	}
	now := e.now()
	if err := e.advance(g, now); err != nil {
		return settlement.Result{}, e.abort(err)
	}

	account, err := e.st.User(user)
	if err != nil {
		return settlement.Result{}, e.abort(err)
	}
	src := settleSource{e: e, userSeries: state.UserSeries(user)}
	res, err := settlement.Compute(src, account.LastSettledDay, g.CurrentDay, e.settleParams(g))
	if err != nil {
		return settlement.Result{}, e.abort(err)
	}
	if !res.Settled {
		// Nothing to do; leave state untouched but keep any tick accrual.
		if err := e.st.SetGlobal(g); err != nil {
			return settlement.Result{}, e.abort(err)
		}
		return res, e.commit(g)
	}

	if res.Amount.Sign() > 0 {
		if g.PoolBalance.Cmp(res.Amount) < 0 {
			return settlement.Result{}, e.abort(ErrInsufficientPool)
		}
		g.PoolBalance.Sub(g.PoolBalance, res.Amount)
		g.TotalClaimed.Add(g.TotalClaimed, res.Amount)
		balance, err := e.st.Balance(user)
		if err != nil {
			return settlement.Result{}, e.abort(err)
		}
		if err := e.st.SetBalance(user, balance.Add(balance, res.Amount)); err != nil {
			return settlement.Result{}, e.abort(err)
		}
	}
	account.LastSettledDay = res.EndDay
	account.LastClaimTs = uint64(now.UTC().Unix())
	if err := e.st.SetUser(user, account); err != nil {
		return settlement.Result{}, e.abort(err)
	}
	if err := e.st.SetGlobal(g); err != nil {
		return settlement.Result{}, e.abort(err)
	}

	metrics.Claims.Inc()
	e.appendEvent(types.Event{Type: eventClaim, Attributes: map[string]string{
		"user":   addrAttr(user),
		"from":   strconv.FormatUint(res.StartDay, 10),
		"to":     strconv.FormatUint(res.EndDay, 10),
		"amount": res.Amount.String(),
	}})
	if err := e.commit(g); err != nil {
		return settlement.Result{}, err
	}
	return res, nil
}

// PreviewClaim mirrors Claim without mutating any state.
func (e *Engine) PreviewClaim(user [20]byte) (settlement.Result, error) {
	if err := e.begin(); err != nil {
		return settlement.Result{}, err
	}
	defer e.end()

	g, err := e.st.Global()
	if err != nil {
		return settlement.Result{}, err
	}
	account, err := e.st.User(user)
	if err != nil {
		return settlement.Result{}, err
	}
	src := settleSource{e: e, userSeries: state.UserSeries(user)}
	return settlement.Compute(src, account.LastSettledDay, e.dayAt(e.now()), e.settleParams(g))
}

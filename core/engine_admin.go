package core

import (
	"math/big"
	"strconv"

	"pyrochain/core/state"
	"pyrochain/core/types"
	"pyrochain/native/referral"
)

// SetNFTCollaborator registers the binding-token collaborator principal
// allowed to call NotifyTransfer.
func (e *Engine) SetNFTCollaborator(addr [20]byte) error {
	return e.adminMutate(func(g *state.GlobalState) error {
		g.NFTCollaborator = append([]byte(nil), addr[:]...)
		return nil
	})
}

// SetEventOverride toggles the manual event switch. The multiplier level
// increments only on the activation edge, never on deactivation, so a
// re-triggered event opens a fresh participation slot.
func (e *Engine) SetEventOverride(active bool) error {
	return e.adminMutate(func(g *state.GlobalState) error {
		if active && !g.EventOverride {
			g.EventLevel++
		}
		g.EventOverride = active
		return nil
	})
}

// SetBurnBounds adjusts the accepted normal-burn range.
func (e *Engine) SetBurnBounds(min, max *big.Int) error {
	if min == nil || min.Sign() <= 0 || max == nil || max.Cmp(min) < 0 {
		return ErrInvalidParam
	}
	return e.adminMutate(func(g *state.GlobalState) error {
		g.MinBurn = new(big.Int).Set(min)
		g.MaxSingleBurn = new(big.Int).Set(max)
		return nil
	})
}

// SetCalcWindow adjusts the forward-fill search window, bounded to (0,365].
func (e *Engine) SetCalcWindow(days uint64) error {
	if days == 0 || days > maxParamDays {
		return ErrInvalidParam
	}
	return e.adminMutate(func(g *state.GlobalState) error {
		g.CalcWindowDays = days
		e.ledger.SetWindow(days)
		return nil
	})
}

// SetMaxClaimDays adjusts the per-call settlement cap, bounded to (0,365].
func (e *Engine) SetMaxClaimDays(days uint64) error {
	if days == 0 || days > maxParamDays {
		return ErrInvalidParam
	}
	return e.adminMutate(func(g *state.GlobalState) error {
		g.MaxClaimDays = days
		return nil
	})
}

// Pause gates all state-mutating core calls.
func (e *Engine) Pause() error {
	return e.adminMutate(func(g *state.GlobalState) error {
		g.Paused = true
		return nil
	})
}

// Unpause lifts the gate.
func (e *Engine) Unpause() error {
	return e.adminMutate(func(g *state.GlobalState) error {
		g.Paused = false
		return nil
	})
}

// Start irreversibly switches the engine from bulk-import mode into normal
// operation. The emission clock begins at the current tick.
func (e *Engine) Start() error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	g, err := e.st.Global()
	if err != nil {
		return e.abort(err)
	}
	if g.Started {
		return e.abort(ErrAlreadyStarted)
	}
	now := e.now()
	g.Started = true
	g.LastTick = e.tickAt(now)
	g.CurrentDay = e.dayAt(now)
	if err := e.st.SetGlobal(g); err != nil {
		return e.abort(err)
	}
	e.appendEvent(types.Event{Type: eventStarted, Attributes: map[string]string{
		"day":  strconv.FormatUint(g.CurrentDay, 10),
		"tick": strconv.FormatUint(g.LastTick, 10),
	}})
	return e.commit(g)
}

// ImportEntry seeds one account during the bulk cold-start migration.
type ImportEntry struct {
	Addr        [20]byte
	Power       *big.Int
	BurnTotal   *big.Int
	TokenID     uint64
	Upline1     []byte
	Upline2     []byte
	Distributed *big.Int
}

// BulkImport loads migrated accounts while the engine is still in import
// mode. Distributed amounts are tracked on a separate counter and never
// flow through the settlement pointer machinery.
func (e *Engine) BulkImport(entries []ImportEntry) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	g, err := e.st.Global()
	if err != nil {
		return e.abort(err)
	}
	if g.Started {
		return e.abort(ErrImportClosed)
	}
	day := e.dayAt(e.now())
	g.CurrentDay = day
	for _, entry := range entries {
		account, err := e.st.User(entry.Addr)
		if err != nil {
			return e.abort(err)
		}
		if entry.Power != nil && entry.Power.Sign() > 0 {
			account.Power = new(big.Int).Add(account.Power, entry.Power)
			g.TotalPower.Add(g.TotalPower, entry.Power)
		}
		if entry.BurnTotal != nil && entry.BurnTotal.Sign() > 0 {
			account.BurnTotal = new(big.Int).Add(account.BurnTotal, entry.BurnTotal)
			account.BurnEligible = new(big.Int).Add(account.BurnEligible, entry.BurnTotal)
			g.TotalBurned.Add(g.TotalBurned, entry.BurnTotal)
		}
		if len(entry.Upline1) == 20 {
			account.Upline1 = append([]byte(nil), entry.Upline1...)
		}
		if len(entry.Upline2) == 20 {
			account.Upline2 = append([]byte(nil), entry.Upline2...)
		}
		if entry.TokenID != 0 {
			if _, bound, err := e.st.Binding(entry.TokenID); err != nil {
				return e.abort(err)
			} else if bound {
				return e.abort(ErrTokenUsed)
			}
			account.TokenID = entry.TokenID
			if err := e.st.SetBinding(entry.TokenID, entry.Addr); err != nil {
				return e.abort(err)
			}
			holdings, err := e.st.Holdings(entry.Addr)
			if err != nil {
				return e.abort(err)
			}
			if err := e.st.SetHoldings(entry.Addr, append(holdings, entry.TokenID)); err != nil {
				return e.abort(err)
			}
		}
		if err := e.st.SetUser(entry.Addr, account); err != nil {
			return e.abort(err)
		}
		if account.Power.Sign() > 0 {
			if err := e.ledger.Record(state.UserSeries(entry.Addr), day, account.Power); err != nil {
				return e.abort(err)
			}
		}
		if entry.Distributed != nil && entry.Distributed.Sign() > 0 {
			g.DistributedCoins.Add(g.DistributedCoins, entry.Distributed)
		}
	}
	if g.TotalPower.Sign() > 0 {
		if err := e.ledger.Record(state.GlobalPowerSeries, day, g.TotalPower); err != nil {
			return e.abort(err)
		}
	}
	if err := e.st.SetGlobal(g); err != nil {
		return e.abort(err)
	}
	return e.commit(g)
}

// Deposit credits a principal's native balance. Genesis and ops tooling
// only; burns and event burns spend from this balance.
func (e *Engine) Deposit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	balance, err := e.st.Balance(addr)
	if err != nil {
		return e.abort(err)
	}
	if err := e.st.SetBalance(addr, balance.Add(balance, amount)); err != nil {
		return e.abort(err)
	}
	return e.commit(nil)
}

// EstablishRelation is the operator fast path for migrating referral links
// outside the NFT-transfer flow. Same one-shot semantics as the callback.
func (e *Engine) EstablishRelation(from, to [20]byte) (bool, error) {
	if err := e.begin(); err != nil {
		return false, err
	}
	defer e.end()
	established, err := referral.Establish(treeState{st: e.st}, from, to)
	if err != nil {
		return false, e.abort(err)
	}
	if established {
		e.appendEvent(types.Event{Type: eventReferral, Attributes: map[string]string{
			"upline": addrAttr(from),
			"user":   addrAttr(to),
		}})
	}
	return established, e.commit(nil)
}

func (e *Engine) adminMutate(mutate func(*state.GlobalState) error) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	g, err := e.st.Global()
	if err != nil {
		return e.abort(err)
	}
	if err := mutate(g); err != nil {
		return e.abort(err)
	}
	if err := e.st.SetGlobal(g); err != nil {
		return e.abort(err)
	}
	return e.commit(g)
}

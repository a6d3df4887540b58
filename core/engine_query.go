package core

import (
	"math/big"

	"pyrochain/core/state"
	"pyrochain/native/referral"
)

// GlobalInfo is the query view of the engine singleton.
type GlobalInfo struct {
	TotalPower       *big.Int
	TotalBurned      *big.Int
	TotalClaimed     *big.Int
	CurrentDay       uint64
	LastTick         uint64
	Started          bool
	Paused           bool
	EventActive      bool
	EventLevel       uint64
	NodePoolTotal    *big.Int
	PoolBalance      *big.Int
	DistributedCoins *big.Int
	MinBurn          *big.Int
	MaxSingleBurn    *big.Int
	CalcWindowDays   uint64
	MaxClaimDays     uint64
}

// UserInfo is the full per-principal snapshot.
type UserInfo struct {
	Power          *big.Int
	BurnEligible   *big.Int
	BurnTotal      *big.Int
	Balance        *big.Int
	LastClaimTs    uint64
	LastSettledDay uint64
	TokenID        uint64
	Upline1        []byte
	Upline2        []byte
}

// Global returns the engine-wide snapshot.
func (e *Engine) Global() (*GlobalInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.st.Global()
	if err != nil {
		return nil, err
	}
	return &GlobalInfo{
		TotalPower:       g.TotalPower,
		TotalBurned:      g.TotalBurned,
		TotalClaimed:     g.TotalClaimed,
		CurrentDay:       g.CurrentDay,
		LastTick:         g.LastTick,
		Started:          g.Started,
		Paused:           g.Paused,
		EventActive:      g.EventOverride,
		EventLevel:       g.EventLevel,
		NodePoolTotal:    g.NodePoolTotal,
		PoolBalance:      g.PoolBalance,
		DistributedCoins: g.DistributedCoins,
		MinBurn:          g.MinBurn,
		MaxSingleBurn:    g.MaxSingleBurn,
		CalcWindowDays:   g.CalcWindowDays,
		MaxClaimDays:     g.MaxClaimDays,
	}, nil
}

// UserInfo returns the full account snapshot, including the bank balance.
func (e *Engine) UserInfo(addr [20]byte) (*UserInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	account, err := e.st.User(addr)
	if err != nil {
		return nil, err
	}
	balance, err := e.st.Balance(addr)
	if err != nil {
		return nil, err
	}
	return &UserInfo{
		Power:          account.Power,
		BurnEligible:   account.BurnEligible,
		BurnTotal:      account.BurnTotal,
		Balance:        balance,
		LastClaimTs:    account.LastClaimTs,
		LastSettledDay: account.LastSettledDay,
		TokenID:        account.TokenID,
		Upline1:        account.Upline1,
		Upline2:        account.Upline2,
	}, nil
}

// PowerOnDay resolves a principal's power effective on a day, forward-fill.
func (e *Engine) PowerOnDay(addr [20]byte, day uint64) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ValueOn(state.UserSeries(addr), day)
}

// TotalPowerOnDay resolves the global entitlement effective on a day.
func (e *Engine) TotalPowerOnDay(day uint64) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ValueOn(state.GlobalPowerSeries, day)
}

// PowerHistory returns the principal's full sparse series as parallel day
// and value slices.
func (e *Engine) PowerHistory(addr [20]byte) ([]uint64, []*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.History(state.UserSeries(addr))
}

// Relation returns the principal's upline references.
func (e *Engine) Relation(addr [20]byte) (referral.Relation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	account, err := e.st.User(addr)
	if err != nil {
		return referral.Relation{}, err
	}
	return relationOf(account), nil
}

// Balance returns a principal's native balance.
func (e *Engine) Balance(addr [20]byte) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Balance(addr)
}

package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"pyrochain/core"
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type GlobalResult struct {
	TotalPower       *big.Int `json:"totalPower"`
	TotalBurned      *big.Int `json:"totalBurned"`
	TotalClaimed     *big.Int `json:"totalClaimed"`
	CurrentDay       uint64   `json:"currentDay"`
	LastTick         uint64   `json:"lastTick"`
	Started          bool     `json:"started"`
	Paused           bool     `json:"paused"`
	EventActive      bool     `json:"eventActive"`
	EventLevel       uint64   `json:"eventLevel"`
	NodePoolTotal    *big.Int `json:"nodePoolTotal"`
	PoolBalance      *big.Int `json:"poolBalance"`
	DistributedCoins *big.Int `json:"distributedCoins"`
	MinBurn          *big.Int `json:"minBurn"`
	MaxSingleBurn    *big.Int `json:"maxSingleBurn"`
	CalcWindowDays   uint64   `json:"calcWindowDays"`
	MaxClaimDays     uint64   `json:"maxClaimDays"`
}

type UserResult struct {
	Address        string   `json:"address"`
	Power          *big.Int `json:"power"`
	BurnEligible   *big.Int `json:"burnEligible"`
	BurnTotal      *big.Int `json:"burnTotal"`
	Balance        *big.Int `json:"balance"`
	LastClaimTs    uint64   `json:"lastClaimTs"`
	LastSettledDay uint64   `json:"lastSettledDay"`
	TokenID        uint64   `json:"tokenId"`
	Upline1        string   `json:"upline1,omitempty"`
	Upline2        string   `json:"upline2,omitempty"`
}

type ClaimResult struct {
	StartDay uint64   `json:"startDay"`
	EndDay   uint64   `json:"endDay"`
	Amount   *big.Int `json:"amount"`
	Settled  bool     `json:"settled"`
}

type EventBurnResult struct {
	Multiplier *big.Int `json:"multiplier"`
	Required   *big.Int `json:"required"`
	Refunded   *big.Int `json:"refunded"`
	AddedPower *big.Int `json:"addedPower"`
}

type PowerHistoryResult struct {
	Days   []uint64   `json:"days"`
	Values []*big.Int `json:"values"`
}

type RelationResult struct {
	Upline1 string `json:"upline1,omitempty"`
	Upline2 string `json:"upline2,omitempty"`
}

type NodeSeatResult struct {
	Index       uint64   `json:"index"`
	Address     string   `json:"address,omitempty"`
	Entitlement *big.Int `json:"entitlement"`
	Withdrawn   *big.Int `json:"withdrawn"`
	Claimable   *big.Int `json:"claimable"`
}

type EventResult struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

type ImportEntryParam struct {
	Address     string `json:"address"`
	Power       string `json:"power,omitempty"`
	BurnTotal   string `json:"burnTotal,omitempty"`
	TokenID     uint64 `json:"tokenId,omitempty"`
	Upline1     string `json:"upline1,omitempty"`
	Upline2     string `json:"upline2,omitempty"`
	Distributed string `json:"distributed,omitempty"`
}

func parseAddress(raw string) ([20]byte, error) {
	var out [20]byte
	if !common.IsHexAddress(raw) {
		return out, fmt.Errorf("invalid address %q", raw)
	}
	copy(out[:], common.HexToAddress(raw).Bytes())
	return out, nil
}

func formatAddress(addr []byte) string {
	if len(addr) != 20 {
		return ""
	}
	return common.BytesToAddress(addr).Hex()
}

func parseAmount(raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return value, nil
}

func globalResult(g *core.GlobalInfo) *GlobalResult {
	return &GlobalResult{
		TotalPower:       g.TotalPower,
		TotalBurned:      g.TotalBurned,
		TotalClaimed:     g.TotalClaimed,
		CurrentDay:       g.CurrentDay,
		LastTick:         g.LastTick,
		Started:          g.Started,
		Paused:           g.Paused,
		EventActive:      g.EventActive,
		EventLevel:       g.EventLevel,
		NodePoolTotal:    g.NodePoolTotal,
		PoolBalance:      g.PoolBalance,
		DistributedCoins: g.DistributedCoins,
		MinBurn:          g.MinBurn,
		MaxSingleBurn:    g.MaxSingleBurn,
		CalcWindowDays:   g.CalcWindowDays,
		MaxClaimDays:     g.MaxClaimDays,
	}
}

func userResult(addr string, info *core.UserInfo) *UserResult {
	return &UserResult{
		Address:        addr,
		Power:          info.Power,
		BurnEligible:   info.BurnEligible,
		BurnTotal:      info.BurnTotal,
		Balance:        info.Balance,
		LastClaimTs:    info.LastClaimTs,
		LastSettledDay: info.LastSettledDay,
		TokenID:        info.TokenID,
		Upline1:        formatAddress(info.Upline1),
		Upline2:        formatAddress(info.Upline2),
	}
}

package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"

	"pyrochain/core"
)

func decodeParam(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) == 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "parameter object required", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return false
	}
	return true
}

func decodeAddressField(w http.ResponseWriter, req *RPCRequest, raw string) ([20]byte, bool) {
	addr, err := parseAddress(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return addr, false
	}
	return addr, true
}

func (s *Server) handleTick(w http.ResponseWriter, req *RPCRequest) {
	if err := s.engine.Tick(); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleBurn(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
		Amount  string `json:"amount"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Burn(addr, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleEventBurn(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
		Value   string `json:"value"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	receipt, err := s.engine.EventBurn(addr, value)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &EventBurnResult{
		Multiplier: receipt.Multiplier,
		Required:   receipt.Required,
		Refunded:   receipt.Refunded,
		AddedPower: receipt.AddedPower,
	})
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	res, err := s.engine.Claim(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &ClaimResult{
		StartDay: res.StartDay,
		EndDay:   res.EndDay,
		Amount:   res.Amount,
		Settled:  res.Settled,
	})
}

func (s *Server) handlePreviewClaim(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	res, err := s.engine.PreviewClaim(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &ClaimResult{
		StartDay: res.StartDay,
		EndDay:   res.EndDay,
		Amount:   res.Amount,
		Settled:  res.Settled,
	})
}

func (s *Server) handleBindToken(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
		TokenID uint64 `json:"tokenId"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	if err := s.engine.BindToken(addr, params.TokenID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleNodeClaim(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
		Seat    uint64 `json:"seat"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	paid, err := s.engine.ClaimNode(addr, params.Seat)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, paid)
}

func (s *Server) handleGetGlobal(w http.ResponseWriter, req *RPCRequest) {
	g, err := s.engine.Global()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, globalResult(g))
}

func (s *Server) handleGetUser(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	info, err := s.engine.UserInfo(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, userResult(formatAddress(addr[:]), info))
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	balance, err := s.engine.Balance(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balance)
}

func (s *Server) handleGetPowerOn(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
		Day     uint64 `json:"day"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	value, err := s.engine.PowerOnDay(addr, params.Day)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, value)
}

func (s *Server) handleGetTotalPowerOn(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Day uint64 `json:"day"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	value, err := s.engine.TotalPowerOnDay(params.Day)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, value)
}

func (s *Server) handleGetPowerHistory(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	days, values, err := s.engine.PowerHistory(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &PowerHistoryResult{Days: days, Values: values})
}

func (s *Server) handleGetRelation(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	rel, err := s.engine.Relation(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := &RelationResult{}
	if rel.HasUpline1 {
		result.Upline1 = formatAddress(rel.Upline1[:])
	}
	if rel.HasUpline2 {
		result.Upline2 = formatAddress(rel.Upline2[:])
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetNodeSeat(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Seat uint64 `json:"seat"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	seat, err := s.engine.NodeSeat(params.Seat)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &NodeSeatResult{
		Index:       seat.Index,
		Address:     formatAddress(seat.Addr),
		Entitlement: seat.Entitlement,
		Withdrawn:   seat.Withdrawn,
		Claimable:   seat.Claimable,
	})
}

func (s *Server) handleGetHoldings(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
		Offset  uint64 `json:"offset"`
		Limit   uint64 `json:"limit"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	tokens, err := s.engine.Holdings(addr, params.Offset, params.Limit)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tokens)
}

func (s *Server) handleIsTokenUsed(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		TokenID uint64 `json:"tokenId"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	used, err := s.engine.IsTokenUsed(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, used)
}

func (s *Server) handleGetEvents(w http.ResponseWriter, req *RPCRequest) {
	events := s.engine.Events()
	results := make([]EventResult, 0, len(events))
	for _, evt := range events {
		results = append(results, EventResult{Type: evt.Type, Attributes: evt.Attributes})
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleNotifyTransfer(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Caller  string `json:"caller"`
		From    string `json:"from"`
		To      string `json:"to"`
		TokenID uint64 `json:"tokenId"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, params.Caller)
	if !ok {
		return
	}
	from, ok := decodeAddressField(w, req, params.From)
	if !ok {
		return
	}
	to, ok := decodeAddressField(w, req, params.To)
	if !ok {
		return
	}
	if err := s.engine.NotifyTransfer(caller, from, to, params.TokenID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminStart(w http.ResponseWriter, req *RPCRequest) {
	if err := s.engine.Start(); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminPause(w http.ResponseWriter, req *RPCRequest) {
	if err := s.engine.Pause(); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminUnpause(w http.ResponseWriter, req *RPCRequest) {
	if err := s.engine.Unpause(); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminSetCollaborator(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	if err := s.engine.SetNFTCollaborator(addr); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminSetEventOverride(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Active bool `json:"active"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	if err := s.engine.SetEventOverride(params.Active); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminSetBurnBounds(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Min string `json:"min"`
		Max string `json:"max"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	min, err := parseAmount(params.Min)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	max, err := parseAmount(params.Max)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.SetBurnBounds(min, max); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminSetCalcWindow(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Days uint64 `json:"days"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	if err := s.engine.SetCalcWindow(params.Days); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminSetMaxClaimDays(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Days uint64 `json:"days"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	if err := s.engine.SetMaxClaimDays(params.Days); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminSetNodeSeat(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Seat    uint64 `json:"seat"`
		Address string `json:"address"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	if err := s.engine.SetNodeSeatAddress(params.Seat, addr); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
		Amount  string `json:"amount"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, params.Address)
	if !ok {
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Deposit(addr, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAdminEstablishRelation(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	from, ok := decodeAddressField(w, req, params.From)
	if !ok {
		return
	}
	to, ok := decodeAddressField(w, req, params.To)
	if !ok {
		return
	}
	established, err := s.engine.EstablishRelation(from, to)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, established)
}

func (s *Server) handleAdminBulkImport(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Entries []ImportEntryParam `json:"entries"`
	}
	if !decodeParam(w, req, &params) {
		return
	}
	entries := make([]core.ImportEntry, 0, len(params.Entries))
	for _, raw := range params.Entries {
		addr, ok := decodeAddressField(w, req, raw.Address)
		if !ok {
			return
		}
		entry := core.ImportEntry{Addr: addr, TokenID: raw.TokenID}
		var err error
		if entry.Power, err = optionalAmount(raw.Power); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		if entry.BurnTotal, err = optionalAmount(raw.BurnTotal); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		if entry.Distributed, err = optionalAmount(raw.Distributed); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		if raw.Upline1 != "" {
			upline, ok := decodeAddressField(w, req, raw.Upline1)
			if !ok {
				return
			}
			entry.Upline1 = upline[:]
		}
		if raw.Upline2 != "" {
			upline, ok := decodeAddressField(w, req, raw.Upline2)
			if !ok {
				return
			}
			entry.Upline2 = upline[:]
		}
		entries = append(entries, entry)
	}
	if err := s.engine.BulkImport(entries); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, len(entries))
}

func optionalAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, nil
	}
	return parseAmount(raw)
}

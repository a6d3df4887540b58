package core

import (
	"bytes"
	"math/big"
	"strconv"

	"pyrochain/core/types"
	"pyrochain/native/nodepool"
	"pyrochain/observability/metrics"
)

// NodeSeatInfo is the query view of one seat.
type NodeSeatInfo struct {
	Index       uint64
	Addr        []byte
	Entitlement *big.Int
	Withdrawn   *big.Int
	Claimable   *big.Int
}

// SetNodeSeatAddress registers or replaces the withdrawal address for a
// seat. Seat addresses are the one mutable piece of seat state.
func (e *Engine) SetNodeSeatAddress(index uint64, addr [20]byte) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	if _, err := e.cfg.Pool.TierFor(index); err != nil {
		return e.abort(err)
	}
	seat, err := e.st.Seat(index)
	if err != nil {
		return e.abort(err)
	}
	seat.Addr = append([]byte(nil), addr[:]...)
	if err := e.st.SetSeat(index, seat); err != nil {
		return e.abort(err)
	}
	return e.commit(nil)
}

// ClaimNode pays the outstanding share of the node pool to a seat's
// registered withdrawal address. The entitlement is derived from the live
// pool total on every call; the stored withdrawn total is overwritten with
// the fresh entitlement, not incremented, because the entitlement itself
// moves between calls.
func (e *Engine) ClaimNode(caller [20]byte, index uint64) (*big.Int, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	g, err := e.st.Global()
	if err != nil {
		return nil, e.abort(err)
	}
	if g.Paused {
		return nil, e.abort(ErrPaused)
	}
	seat, err := e.st.Seat(index)
	if err != nil {
		return nil, e.abort(err)
	}
	if len(seat.Addr) != 20 {
		return nil, e.abort(nodepool.ErrSeatAddressUnset)
	}
	if !bytes.Equal(seat.Addr, caller[:]) {
		return nil, e.abort(nodepool.ErrUnauthorizedAddr)
	}
	entitlement, err := e.cfg.Pool.SeatEntitlement(g.NodePoolTotal, index)
	if err != nil {
		return nil, e.abort(err)
	}
	claimable, err := nodepool.Claimable(entitlement, seat.Withdrawn)
	if err != nil {
		return nil, e.abort(err)
	}
	if g.PoolBalance.Cmp(claimable) < 0 {
		return nil, e.abort(ErrInsufficientPool)
	}
	g.PoolBalance.Sub(g.PoolBalance, claimable)
	balance, err := e.st.Balance(caller)
	if err != nil {
		return nil, e.abort(err)
	}
	if err := e.st.SetBalance(caller, balance.Add(balance, claimable)); err != nil {
		return nil, e.abort(err)
	}
	seat.Withdrawn = entitlement
	if err := e.st.SetSeat(index, seat); err != nil {
		return nil, e.abort(err)
	}
	if err := e.st.SetGlobal(g); err != nil {
		return nil, e.abort(err)
	}

	metrics.NodeClaims.Inc()
	e.appendEvent(types.Event{Type: eventNodeClaim, Attributes: map[string]string{
		"seat":   strconv.FormatUint(index, 10),
		"to":     addrAttr(caller),
		"amount": claimable.String(),
	}})
	if err := e.commit(g); err != nil {
		return nil, err
	}
	return claimable, nil
}

// NodeSeat returns the seat record together with its derived entitlement
// and currently claimable amount.
func (e *Engine) NodeSeat(index uint64) (*NodeSeatInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.st.Global()
	if err != nil {
		return nil, err
	}
	seat, err := e.st.Seat(index)
	if err != nil {
		return nil, err
	}
	entitlement, err := e.cfg.Pool.SeatEntitlement(g.NodePoolTotal, index)
	if err != nil {
		return nil, err
	}
	claimable := new(big.Int).Sub(entitlement, seat.Withdrawn)
	if claimable.Sign() < 0 {
		claimable = big.NewInt(0)
	}
	return &NodeSeatInfo{
		Index:       index,
		Addr:        append([]byte(nil), seat.Addr...),
		Entitlement: entitlement,
		Withdrawn:   seat.Withdrawn,
		Claimable:   claimable,
	}, nil
}

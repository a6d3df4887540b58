package core

import (
	"bytes"
	"strconv"

	"pyrochain/core/types"
	"pyrochain/native/referral"
)

var zeroAddr [20]byte

// NotifyTransfer is the inbound callback from the binding-token
// collaborator. It maintains the engine's ownership index and, when the
// receiver has no upline yet, establishes the referral relation. Transfers
// of an already-bound token are rejected; IsTokenUsed lets the collaborator
// block them before calling.
func (e *Engine) NotifyTransfer(caller, from, to [20]byte, tokenID uint64) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	g, err := e.st.Global()
	if err != nil {
		return e.abort(err)
	}
	if len(g.NFTCollaborator) != 20 {
		return e.abort(ErrCollaboratorUnset)
	}
	if !bytes.Equal(caller[:], g.NFTCollaborator) {
		return e.abort(ErrUnauthorized)
	}
	if tokenID == 0 {
		return e.abort(ErrZeroToken)
	}
	if _, bound, err := e.st.Binding(tokenID); err != nil {
		return e.abort(err)
	} else if bound {
		return e.abort(ErrTokenUsed)
	}

	if from != zeroAddr {
		holdings, err := e.st.Holdings(from)
		if err != nil {
			return e.abort(err)
		}
		kept := holdings[:0]
		for _, id := range holdings {
			if id != tokenID {
				kept = append(kept, id)
			}
		}
		if err := e.st.SetHoldings(from, kept); err != nil {
			return e.abort(err)
		}
	}
	if to != zeroAddr {
		holdings, err := e.st.Holdings(to)
		if err != nil {
			return e.abort(err)
		}
		if err := e.st.SetHoldings(to, append(holdings, tokenID)); err != nil {
			return e.abort(err)
		}
	}

	established := false
	if to != zeroAddr {
		established, err = referral.Establish(treeState{st: e.st}, from, to)
		if err != nil {
			return e.abort(err)
		}
	}
	if established {
		e.appendEvent(types.Event{Type: eventReferral, Attributes: map[string]string{
			"upline": addrAttr(from),
			"user":   addrAttr(to),
		}})
	}
	e.appendEvent(types.Event{Type: eventNFTTransfer, Attributes: map[string]string{
		"from":  addrAttr(from),
		"to":    addrAttr(to),
		"token": strconv.FormatUint(tokenID, 10),
	}})
	return e.commit(nil)
}

// BindToken associates a held token with the caller. The binding is 1:1,
// established at most once per token and per user, and never cleared; a
// bound token is what the collaborator treats as transfer-frozen.
func (e *Engine) BindToken(user [20]byte, tokenID uint64) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	g, err := e.st.Global()
	if err != nil {
		return e.abort(err)
	}
	if g.Paused {
		return e.abort(ErrPaused)
	}
	if tokenID == 0 {
		return e.abort(ErrZeroToken)
	}
	account, err := e.st.User(user)
	if err != nil {
		return e.abort(err)
	}
	if account.TokenID != 0 {
		return e.abort(ErrAlreadyBound)
	}
	if _, bound, err := e.st.Binding(tokenID); err != nil {
		return e.abort(err)
	} else if bound {
		return e.abort(ErrTokenUsed)
	}
	holdings, err := e.st.Holdings(user)
	if err != nil {
		return e.abort(err)
	}
	held := false
	for _, id := range holdings {
		if id == tokenID {
			held = true
			break
		}
	}
	if !held {
		return e.abort(ErrTokenNotHeld)
	}
	account.TokenID = tokenID
	if err := e.st.SetUser(user, account); err != nil {
		return e.abort(err)
	}
	if err := e.st.SetBinding(tokenID, user); err != nil {
		return e.abort(err)
	}
	e.appendEvent(types.Event{Type: eventBind, Attributes: map[string]string{
		"user":  addrAttr(user),
		"token": strconv.FormatUint(tokenID, 10),
	}})
	return e.commit(nil)
}

// IsTokenUsed reports whether a token has ever been bound.
func (e *Engine) IsTokenUsed(tokenID uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, bound, err := e.st.Binding(tokenID)
	return bound, err
}

// Holdings returns a page of the token ids a principal currently owns.
// limit zero means "the rest".
func (e *Engine) Holdings(addr [20]byte, offset, limit uint64) ([]uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tokens, err := e.st.Holdings(addr)
	if err != nil {
		return nil, err
	}
	if offset >= uint64(len(tokens)) {
		return []uint64{}, nil
	}
	page := tokens[offset:]
	if limit > 0 && limit < uint64(len(page)) {
		page = page[:limit]
	}
	return append([]uint64(nil), page...), nil
}

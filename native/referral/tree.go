package referral

import (
	"math/big"
)

const (
	// Level1Percent is the share of an entitlement increase granted to the
	// direct upline.
	Level1Percent = 50
	// Level2Percent is the share granted to the second-level upline.
	Level2Percent = 25
)

var zeroAddr [20]byte

// Relation captures a user's two upline references. Each reference is set at
// most once and never overwritten, so the forest is append-only with no
// re-parenting.
type Relation struct {
	Upline1    [20]byte
	Upline2    [20]byte
	HasUpline1 bool
	HasUpline2 bool
}

// TreeState is the persistence the referral tree needs.
type TreeState interface {
	Relation(addr [20]byte) (Relation, error)
	SetRelation(addr [20]byte, rel Relation) error
}

// Establish links to under from, inheriting from's own direct upline as the
// second level. The write-once contract is enforced here at the mutation
// boundary: a principal that already has a direct upline keeps it, and the
// call reports false without touching state. Self-links and null senders are
// likewise no-ops.
func Establish(st TreeState, from, to [20]byte) (bool, error) {
	if from == zeroAddr || from == to {
		return false, nil
	}
	rel, err := st.Relation(to)
	if err != nil {
		return false, err
	}
	if rel.HasUpline1 {
		return false, nil
	}
	rel.Upline1 = from
	rel.HasUpline1 = true
	fromRel, err := st.Relation(from)
	if err != nil {
		return false, err
	}
	if fromRel.HasUpline1 {
		rel.Upline2 = fromRel.Upline1
		rel.HasUpline2 = true
	}
	if err := st.SetRelation(to, rel); err != nil {
		return false, err
	}
	return true, nil
}

// Share is one upline grant produced by a cascade.
type Share struct {
	Addr   [20]byte
	Amount *big.Int
}

// Shares computes the upline grants for an entitlement increase: 50% to the
// direct upline and 25% to the second level, each truncated. Propagation
// depth is exactly two levels; the grants themselves never cascade further.
func Shares(rel Relation, added *big.Int) []Share {
	if added == nil || added.Sign() <= 0 {
		return nil
	}
	shares := make([]Share, 0, 2)
	if rel.HasUpline1 {
		amount := new(big.Int).Mul(added, big.NewInt(Level1Percent))
		amount.Quo(amount, big.NewInt(100))
		if amount.Sign() > 0 {
			shares = append(shares, Share{Addr: rel.Upline1, Amount: amount})
		}
	}
	if rel.HasUpline2 {
		amount := new(big.Int).Mul(added, big.NewInt(Level2Percent))
		amount.Quo(amount, big.NewInt(100))
		if amount.Sign() > 0 {
			shares = append(shares, Share{Addr: rel.Upline2, Amount: amount})
		}
	}
	return shares
}

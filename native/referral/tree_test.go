package referral

import (
	"math/big"
	"testing"
)

type memTree map[[20]byte]Relation

func (m memTree) Relation(addr [20]byte) (Relation, error) {
	return m[addr], nil
}

func (m memTree) SetRelation(addr [20]byte, rel Relation) error {
	m[addr] = rel
	return nil
}

func addr(index byte) [20]byte {
	var out [20]byte
	out[19] = index
	return out
}

func TestEstablishInheritsSecondLevel(t *testing.T) {
	tree := memTree{}
	if ok, err := Establish(tree, addr(1), addr(2)); err != nil || !ok {
		t.Fatalf("establish 1->2: ok=%v err=%v", ok, err)
	}
	if ok, err := Establish(tree, addr(2), addr(3)); err != nil || !ok {
		t.Fatalf("establish 2->3: ok=%v err=%v", ok, err)
	}
	rel := tree[addr(3)]
	if !rel.HasUpline1 || rel.Upline1 != addr(2) {
		t.Fatalf("upline1 of 3 must be 2, got %v", rel)
	}
	if !rel.HasUpline2 || rel.Upline2 != addr(1) {
		t.Fatalf("upline2 of 3 must be 1, got %v", rel)
	}
}

func TestEstablishIsOneShot(t *testing.T) {
	tree := memTree{}
	if ok, _ := Establish(tree, addr(1), addr(2)); !ok {
		t.Fatalf("first establish must succeed")
	}
	if ok, err := Establish(tree, addr(9), addr(2)); err != nil || ok {
		t.Fatalf("second establish must be a no-op: ok=%v err=%v", ok, err)
	}
	if rel := tree[addr(2)]; rel.Upline1 != addr(1) {
		t.Fatalf("relation must be permanent, got %v", rel)
	}
}

func TestEstablishRejectsSelfAndNull(t *testing.T) {
	tree := memTree{}
	if ok, _ := Establish(tree, addr(2), addr(2)); ok {
		t.Fatalf("self-link must be a no-op")
	}
	var null [20]byte
	if ok, _ := Establish(tree, null, addr(2)); ok {
		t.Fatalf("null sender must be a no-op")
	}
	if rel := tree[addr(2)]; rel.HasUpline1 {
		t.Fatalf("no relation should have been written, got %v", rel)
	}
}

func TestSharesTwoLevels(t *testing.T) {
	rel := Relation{
		Upline1: addr(1), HasUpline1: true,
		Upline2: addr(2), HasUpline2: true,
	}
	shares := Shares(rel, big.NewInt(100))
	if len(shares) != 2 {
		t.Fatalf("want 2 shares, got %d", len(shares))
	}
	if shares[0].Addr != addr(1) || shares[0].Amount.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("level 1 share wrong: %v %s", shares[0].Addr, shares[0].Amount)
	}
	if shares[1].Addr != addr(2) || shares[1].Amount.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("level 2 share wrong: %v %s", shares[1].Addr, shares[1].Amount)
	}
}

func TestSharesTruncate(t *testing.T) {
	rel := Relation{Upline1: addr(1), HasUpline1: true}
	shares := Shares(rel, big.NewInt(3))
	if len(shares) != 1 || shares[0].Amount.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("3*50%% must truncate to 1, got %v", shares)
	}
	if got := Shares(rel, big.NewInt(1)); len(got) != 0 {
		t.Fatalf("zero-valued share must be dropped, got %v", got)
	}
	if got := Shares(rel, nil); got != nil {
		t.Fatalf("nil added power must yield no shares")
	}
}

func TestSharesWithoutUplines(t *testing.T) {
	if got := Shares(Relation{}, big.NewInt(100)); len(got) != 0 {
		t.Fatalf("no uplines must yield no shares, got %v", got)
	}
}

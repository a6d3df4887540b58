package core

import (
	"bytes"
	"math/big"
	"testing"
)

// Two-level chain: alice referred bob, bob referred carol. Carol's burn
// must credit bob half and alice a quarter, leaving carol's own grant
// untouched.
func TestBurnCascadesTwoLevels(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	alice, bob, carol := addr(1), addr(2), addr(3)
	bindUser(t, e, carol, 3, 1000)

	if ok, err := e.EstablishRelation(alice, bob); err != nil || !ok {
		t.Fatalf("alice->bob: ok=%v err=%v", ok, err)
	}
	if ok, err := e.EstablishRelation(bob, carol); err != nil || !ok {
		t.Fatalf("bob->carol: ok=%v err=%v", ok, err)
	}
	rel, err := e.Relation(carol)
	if err != nil {
		t.Fatalf("relation: %v", err)
	}
	if !rel.HasUpline1 || !bytes.Equal(rel.Upline1[:], bob[:]) {
		t.Fatalf("carol upline1: %+v", rel)
	}
	if !rel.HasUpline2 || !bytes.Equal(rel.Upline2[:], alice[:]) {
		t.Fatalf("carol upline2: %+v", rel)
	}

	if err := e.Burn(carol, big.NewInt(100)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	carolInfo, _ := e.UserInfo(carol)
	bobInfo, _ := e.UserInfo(bob)
	aliceInfo, _ := e.UserInfo(alice)
	if carolInfo.Power.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("carol power: %s", carolInfo.Power)
	}
	if bobInfo.Power.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("bob power: %s", bobInfo.Power)
	}
	if aliceInfo.Power.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("alice power: %s", aliceInfo.Power)
	}
	g, _ := e.Global()
	if g.TotalPower.Cmp(big.NewInt(175)) != 0 {
		t.Fatalf("total power: %s", g.TotalPower)
	}
	// Cascade shares never touch the uplines' burn counters.
	if bobInfo.BurnTotal.Sign() != 0 || aliceInfo.BurnTotal.Sign() != 0 {
		t.Fatalf("cascade touched burn counters: %s %s", bobInfo.BurnTotal, aliceInfo.BurnTotal)
	}
}

// A burn by the upline must not move the downline.
func TestCascadeNeverFlowsDown(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	alice, bob := addr(1), addr(2)
	bindUser(t, e, alice, 1, 1000)
	bindUser(t, e, bob, 2, 1000)
	if ok, err := e.EstablishRelation(alice, bob); err != nil || !ok {
		t.Fatalf("establish: ok=%v err=%v", ok, err)
	}
	if err := e.Burn(alice, big.NewInt(100)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	bobInfo, _ := e.UserInfo(bob)
	if bobInfo.Power.Sign() != 0 {
		t.Fatalf("downline gained power: %s", bobInfo.Power)
	}
}

func TestEstablishRelationIsOneShot(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	alice, bob, mallory := addr(1), addr(2), addr(3)
	if ok, err := e.EstablishRelation(alice, bob); err != nil || !ok {
		t.Fatalf("first establish: ok=%v err=%v", ok, err)
	}
	ok, err := e.EstablishRelation(mallory, bob)
	if err != nil {
		t.Fatalf("second establish: %v", err)
	}
	if ok {
		t.Fatalf("relation must not be replaced")
	}
	rel, _ := e.Relation(bob)
	if !bytes.Equal(rel.Upline1[:], alice[:]) {
		t.Fatalf("upline replaced: %+v", rel)
	}
}

func TestCascadeSharesTruncate(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	alice, bob := addr(1), addr(2)
	bindUser(t, e, bob, 2, 1000)
	if ok, err := e.EstablishRelation(alice, bob); err != nil || !ok {
		t.Fatalf("establish: ok=%v err=%v", ok, err)
	}
	// 25 halves to 12 with truncation.
	if err := e.Burn(bob, big.NewInt(25)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	aliceInfo, _ := e.UserInfo(alice)
	if aliceInfo.Power.Cmp(big.NewInt(12)) != 0 {
		t.Fatalf("alice share: want 12, got %s", aliceInfo.Power)
	}
}

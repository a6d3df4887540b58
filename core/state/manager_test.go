package state

import (
	"math/big"
	"testing"

	"pyrochain/storage"
)

func testAddr(index byte) [20]byte {
	var out [20]byte
	out[19] = index
	return out
}

func TestGlobalRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	g, err := m.Global()
	if err != nil {
		t.Fatalf("default global: %v", err)
	}
	if g.TotalPower.Sign() != 0 || g.Started {
		t.Fatalf("default global must be zeroed, got %+v", g)
	}

	g.TotalPower = big.NewInt(12345)
	g.CurrentDay = 42
	g.Started = true
	g.EventLevel = 3
	g.PoolBalance = big.NewInt(999)
	if err := m.SetGlobal(g); err != nil {
		t.Fatalf("set global: %v", err)
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	loaded, err := m.Global()
	if err != nil {
		t.Fatalf("reload global: %v", err)
	}
	if loaded.TotalPower.Cmp(big.NewInt(12345)) != 0 || loaded.CurrentDay != 42 || !loaded.Started {
		t.Fatalf("global round trip mismatch: %+v", loaded)
	}
	if loaded.EventLevel != 3 || loaded.PoolBalance.Cmp(big.NewInt(999)) != 0 {
		t.Fatalf("global round trip mismatch: %+v", loaded)
	}
}

func TestUserRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := testAddr(7)
	account, err := m.User(addr)
	if err != nil {
		t.Fatalf("default user: %v", err)
	}
	if account.Power.Sign() != 0 || len(account.Upline1) != 0 {
		t.Fatalf("default user must be zeroed, got %+v", account)
	}

	up := testAddr(9)
	account.Power = big.NewInt(77)
	account.LastSettledDay = 5
	account.TokenID = 31337
	account.Upline1 = up[:]
	if err := m.SetUser(addr, account); err != nil {
		t.Fatalf("set user: %v", err)
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	loaded, err := m.User(addr)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if loaded.Power.Cmp(big.NewInt(77)) != 0 || loaded.TokenID != 31337 {
		t.Fatalf("user round trip mismatch: %+v", loaded)
	}
	if string(loaded.Upline1) != string(up[:]) || len(loaded.Upline2) != 0 {
		t.Fatalf("upline round trip mismatch: %+v", loaded)
	}
}

func TestOverlayDiscardLeavesStoreUntouched(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	if err := m.SetBalance(testAddr(1), big.NewInt(500)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	// Staged but not committed: visible through the manager, absent from the
	// store.
	balance, err := m.Balance(testAddr(1))
	if err != nil || balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("staged balance not visible: %s %v", balance, err)
	}
	if db.Len() != 0 {
		t.Fatalf("store must be untouched before commit")
	}
	m.Discard()
	balance, err = m.Balance(testAddr(1))
	if err != nil || balance.Sign() != 0 {
		t.Fatalf("discarded balance must read zero, got %s %v", balance, err)
	}
}

func TestSeriesStoreRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	series := UserSeries(testAddr(2))
	if err := m.SetValue(series, 10, big.NewInt(4)); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := m.AppendDay(series, 10); err != nil {
		t.Fatalf("append day: %v", err)
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	days, err := m.Days(series)
	if err != nil || len(days) != 1 || days[0] != 10 {
		t.Fatalf("days mismatch: %v %v", days, err)
	}
	value, ok, err := m.Value(series, 10)
	if err != nil || !ok || value.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("value mismatch: %s %v %v", value, ok, err)
	}
	if _, ok, _ := m.Value(series, 11); ok {
		t.Fatalf("missing day must report absent")
	}
}

func TestEmissionBuckets(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if err := m.SetDayEmission(3, big.NewInt(100)); err != nil {
		t.Fatalf("set emission: %v", err)
	}
	got, err := m.DayEmission(3)
	if err != nil || got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("emission mismatch: %s %v", got, err)
	}
	got, err = m.DayEmission(4)
	if err != nil || got.Sign() != 0 {
		t.Fatalf("empty bucket must read zero: %s %v", got, err)
	}
}

func TestParticipationFlags(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := testAddr(5)
	ok, err := m.Participated("20", addr)
	if err != nil || ok {
		t.Fatalf("flag must start unset: %v %v", ok, err)
	}
	if err := m.SetParticipated("20", addr); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	ok, err = m.Participated("20", addr)
	if err != nil || !ok {
		t.Fatalf("flag must be set: %v %v", ok, err)
	}
	// A different multiplier value is a fresh slot.
	ok, err = m.Participated("40", addr)
	if err != nil || ok {
		t.Fatalf("other multiplier must be unset: %v %v", ok, err)
	}
}

func TestSeatAndBinding(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	seat, err := m.Seat(4)
	if err != nil || len(seat.Addr) != 0 || seat.Withdrawn.Sign() != 0 {
		t.Fatalf("default seat mismatch: %+v %v", seat, err)
	}
	owner := testAddr(8)
	seat.Addr = owner[:]
	seat.Withdrawn = big.NewInt(60)
	if err := m.SetSeat(4, seat); err != nil {
		t.Fatalf("set seat: %v", err)
	}

	if _, ok, _ := m.Binding(1); ok {
		t.Fatalf("binding must start unset")
	}
	if err := m.SetBinding(1, owner); err != nil {
		t.Fatalf("set binding: %v", err)
	}
	bound, ok, err := m.Binding(1)
	if err != nil || !ok || bound != owner {
		t.Fatalf("binding mismatch: %v %v %v", bound, ok, err)
	}

	if err := m.SetHoldings(owner, []uint64{1, 2, 3}); err != nil {
		t.Fatalf("set holdings: %v", err)
	}
	tokens, err := m.Holdings(owner)
	if err != nil || len(tokens) != 3 || tokens[2] != 3 {
		t.Fatalf("holdings mismatch: %v %v", tokens, err)
	}
}

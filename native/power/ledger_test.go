package power

import (
	"math/big"
	"testing"
)

type memSeries struct {
	days   map[string][]uint64
	values map[string]map[uint64]*big.Int
}

func newMemSeries() *memSeries {
	return &memSeries{
		days:   make(map[string][]uint64),
		values: make(map[string]map[uint64]*big.Int),
	}
}

func (m *memSeries) Days(series string) ([]uint64, error) {
	return append([]uint64(nil), m.days[series]...), nil
}

func (m *memSeries) AppendDay(series string, day uint64) error {
	m.days[series] = append(m.days[series], day)
	return nil
}

func (m *memSeries) Value(series string, day uint64) (*big.Int, bool, error) {
	byDay, ok := m.values[series]
	if !ok {
		return nil, false, nil
	}
	value, ok := byDay[day]
	if !ok {
		return nil, false, nil
	}
	return new(big.Int).Set(value), true, nil
}

func (m *memSeries) SetValue(series string, day uint64, value *big.Int) error {
	byDay, ok := m.values[series]
	if !ok {
		byDay = make(map[uint64]*big.Int)
		m.values[series] = byDay
	}
	byDay[day] = new(big.Int).Set(value)
	return nil
}

func TestRecordAndExactRead(t *testing.T) {
	ledger := NewLedger(newMemSeries(), 0)
	if err := ledger.Record("u", 100, big.NewInt(5)); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := ledger.ValueOn("u", 100)
	if err != nil {
		t.Fatalf("value on: %v", err)
	}
	if got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("want 5, got %s", got)
	}
}

func TestForwardFillWithinWindow(t *testing.T) {
	ledger := NewLedger(newMemSeries(), 30)
	if err := ledger.Record("u", 100, big.NewInt(7)); err != nil {
		t.Fatalf("record: %v", err)
	}
	for _, day := range []uint64{101, 115, 130} {
		got, err := ledger.ValueOn("u", day)
		if err != nil {
			t.Fatalf("value on %d: %v", day, err)
		}
		if got.Cmp(big.NewInt(7)) != 0 {
			t.Fatalf("day %d: want 7, got %s", day, got)
		}
	}
}

func TestForwardFillKeyListFallback(t *testing.T) {
	ledger := NewLedger(newMemSeries(), 10)
	if err := ledger.Record("u", 100, big.NewInt(3)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := ledger.Record("u", 105, big.NewInt(9)); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Day 500 is far outside the dense window; the ordered-key fallback must
	// still find the newest entry at or before the day.
	got, err := ledger.ValueOn("u", 500)
	if err != nil {
		t.Fatalf("value on: %v", err)
	}
	if got.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("want 9, got %s", got)
	}
}

func TestValueBeforeFirstEntryIsZero(t *testing.T) {
	ledger := NewLedger(newMemSeries(), 0)
	if err := ledger.Record("u", 100, big.NewInt(3)); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := ledger.ValueOn("u", 99)
	if err != nil {
		t.Fatalf("value on: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("want 0 before first entry, got %s", got)
	}
	got, err = ledger.ValueOn("empty", 50)
	if err != nil {
		t.Fatalf("value on empty series: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("want 0 on empty series, got %s", got)
	}
}

func TestSameDayOverwriteKeepsSingleKey(t *testing.T) {
	store := newMemSeries()
	ledger := NewLedger(store, 0)
	if err := ledger.Record("u", 100, big.NewInt(1)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := ledger.Record("u", 100, big.NewInt(2)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	days, err := ledger.store.Days("u")
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("same-day overwrite must not duplicate the key, got %v", days)
	}
	got, _ := ledger.ValueOn("u", 100)
	if got.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("want overwritten value 2, got %s", got)
	}
}

func TestRecordRejectsRegression(t *testing.T) {
	ledger := NewLedger(newMemSeries(), 0)
	if err := ledger.Record("u", 100, big.NewInt(1)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := ledger.Record("u", 99, big.NewInt(2)); err != ErrDayRegression {
		t.Fatalf("expected ErrDayRegression, got %v", err)
	}
}

func TestStampIfAbsent(t *testing.T) {
	ledger := NewLedger(newMemSeries(), 0)
	written, err := ledger.StampIfAbsent("g", 10, big.NewInt(4))
	if err != nil || !written {
		t.Fatalf("first stamp: written=%v err=%v", written, err)
	}
	written, err = ledger.StampIfAbsent("g", 10, big.NewInt(8))
	if err != nil || written {
		t.Fatalf("second stamp must be a no-op: written=%v err=%v", written, err)
	}
	got, _ := ledger.ValueOn("g", 10)
	if got.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("stamp must not overwrite, got %s", got)
	}
}

func TestHistoryParallelSlices(t *testing.T) {
	ledger := NewLedger(newMemSeries(), 0)
	for i, day := range []uint64{5, 9, 40} {
		if err := ledger.Record("u", day, big.NewInt(int64(i+1))); err != nil {
			t.Fatalf("record day %d: %v", day, err)
		}
	}
	days, values, err := ledger.History("u")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(days) != 3 || len(values) != 3 {
		t.Fatalf("want 3 parallel entries, got %d/%d", len(days), len(values))
	}
	if days[2] != 40 || values[2].Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("unexpected tail entry: day %d value %s", days[2], values[2])
	}
}

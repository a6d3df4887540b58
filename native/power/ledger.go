package power

import (
	"errors"
	"math/big"
)

var (
	// ErrDayRegression is returned when a writer attempts to record a day
	// earlier than the newest recorded day. The insertion-ordered key list is
	// an invariant the writer enforces, never the reader.
	ErrDayRegression = errors.New("power: day precedes newest recorded day")
	ErrNilValue      = errors.New("power: nil value")
)

// DefaultSearchWindow bounds the dense phase of a forward-fill lookup.
const DefaultSearchWindow = 365

// SeriesStore is the persistence the ledger needs for a sparse day-keyed
// series. Day keys are kept as an insertion-ordered list next to the
// day-to-value records.
type SeriesStore interface {
	Days(series string) ([]uint64, error)
	AppendDay(series string, day uint64) error
	Value(series string, day uint64) (*big.Int, bool, error)
	SetValue(series string, day uint64, value *big.Int) error
}

// Ledger reads and writes sparse power series with forward-fill semantics:
// a day that carries no entry resolves to the most recent prior value.
type Ledger struct {
	store  SeriesStore
	window uint64
}

// NewLedger constructs a ledger over the supplied store. window bounds the
// dense backward day walk during lookups; zero selects DefaultSearchWindow.
func NewLedger(store SeriesStore, window uint64) *Ledger {
	if window == 0 {
		window = DefaultSearchWindow
	}
	return &Ledger{store: store, window: window}
}

// SetWindow adjusts the dense search window.
func (l *Ledger) SetWindow(window uint64) {
	if window == 0 {
		window = DefaultSearchWindow
	}
	l.window = window
}

// Record stores the absolute value for the given day. A same-day record
// overwrites idempotently; a new day is appended to the ordered key list
// exactly once. Recording a day earlier than the newest one is rejected.
func (l *Ledger) Record(series string, day uint64, value *big.Int) error {
	if value == nil {
		return ErrNilValue
	}
	_, exists, err := l.store.Value(series, day)
	if err != nil {
		return err
	}
	if exists {
		return l.store.SetValue(series, day, value)
	}
	days, err := l.store.Days(series)
	if err != nil {
		return err
	}
	if n := len(days); n > 0 && days[n-1] > day {
		return ErrDayRegression
	}
	if err := l.store.SetValue(series, day, value); err != nil {
		return err
	}
	return l.store.AppendDay(series, day)
}

// StampIfAbsent records value for day only when the day has no entry yet.
// Reports whether a write happened.
func (l *Ledger) StampIfAbsent(series string, day uint64, value *big.Int) (bool, error) {
	_, exists, err := l.store.Value(series, day)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := l.Record(series, day, value); err != nil {
		return false, err
	}
	return true, nil
}

// HasExact reports whether the series carries an entry for the exact day.
func (l *Ledger) HasExact(series string, day uint64) (bool, error) {
	_, exists, err := l.store.Value(series, day)
	return exists, err
}

// ValueOn resolves the series value effective on the given day. An exact
// entry wins; otherwise the lookup walks backward one day at a time within
// the search window, then falls back to a backward scan of the ordered key
// list for the nearest key at or before the day. No key at or before the
// day resolves to zero. Entries are bursty in practice, so the dense walk
// settles most lookups cheaply while the key-list scan bounds the worst
// case to the number of historical entries.
func (l *Ledger) ValueOn(series string, day uint64) (*big.Int, error) {
	value, exists, err := l.store.Value(series, day)
	if err != nil {
		return nil, err
	}
	if exists {
		return value, nil
	}
	floor := uint64(0)
	if day > l.window {
		floor = day - l.window
	}
	for d := day; d > floor; d-- {
		value, exists, err = l.store.Value(series, d-1)
		if err != nil {
			return nil, err
		}
		if exists {
			return value, nil
		}
	}
	days, err := l.store.Days(series)
	if err != nil {
		return nil, err
	}
	for i := len(days) - 1; i >= 0; i-- {
		if days[i] > day {
			continue
		}
		value, exists, err = l.store.Value(series, days[i])
		if err != nil {
			return nil, err
		}
		if exists {
			return value, nil
		}
	}
	return big.NewInt(0), nil
}

// History returns the full series as parallel day and value slices in
// insertion order.
func (l *Ledger) History(series string) ([]uint64, []*big.Int, error) {
	days, err := l.store.Days(series)
	if err != nil {
		return nil, nil, err
	}
	values := make([]*big.Int, 0, len(days))
	for _, day := range days {
		value, exists, err := l.store.Value(series, day)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			value = big.NewInt(0)
		}
		values = append(values, value)
	}
	return days, values, nil
}

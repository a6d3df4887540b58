package core

import (
	"encoding/hex"
	"log/slog"
	"math/big"
	"strconv"
	"sync"
	"time"

	"pyrochain/core/state"
	"pyrochain/core/types"
	"pyrochain/native/power"
	"pyrochain/native/referral"
	"pyrochain/observability/metrics"
	"pyrochain/storage"
)

// Engine is the deterministic burn-mining state machine. Every externally
// triggered operation runs to completion under a single critical section and
// either commits all staged writes or discards them, so no call can observe
// or leave partial state.
type Engine struct {
	mu   sync.Mutex
	busy bool

	st     *state.Manager
	ledger *power.Ledger
	cfg    Config
	now    func() time.Time
	log    *slog.Logger

	pendingEvents []types.Event
	recentEvents  []types.Event
}

// NewEngine builds an engine over the supplied database. Fresh state is
// seeded with the configured burn bounds and day windows; on restart the
// persisted values win, since the admin surface may have adjusted them.
func NewEngine(db storage.Database, cfg Config, log *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st := state.NewManager(db)
	e := &Engine{
		st:  st,
		cfg: cfg,
		now: time.Now,
		log: log,
	}
	g, err := st.Global()
	if err != nil {
		return nil, err
	}
	if g.MinBurn.Sign() == 0 {
		g.MinBurn = new(big.Int).Set(cfg.Params.MinBurn)
		g.MaxSingleBurn = new(big.Int).Set(cfg.Params.MaxSingleBurn)
		g.CalcWindowDays = cfg.Params.CalcWindowDays
		g.MaxClaimDays = cfg.Params.MaxClaimDays
		g.StartYear = uint64(cfg.Params.StartYear)
		if err := st.SetGlobal(g); err != nil {
			return nil, err
		}
		if err := st.Commit(); err != nil {
			return nil, err
		}
	}
	e.ledger = power.NewLedger(st, g.CalcWindowDays)
	return e, nil
}

// SetClock overrides the engine clock. Tests only.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Engine) dayAt(ts time.Time) uint64 {
	return uint64(ts.UTC().Unix()) / SecondsPerDay
}

func (e *Engine) tickAt(ts time.Time) uint64 {
	return uint64(ts.UTC().Unix()) / e.cfg.Params.TickSeconds
}

// begin enters the engine-wide critical section. The busy flag models the
// re-entrancy guard: a callback re-entering the engine while an operation is
// in flight is rejected rather than interleaved.
func (e *Engine) begin() error {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return ErrReentrant
	}
	e.busy = true
	return nil
}

func (e *Engine) end() {
	e.busy = false
	e.mu.Unlock()
}

// abort discards staged writes and pending events, passing the error
// through.
func (e *Engine) abort(err error) error {
	e.st.Discard()
	e.dropEvents()
	metrics.Rejections.WithLabelValues(rejectionReason(err)).Inc()
	return err
}

func rejectionReason(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

// commit flushes staged writes, then publishes the operation's events and
// refreshes the exported gauges.
func (e *Engine) commit(g *state.GlobalState) error {
	if err := e.st.Commit(); err != nil {
		e.dropEvents()
		return err
	}
	e.flushEvents()
	if g != nil {
		total, _ := new(big.Float).SetInt(g.TotalPower).Float64()
		metrics.TotalPower.Set(total)
		pool, _ := new(big.Float).SetInt(g.PoolBalance).Float64()
		metrics.PoolBalance.Set(pool)
	}
	return nil
}

// treeState adapts the user store to the referral tree, keeping the upline
// fields inside the account record.
type treeState struct {
	st *state.Manager
}

func (t treeState) Relation(addr [20]byte) (referral.Relation, error) {
	user, err := t.st.User(addr)
	if err != nil {
		return referral.Relation{}, err
	}
	return relationOf(user), nil
}

func (t treeState) SetRelation(addr [20]byte, rel referral.Relation) error {
	user, err := t.st.User(addr)
	if err != nil {
		return err
	}
	if rel.HasUpline1 {
		user.Upline1 = append([]byte(nil), rel.Upline1[:]...)
	}
	if rel.HasUpline2 {
		user.Upline2 = append([]byte(nil), rel.Upline2[:]...)
	}
	return t.st.SetUser(addr, user)
}

func relationOf(user *state.UserAccount) referral.Relation {
	var rel referral.Relation
	if len(user.Upline1) == 20 {
		copy(rel.Upline1[:], user.Upline1)
		rel.HasUpline1 = true
	}
	if len(user.Upline2) == 20 {
		copy(rel.Upline2[:], user.Upline2)
		rel.HasUpline2 = true
	}
	return rel
}

// advance processes every tick elapsed since the last one: it mints the
// accumulated emission into the current day's bucket, routes the node
// allocation into the node pool, and stamps the day's entitlement snapshot
// if the day has none yet. Safe for gaps of any size; each tick contributes
// exactly once, ever.
func (e *Engine) advance(g *state.GlobalState, now time.Time) error {
	tick := e.tickAt(now)
	day := e.dayAt(now)
	g.CurrentDay = day
	if g.LastTick == 0 {
		// Genesis stamp: nothing accrues before the first observed tick.
		g.LastTick = tick
		return nil
	}
	if tick <= g.LastTick {
		return nil
	}
	minted := e.cfg.Schedule.Accumulate(g.LastTick, tick)
	g.LastTick = tick
	metrics.TicksProcessed.Inc()
	if minted.Sign() <= 0 {
		return nil
	}
	bucket, err := e.st.DayEmission(day)
	if err != nil {
		return err
	}
	if err := e.st.SetDayEmission(day, bucket.Add(bucket, minted)); err != nil {
		return err
	}
	nodeCut := new(big.Int).Mul(minted, big.NewInt(NodeAllocationPercent))
	nodeCut.Quo(nodeCut, big.NewInt(100))
	g.NodePoolTotal.Add(g.NodePoolTotal, nodeCut)
	g.PoolBalance.Add(g.PoolBalance, minted)
	// Stamp with the current total so same-day lookups never read a stale
	// zero. The stamp never overwrites an existing entry.
	if _, err := e.ledger.StampIfAbsent(state.GlobalPowerSeries, day, g.TotalPower); err != nil {
		return err
	}
	e.appendEvent(types.Event{Type: eventTick, Attributes: map[string]string{
		"tick":   strconv.FormatUint(tick, 10),
		"day":    strconv.FormatUint(day, 10),
		"minted": minted.String(),
	}})
	return nil
}

// addPower applies an entitlement increase through the single ledger write
// path: user and global running totals, then the day's absolute value in
// both histories.
func (e *Engine) addPower(g *state.GlobalState, addr [20]byte, delta *big.Int, day uint64) error {
	user, err := e.st.User(addr)
	if err != nil {
		return err
	}
	user.Power = new(big.Int).Add(user.Power, delta)
	if err := e.st.SetUser(addr, user); err != nil {
		return err
	}
	g.TotalPower = new(big.Int).Add(g.TotalPower, delta)
	if err := e.ledger.Record(state.UserSeries(addr), day, user.Power); err != nil {
		return err
	}
	return e.ledger.Record(state.GlobalPowerSeries, day, g.TotalPower)
}

// grantWithCascade applies the user's own increase plus the two upline
// shares. The ceiling is checked against the full grant before any write.
func (e *Engine) grantWithCascade(g *state.GlobalState, addr [20]byte, delta *big.Int, day uint64) error {
	user, err := e.st.User(addr)
	if err != nil {
		return err
	}
	shares := referral.Shares(relationOf(user), delta)
	totalAdded := new(big.Int).Set(delta)
	for _, share := range shares {
		totalAdded.Add(totalAdded, share.Amount)
	}
	projected := new(big.Int).Add(g.TotalPower, totalAdded)
	if projected.Cmp(e.cfg.Params.MaxTotalPower) > 0 {
		return ErrPowerCeiling
	}
	if err := e.addPower(g, addr, delta, day); err != nil {
		return err
	}
	for _, share := range shares {
		if err := e.addPower(g, share.Addr, share.Amount, day); err != nil {
			return err
		}
		metrics.Cascades.Inc()
		e.appendEvent(types.Event{Type: eventCascade, Attributes: map[string]string{
			"to":     addrAttr(share.Addr),
			"amount": share.Amount.String(),
		}})
	}
	return nil
}

func addrAttr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Tick advances the emission schedule. Idempotent and callable by anyone at
// any frequency.
func (e *Engine) Tick() error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	g, err := e.st.Global()
	if err != nil {
		return e.abort(err)
	}
	if !g.Started {
		return e.abort(ErrNotStarted)
	}
	if g.Paused {
		return e.abort(ErrPaused)
	}
	if err := e.advance(g, e.now()); err != nil {
		return e.abort(err)
	}
	if err := e.st.SetGlobal(g); err != nil {
		return e.abort(err)
	}
	return e.commit(g)
}

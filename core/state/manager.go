package state

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"pyrochain/storage"
)

// Manager persists every engine record as an RLP-encoded value in the
// backing key-value store. Writes are staged in an overlay and only reach
// the store on Commit, so a rejected operation leaves no partial state.
type Manager struct {
	db      storage.Database
	mu      sync.Mutex
	overlay map[string][]byte
}

// NewManager constructs a state manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, overlay: make(map[string][]byte)}
}

// Commit flushes staged writes to the backing store and clears the overlay.
func (m *Manager) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range m.overlay {
		if err := m.db.Put([]byte(key), value); err != nil {
			return fmt.Errorf("state: commit %q: %w", key, err)
		}
	}
	m.overlay = make(map[string][]byte)
	return nil
}

// Discard drops all staged writes.
func (m *Manager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlay = make(map[string][]byte)
}

func (m *Manager) get(key []byte) ([]byte, bool) {
	m.mu.Lock()
	if value, ok := m.overlay[string(key)]; ok {
		m.mu.Unlock()
		return value, true
	}
	m.mu.Unlock()
	value, err := m.db.Get(key)
	if err != nil || len(value) == 0 {
		return nil, false
	}
	return value, true
}

func (m *Manager) set(key []byte, value []byte) {
	m.mu.Lock()
	m.overlay[string(key)] = value
	m.mu.Unlock()
}

func addrHex(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}

// UserSeries returns the power-series name for a principal.
func UserSeries(addr [20]byte) string {
	return fmt.Sprintf(userSeriesFormat, addrHex(addr))
}

func bigBytes(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

func bigFromBytes(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(b)
}

// --- Global state ---

// GlobalState is the singleton engine record.
type GlobalState struct {
	TotalPower       *big.Int
	TotalBurned      *big.Int
	TotalClaimed     *big.Int
	CurrentDay       uint64
	LastTick         uint64
	Started          bool
	Paused           bool
	EventOverride    bool
	EventLevel       uint64
	StartYear        uint64
	NodePoolTotal    *big.Int
	PoolBalance      *big.Int
	DistributedCoins *big.Int
	NFTCollaborator  []byte
	MinBurn          *big.Int
	MaxSingleBurn    *big.Int
	CalcWindowDays   uint64
	MaxClaimDays     uint64
}

type storedGlobal struct {
	TotalPower       []byte
	TotalBurned      []byte
	TotalClaimed     []byte
	CurrentDay       uint64
	LastTick         uint64
	Started          bool
	Paused           bool
	EventOverride    bool
	EventLevel       uint64
	StartYear        uint64
	NodePoolTotal    []byte
	PoolBalance      []byte
	DistributedCoins []byte
	NFTCollaborator  []byte
	MinBurn          []byte
	MaxSingleBurn    []byte
	CalcWindowDays   uint64
	MaxClaimDays     uint64
}

func defaultGlobal() *GlobalState {
	return &GlobalState{
		TotalPower:       big.NewInt(0),
		TotalBurned:      big.NewInt(0),
		TotalClaimed:     big.NewInt(0),
		NodePoolTotal:    big.NewInt(0),
		PoolBalance:      big.NewInt(0),
		DistributedCoins: big.NewInt(0),
		MinBurn:          big.NewInt(0),
		MaxSingleBurn:    big.NewInt(0),
	}
}

// Global loads the engine singleton, defaulting to a zeroed record.
func (m *Manager) Global() (*GlobalState, error) {
	data, ok := m.get(globalKey)
	if !ok {
		return defaultGlobal(), nil
	}
	var stored storedGlobal
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("state: decode global: %w", err)
	}
	return &GlobalState{
		TotalPower:       bigFromBytes(stored.TotalPower),
		TotalBurned:      bigFromBytes(stored.TotalBurned),
		TotalClaimed:     bigFromBytes(stored.TotalClaimed),
		CurrentDay:       stored.CurrentDay,
		LastTick:         stored.LastTick,
		Started:          stored.Started,
		Paused:           stored.Paused,
		EventOverride:    stored.EventOverride,
		EventLevel:       stored.EventLevel,
		StartYear:        stored.StartYear,
		NodePoolTotal:    bigFromBytes(stored.NodePoolTotal),
		PoolBalance:      bigFromBytes(stored.PoolBalance),
		DistributedCoins: bigFromBytes(stored.DistributedCoins),
		NFTCollaborator:  append([]byte(nil), stored.NFTCollaborator...),
		MinBurn:          bigFromBytes(stored.MinBurn),
		MaxSingleBurn:    bigFromBytes(stored.MaxSingleBurn),
		CalcWindowDays:   stored.CalcWindowDays,
		MaxClaimDays:     stored.MaxClaimDays,
	}, nil
}

// SetGlobal stages the engine singleton.
func (m *Manager) SetGlobal(g *GlobalState) error {
	if g == nil {
		return errors.New("state: nil global state")
	}
	encoded, err := rlp.EncodeToBytes(storedGlobal{
		TotalPower:       bigBytes(g.TotalPower),
		TotalBurned:      bigBytes(g.TotalBurned),
		TotalClaimed:     bigBytes(g.TotalClaimed),
		CurrentDay:       g.CurrentDay,
		LastTick:         g.LastTick,
		Started:          g.Started,
		Paused:           g.Paused,
		EventOverride:    g.EventOverride,
		EventLevel:       g.EventLevel,
		StartYear:        g.StartYear,
		NodePoolTotal:    bigBytes(g.NodePoolTotal),
		PoolBalance:      bigBytes(g.PoolBalance),
		DistributedCoins: bigBytes(g.DistributedCoins),
		NFTCollaborator:  append([]byte(nil), g.NFTCollaborator...),
		MinBurn:          bigBytes(g.MinBurn),
		MaxSingleBurn:    bigBytes(g.MaxSingleBurn),
		CalcWindowDays:   g.CalcWindowDays,
		MaxClaimDays:     g.MaxClaimDays,
	})
	if err != nil {
		return fmt.Errorf("state: encode global: %w", err)
	}
	m.set(globalKey, encoded)
	return nil
}

// --- User accounts ---

// UserAccount is the per-principal record. Upline references are raw
// 20-byte principals; an empty slice means unset.
type UserAccount struct {
	Power          *big.Int
	BurnEligible   *big.Int
	BurnTotal      *big.Int
	LastClaimTs    uint64
	LastSettledDay uint64
	TokenID        uint64
	Upline1        []byte
	Upline2        []byte
}

type storedUser struct {
	Power          []byte
	BurnEligible   []byte
	BurnTotal      []byte
	LastClaimTs    uint64
	LastSettledDay uint64
	TokenID        uint64
	Upline1        []byte
	Upline2        []byte
}

func defaultUser() *UserAccount {
	return &UserAccount{
		Power:        big.NewInt(0),
		BurnEligible: big.NewInt(0),
		BurnTotal:    big.NewInt(0),
	}
}

func userKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf(userKeyFormat, addrHex(addr)))
}

// User loads the account for a principal, created lazily as a zero record.
func (m *Manager) User(addr [20]byte) (*UserAccount, error) {
	data, ok := m.get(userKey(addr))
	if !ok {
		return defaultUser(), nil
	}
	var stored storedUser
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("state: decode user %s: %w", addrHex(addr), err)
	}
	return &UserAccount{
		Power:          bigFromBytes(stored.Power),
		BurnEligible:   bigFromBytes(stored.BurnEligible),
		BurnTotal:      bigFromBytes(stored.BurnTotal),
		LastClaimTs:    stored.LastClaimTs,
		LastSettledDay: stored.LastSettledDay,
		TokenID:        stored.TokenID,
		Upline1:        append([]byte(nil), stored.Upline1...),
		Upline2:        append([]byte(nil), stored.Upline2...),
	}, nil
}

// SetUser stages the account record for a principal.
func (m *Manager) SetUser(addr [20]byte, account *UserAccount) error {
	if account == nil {
		return errors.New("state: nil user account")
	}
	encoded, err := rlp.EncodeToBytes(storedUser{
		Power:          bigBytes(account.Power),
		BurnEligible:   bigBytes(account.BurnEligible),
		BurnTotal:      bigBytes(account.BurnTotal),
		LastClaimTs:    account.LastClaimTs,
		LastSettledDay: account.LastSettledDay,
		TokenID:        account.TokenID,
		Upline1:        append([]byte(nil), account.Upline1...),
		Upline2:        append([]byte(nil), account.Upline2...),
	})
	if err != nil {
		return fmt.Errorf("state: encode user %s: %w", addrHex(addr), err)
	}
	m.set(userKey(addr), encoded)
	return nil
}

// --- Bank balances ---

func bankKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf(bankKeyFormat, addrHex(addr)))
}

// Balance returns the native balance for a principal.
func (m *Manager) Balance(addr [20]byte) (*big.Int, error) {
	data, ok := m.get(bankKey(addr))
	if !ok {
		return big.NewInt(0), nil
	}
	var stored []byte
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("state: decode balance %s: %w", addrHex(addr), err)
	}
	return bigFromBytes(stored), nil
}

// SetBalance stages the native balance for a principal.
func (m *Manager) SetBalance(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("state: balance must be non-negative")
	}
	encoded, err := rlp.EncodeToBytes(bigBytes(amount))
	if err != nil {
		return fmt.Errorf("state: encode balance: %w", err)
	}
	m.set(bankKey(addr), encoded)
	return nil
}

// --- Sparse day series (implements power.SeriesStore) ---

func seriesDaysKey(series string) []byte {
	return []byte(fmt.Sprintf(seriesDaysKeyFormat, series))
}

func seriesValueKey(series string, day uint64) []byte {
	return []byte(fmt.Sprintf(seriesValueKeyFormat, series, day))
}

// Days returns the insertion-ordered day keys of a series.
func (m *Manager) Days(series string) ([]uint64, error) {
	data, ok := m.get(seriesDaysKey(series))
	if !ok {
		return nil, nil
	}
	var days []uint64
	if err := rlp.DecodeBytes(data, &days); err != nil {
		return nil, fmt.Errorf("state: decode series %q days: %w", series, err)
	}
	return days, nil
}

// AppendDay adds a day to the ordered key list of a series.
func (m *Manager) AppendDay(series string, day uint64) error {
	days, err := m.Days(series)
	if err != nil {
		return err
	}
	days = append(days, day)
	encoded, err := rlp.EncodeToBytes(days)
	if err != nil {
		return fmt.Errorf("state: encode series %q days: %w", series, err)
	}
	m.set(seriesDaysKey(series), encoded)
	return nil
}

// Value returns the exact series entry for a day, if present.
func (m *Manager) Value(series string, day uint64) (*big.Int, bool, error) {
	data, ok := m.get(seriesValueKey(series, day))
	if !ok {
		return nil, false, nil
	}
	var stored []byte
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode series %q day %d: %w", series, day, err)
	}
	return bigFromBytes(stored), true, nil
}

// SetValue stages the series entry for a day.
func (m *Manager) SetValue(series string, day uint64, value *big.Int) error {
	encoded, err := rlp.EncodeToBytes(bigBytes(value))
	if err != nil {
		return fmt.Errorf("state: encode series %q day %d: %w", series, day, err)
	}
	m.set(seriesValueKey(series, day), encoded)
	return nil
}

// --- Daily emission buckets ---

func emissionKey(day uint64) []byte {
	return []byte(fmt.Sprintf(emissionDayKeyFormat, day))
}

// DayEmission returns the accumulated emission for a day.
func (m *Manager) DayEmission(day uint64) (*big.Int, error) {
	data, ok := m.get(emissionKey(day))
	if !ok {
		return big.NewInt(0), nil
	}
	var stored []byte
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("state: decode emission day %d: %w", day, err)
	}
	return bigFromBytes(stored), nil
}

// SetDayEmission stages the emission bucket for a day.
func (m *Manager) SetDayEmission(day uint64, amount *big.Int) error {
	encoded, err := rlp.EncodeToBytes(bigBytes(amount))
	if err != nil {
		return fmt.Errorf("state: encode emission day %d: %w", day, err)
	}
	m.set(emissionKey(day), encoded)
	return nil
}

// --- Event participation flags ---

func participationKey(flag string, addr [20]byte) []byte {
	return []byte(fmt.Sprintf(participationKeyFormat, flag, addrHex(addr)))
}

// Participated reports whether the principal holds the participation flag.
func (m *Manager) Participated(flag string, addr [20]byte) (bool, error) {
	_, ok := m.get(participationKey(flag, addr))
	return ok, nil
}

// SetParticipated stages the participation flag for a principal.
func (m *Manager) SetParticipated(flag string, addr [20]byte) error {
	encoded, err := rlp.EncodeToBytes(uint64(1))
	if err != nil {
		return fmt.Errorf("state: encode participation: %w", err)
	}
	m.set(participationKey(flag, addr), encoded)
	return nil
}

// --- Node seats ---

// NodeSeat is one seat record; only the withdrawal side is stored, the
// entitlement is derived at claim time.
type NodeSeat struct {
	Addr      []byte
	Withdrawn *big.Int
}

type storedSeat struct {
	Addr      []byte
	Withdrawn []byte
}

func seatKey(index uint64) []byte {
	return []byte(fmt.Sprintf(seatKeyFormat, index))
}

// Seat loads a node seat, defaulting to an unassigned record.
func (m *Manager) Seat(index uint64) (*NodeSeat, error) {
	data, ok := m.get(seatKey(index))
	if !ok {
		return &NodeSeat{Withdrawn: big.NewInt(0)}, nil
	}
	var stored storedSeat
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("state: decode seat %d: %w", index, err)
	}
	return &NodeSeat{
		Addr:      append([]byte(nil), stored.Addr...),
		Withdrawn: bigFromBytes(stored.Withdrawn),
	}, nil
}

// SetSeat stages a node seat record.
func (m *Manager) SetSeat(index uint64, seat *NodeSeat) error {
	if seat == nil {
		return errors.New("state: nil seat")
	}
	encoded, err := rlp.EncodeToBytes(storedSeat{
		Addr:      append([]byte(nil), seat.Addr...),
		Withdrawn: bigBytes(seat.Withdrawn),
	})
	if err != nil {
		return fmt.Errorf("state: encode seat %d: %w", index, err)
	}
	m.set(seatKey(index), encoded)
	return nil
}

// --- Binding-token index ---

func bindingKey(tokenID uint64) []byte {
	return []byte(fmt.Sprintf(bindingKeyFormat, tokenID))
}

// Binding resolves the principal a token is bound to, if any.
func (m *Manager) Binding(tokenID uint64) ([20]byte, bool, error) {
	var addr [20]byte
	data, ok := m.get(bindingKey(tokenID))
	if !ok {
		return addr, false, nil
	}
	var stored []byte
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return addr, false, fmt.Errorf("state: decode binding %d: %w", tokenID, err)
	}
	copy(addr[:], stored)
	return addr, true, nil
}

// SetBinding stages the 1:1 token-to-principal binding.
func (m *Manager) SetBinding(tokenID uint64, addr [20]byte) error {
	encoded, err := rlp.EncodeToBytes(addr[:])
	if err != nil {
		return fmt.Errorf("state: encode binding %d: %w", tokenID, err)
	}
	m.set(bindingKey(tokenID), encoded)
	return nil
}

// --- NFT holdings index ---

func holdingsKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf(holdingsKeyFormat, addrHex(addr)))
}

// Holdings lists the token ids currently owned by a principal.
func (m *Manager) Holdings(addr [20]byte) ([]uint64, error) {
	data, ok := m.get(holdingsKey(addr))
	if !ok {
		return nil, nil
	}
	var tokens []uint64
	if err := rlp.DecodeBytes(data, &tokens); err != nil {
		return nil, fmt.Errorf("state: decode holdings %s: %w", addrHex(addr), err)
	}
	return tokens, nil
}

// SetHoldings stages the holdings list for a principal.
func (m *Manager) SetHoldings(addr [20]byte, tokens []uint64) error {
	encoded, err := rlp.EncodeToBytes(tokens)
	if err != nil {
		return fmt.Errorf("state: encode holdings %s: %w", addrHex(addr), err)
	}
	m.set(holdingsKey(addr), encoded)
	return nil
}

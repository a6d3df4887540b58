package emission

import (
	"math/big"
	"testing"
)

func testSchedule() Schedule {
	return Schedule{
		BaseReward:    big.NewInt(1000),
		HalvingPeriod: 10,
		Offset:        0,
	}
}

func TestRewardHalves(t *testing.T) {
	s := testSchedule()
	cases := []struct {
		tick uint64
		want int64
	}{
		{0, 1000},
		{9, 1000},
		{10, 500},
		{19, 500},
		{20, 250},
		{30, 125},
	}
	for _, tc := range cases {
		got := s.RewardAt(tc.tick)
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("reward at tick %d: want %d, got %s", tc.tick, tc.want, got)
		}
	}
}

func TestRewardWithOffset(t *testing.T) {
	s := Schedule{BaseReward: big.NewInt(1000), HalvingPeriod: 10, Offset: 5}
	if got := s.RewardAt(4); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("tick 4: want 1000, got %s", got)
	}
	if got := s.RewardAt(5); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("tick 5: want 500, got %s", got)
	}
}

func TestRewardEventuallyZero(t *testing.T) {
	s := testSchedule()
	// base has 10 bits, so era 10 (tick 100) shifts it to zero.
	if got := s.RewardAt(100); got.Sign() != 0 {
		t.Fatalf("expected zero reward after final era, got %s", got)
	}
	if got := s.RewardAt(1 << 40); got.Sign() != 0 {
		t.Fatalf("expected zero reward far in the future, got %s", got)
	}
}

func TestAccumulateMatchesPerTickSum(t *testing.T) {
	s := testSchedule()
	want := big.NewInt(0)
	for tick := uint64(6); tick <= 37; tick++ {
		want.Add(want, s.RewardAt(tick))
	}
	got := s.Accumulate(5, 37)
	if got.Cmp(want) != 0 {
		t.Fatalf("accumulate (5,37]: want %s, got %s", want, got)
	}
}

func TestAccumulateCountsEachTickOnce(t *testing.T) {
	s := testSchedule()
	// Splitting the range at any point must not change the total.
	whole := s.Accumulate(0, 50)
	split := new(big.Int).Add(s.Accumulate(0, 17), s.Accumulate(17, 50))
	if whole.Cmp(split) != 0 {
		t.Fatalf("split accumulation mismatch: whole %s, split %s", whole, split)
	}
	if s.Accumulate(17, 17).Sign() != 0 {
		t.Fatalf("empty range must accumulate zero")
	}
	if s.Accumulate(30, 12).Sign() != 0 {
		t.Fatalf("inverted range must accumulate zero")
	}
}

func TestAccumulateLargeGap(t *testing.T) {
	s := testSchedule()
	// Past the final era the total stops growing.
	capped := s.Accumulate(0, 1<<50)
	if capped.Cmp(s.Accumulate(0, 200)) != 0 {
		t.Fatalf("accumulation past the final era must be capped")
	}
}

func TestScheduleValidate(t *testing.T) {
	if err := testSchedule().Validate(); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
	bad := Schedule{BaseReward: big.NewInt(1), HalvingPeriod: 0}
	if err := bad.Validate(); err != ErrZeroHalvingPeriod {
		t.Fatalf("expected ErrZeroHalvingPeriod, got %v", err)
	}
	bad = Schedule{BaseReward: big.NewInt(1), HalvingPeriod: 5, Offset: 5}
	if err := bad.Validate(); err != ErrOffsetTooLarge {
		t.Fatalf("expected ErrOffsetTooLarge, got %v", err)
	}
	bad = Schedule{HalvingPeriod: 5}
	if err := bad.Validate(); err != ErrNilBaseReward {
		t.Fatalf("expected ErrNilBaseReward, got %v", err)
	}
}

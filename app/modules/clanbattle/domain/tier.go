package clanbattledomain

import (
	"errors"
	"fmt"
)

// TierStep starts Tier at FromLap.
type TierStep struct {
	FromLap int
	Tier    int
}

// TierTable is a step function from lap count to tier, ordered by FromLap.
type TierTable []TierStep

func DefaultTierTable() TierTable {
	return TierTable{{FromLap: 1, Tier: 2}, {FromLap: 8, Tier: 3}, {FromLap: 23, Tier: 4}}
}

// TierFor uses the default thresholds.
func TierFor(laps int) int {
	return DefaultTierTable().TierFor(laps)
}

func (t TierTable) TierFor(laps int) int {
	if len(t) == 0 {
		return 0
	}
	tier := t[0].Tier
	for _, step := range t {
		if laps < step.FromLap {
			break
		}
		tier = step.Tier
	}
	return tier
}

// Tiers lists the distinct tiers in lap order.
func (t TierTable) Tiers() []int {
	out := make([]int, 0, len(t))
	for _, step := range t {
		if len(out) == 0 || out[len(out)-1] != step.Tier {
			out = append(out, step.Tier)
		}
	}
	return out
}

func (t TierTable) Validate() error {
	if len(t) == 0 || t[0].FromLap != 1 {
		return errors.New("tier table must start at lap 1")
	}
	for i := 1; i < len(t); i++ {
		if t[i].FromLap <= t[i-1].FromLap || t[i].Tier < t[i-1].Tier {
			return fmt.Errorf("tier table entry %d is not monotonic", i)
		}
	}
	return nil
}

// HPTable maps a tier to the boss's maximum hit points at that tier.
type HPTable map[int]int64

func (h HPTable) MaxFor(tier int) int64 {
	return h[tier]
}

// HPTableFromList assigns hp values to the table's tiers in order.
func (t TierTable) HPTableFromList(values []int64) (HPTable, error) {
	tiers := t.Tiers()
	if len(values) != len(tiers) {
		return nil, fmt.Errorf("%w: want %d hp values, got %d", ErrInvalidBossSetup, len(tiers), len(values))
	}
	table := make(HPTable, len(tiers))
	for i, tier := range tiers {
		table[tier] = values[i]
	}
	return table, table.Validate(t)
}

// Validate requires a positive maximum for every tier the table can reach.
func (h HPTable) Validate(tiers TierTable) error {
	for _, tier := range tiers.Tiers() {
		if h[tier] <= 0 {
			return fmt.Errorf("%w: tier %d needs a positive max hp", ErrInvalidBossSetup, tier)
		}
	}
	return nil
}

// Progress is a boss's position: lap, tier and remaining hp.
type Progress struct {
	Laps int   `json:"laps"`
	Tier int   `json:"tier"`
	HP   int64 `json:"hp"`
}

// Start is lap 1 at full hp.
func (t TierTable) Start(hp HPTable) Progress {
	tier := t.TierFor(1)
	return Progress{Laps: 1, Tier: tier, HP: hp.MaxFor(tier)}
}

// Advance moves to the next lap and refills hp for the new tier.
func (t TierTable) Advance(p Progress, hp HPTable) Progress {
	laps := p.Laps + 1
	tier := t.TierFor(laps)
	return Progress{Laps: laps, Tier: tier, HP: hp.MaxFor(tier)}
}

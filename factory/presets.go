/*
presets.go - Statutory policies by year

Minimum hourly wages as announced by the Minimum Wage Commission:
  2024:  9,860 KRW
  2025: 10,030 KRW
  2026: 10,320 KRW

All presets share the statutory weekly holiday pay constants.
*/
package factory

import (
	"fmt"
	"sort"
	"time"

	"github.com/warp/wage-engine/wage"
)

func statutory(year int, minimum wage.Won) wage.Policy {
	p := wage.DefaultPolicy()
	p.ID = fmt.Sprintf("kr-%d", year)
	p.Name = fmt.Sprintf("Korea %d statutory", year)
	p.EffectiveFrom = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	p.MinimumHourlyWage = minimum
	return p
}

// Statutory2024 returns the 2024 policy.
func Statutory2024() wage.Policy { return statutory(2024, 9860) }

// Statutory2025 returns the 2025 policy.
func Statutory2025() wage.Policy { return statutory(2025, 10030) }

// Statutory2026 returns the 2026 policy.
func Statutory2026() wage.Policy { return statutory(2026, 10320) }

// Presets returns every preset ordered by EffectiveFrom.
func Presets() []wage.Policy {
	ps := []wage.Policy{Statutory2024(), Statutory2025(), Statutory2026()}
	sort.Slice(ps, func(i, j int) bool { return ps[i].EffectiveFrom.Before(ps[j].EffectiveFrom) })
	return ps
}

// PresetFor returns the latest preset in effect at t. Dates before the
// first preset get the first one.
func PresetFor(t time.Time) wage.Policy {
	ps := Presets()
	chosen := ps[0]
	for _, p := range ps {
		if !p.EffectiveFrom.After(t) {
			chosen = p
		}
	}
	return chosen
}

// PresetByID looks up a preset.
func PresetByID(id string) (wage.Policy, bool) {
	for _, p := range Presets() {
		if p.ID == id {
			return p, true
		}
	}
	return wage.Policy{}, false
}

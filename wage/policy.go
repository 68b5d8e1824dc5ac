/*
policy.go - Statutory constants as an overridable policy

PURPOSE:
  Labor-law thresholds change. Every constant the calculations depend on
  lives in Policy so a statutory change is one edit (or one policy file),
  never a search through the formulas.

DEFAULTS:
  EligibilityThresholdHours  15     weekly holiday pay applies at >= 15h/week
  StandardWeeklyHours        40     full-time reference week
  MaxWeeklyHolidayHours      8      one day's pay at most
  WeeksPerMonth              4.345  365 / 7 / 12, rounded
  MinimumHourlyWage          0      no minimum-wage check
  Rounding                   legacy

SEE ALSO:
  - factory/policy.go: JSON/YAML policy documents and yearly presets
*/
package wage

import (
	"math"
	"time"
)

const (
	DefaultEligibilityThresholdHours = 15.0
	DefaultStandardWeeklyHours       = 40.0
	DefaultMaxWeeklyHolidayHours     = 8.0
	DefaultWeeksPerMonth             = 4.345
	DefaultPolicyID                  = "default"
)

// RoundingMode selects how monthly weekly-holiday pay is rounded.
type RoundingMode string

const (
	// RoundingLegacy rounds the weekly holiday pay first, then rounds again
	// after scaling to a month. Matches figures already issued on contracts.
	RoundingLegacy RoundingMode = "legacy"

	// RoundingSinglePoint scales the unrounded weekly amount and rounds once.
	RoundingSinglePoint RoundingMode = "single_point"
)

// Policy holds the statutory parameters of the wage rules.
type Policy struct {
	ID            string
	Name          string
	Version       int
	EffectiveFrom time.Time

	EligibilityThresholdHours float64
	StandardWeeklyHours       float64
	MaxWeeklyHolidayHours     float64
	WeeksPerMonth             float64
	MinimumHourlyWage         Won
	Rounding                  RoundingMode
}

// DefaultPolicy returns the current statutory defaults with no minimum wage.
func DefaultPolicy() Policy {
	return Policy{
		ID:                        DefaultPolicyID,
		Name:                      "Statutory defaults",
		Version:                   1,
		EligibilityThresholdHours: DefaultEligibilityThresholdHours,
		StandardWeeklyHours:       DefaultStandardWeeklyHours,
		MaxWeeklyHolidayHours:     DefaultMaxWeeklyHolidayHours,
		WeeksPerMonth:             DefaultWeeksPerMonth,
		Rounding:                  RoundingLegacy,
	}
}

// WithDefaults fills zero-valued parameters from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.ID == "" {
		p.ID = d.ID
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.EligibilityThresholdHours == 0 {
		p.EligibilityThresholdHours = d.EligibilityThresholdHours
	}
	if p.StandardWeeklyHours == 0 {
		p.StandardWeeklyHours = d.StandardWeeklyHours
	}
	if p.MaxWeeklyHolidayHours == 0 {
		p.MaxWeeklyHolidayHours = d.MaxWeeklyHolidayHours
	}
	if p.WeeksPerMonth == 0 {
		p.WeeksPerMonth = d.WeeksPerMonth
	}
	if p.Rounding == "" {
		p.Rounding = d.Rounding
	}
	return p
}

// Validate checks that every parameter is usable.
func (p Policy) Validate() error {
	checks := []struct {
		field string
		value float64
	}{
		{"eligibility_threshold_hours", p.EligibilityThresholdHours},
		{"standard_weekly_hours", p.StandardWeeklyHours},
		{"max_weekly_holiday_hours", p.MaxWeeklyHolidayHours},
		{"weeks_per_month", p.WeeksPerMonth},
	}
	for _, c := range checks {
		if err := positive(c.field, c.value); err != nil {
			return err
		}
	}
	if p.MinimumHourlyWage < 0 {
		return &InvalidInputError{Field: "minimum_hourly_wage", Value: p.MinimumHourlyWage, Reason: "must not be negative"}
	}
	switch p.Rounding {
	case RoundingLegacy, RoundingSinglePoint:
	default:
		return &InvalidInputError{Field: "rounding", Value: p.Rounding, Reason: "unknown rounding mode"}
	}
	return nil
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidInputError{Field: field, Value: v, Reason: "must be finite"}
	}
	if v <= 0 {
		return &InvalidInputError{Field: field, Value: v, Reason: "must be positive"}
	}
	return nil
}

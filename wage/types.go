/*
Package wage computes statutory wage components from shift and policy inputs.

PURPOSE:
  Turns the raw numbers a contract author enters (clock-in/out, break,
  work days per week, hourly wage) into the legally defined pieces of a
  monthly wage under Korean labor law: worked hours, weekly holiday pay
  (주휴수당) and the monthly base/holiday/total breakdown.

PIPELINE:
  1. ParseWorkTime:                clock strings + break  -> daily hours
  2. CalculateWeeklyHolidayPay:    wage, days, hours      -> WeeklyHolidayPayResult
  3. CalculateMonthlyWageBreakdown: weekly figures x weeks -> WageBreakdown

  Each stage consumes the previous stage's output and nothing else.

ROUNDING:
  Money is whole won. Rounding happens only at the points listed in
  holiday.go and monthly.go; hour quantities stay float64 throughout.

CONCURRENCY:
  Everything here is pure. A Service holds only an immutable Policy and can
  be shared between goroutines.

SEE ALSO:
  - policy.go:   statutory constants
  - worktime.go: clock parsing
  - holiday.go:  weekly holiday pay rule
  - monthly.go:  monthly aggregation
*/
package wage

import "fmt"

// =============================================================================
// CLOCK - wall-clock time of day
// =============================================================================

// Clock is a 24-hour time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// =============================================================================
// RESULTS
// =============================================================================

// WeeklyHolidayPayResult is the outcome of the weekly holiday pay rule.
// When IsEligible is false every computed field is zero; the echoed inputs
// (WeeklyWorkHours, DailyWorkHours, BaseHourlyWage) are always set.
type WeeklyHolidayPayResult struct {
	IsEligible              bool    `json:"is_eligible"`
	WeeklyWorkHours         float64 `json:"weekly_work_hours"`
	DailyWorkHours          float64 `json:"daily_work_hours"`
	WeeklyHolidayHours      float64 `json:"weekly_holiday_hours"`
	BaseHourlyWage          Won     `json:"base_hourly_wage"`
	WeeklyHolidayPayPerHour Won     `json:"weekly_holiday_pay_per_hour"`
	WeeklyHolidayPayPerWeek Won     `json:"weekly_holiday_pay_per_week"`
}

// WageBreakdown is a monthly wage split into its statutory components.
// TotalWage is always BaseWage + WeeklyHolidayPay.
type WageBreakdown struct {
	BaseWage                Won     `json:"base_wage"`
	WeeklyHolidayPay        Won     `json:"weekly_holiday_pay"`
	TotalWage               Won     `json:"total_wage"`
	WeeklyWorkHours         float64 `json:"weekly_work_hours"`
	WeeksPerMonth           float64 `json:"weeks_per_month"`
	IsWeeklyHolidayEligible bool    `json:"is_weekly_holiday_eligible"`
}

// MinimumWageCheck compares an hourly wage with the policy minimum.
// Enforced is false when the policy carries no minimum.
type MinimumWageCheck struct {
	Enforced         bool `json:"enforced"`
	Compliant        bool `json:"compliant"`
	HourlyWage       Won  `json:"hourly_wage"`
	MinimumWage      Won  `json:"minimum_wage"`
	ShortfallPerHour Won  `json:"shortfall_per_hour"`
}

// =============================================================================
// ESTIMATE - the contract-builder flow in one call
// =============================================================================

// EstimateInput is what a contract form collects about a recurring shift.
type EstimateInput struct {
	HourlyWage      Won     `json:"hourly_wage"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	BreakMinutes    int     `json:"break_minutes"`
	WorkDaysPerWeek float64 `json:"work_days_per_week"`
	WeeksPerMonth   float64 `json:"weeks_per_month,omitempty"`
}

// Estimate bundles every figure derived from an EstimateInput.
type Estimate struct {
	PolicyID         string                 `json:"policy_id,omitempty"`
	DailyWorkHours   float64                `json:"daily_work_hours"`
	WeeklyHolidayPay WeeklyHolidayPayResult `json:"weekly_holiday_pay"`
	Monthly          WageBreakdown          `json:"monthly"`
	MinimumWage      MinimumWageCheck       `json:"minimum_wage"`
}

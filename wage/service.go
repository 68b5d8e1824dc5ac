package wage

// Service runs the wage rules under one validated Policy.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	policy Policy
}

// NewService validates p (after filling defaults) and returns a Service.
func NewService(p Policy) (*Service, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Service{policy: p}, nil
}

var defaultService = &Service{policy: DefaultPolicy()}

// Default returns a Service using DefaultPolicy.
func Default() *Service { return defaultService }

// Policy returns the policy the service applies.
func (s *Service) Policy() Policy { return s.policy }

// WorkTime is ParseWorkTime; the parser takes no policy parameters.
func (s *Service) WorkTime(startTime, endTime string, breakMinutes int) (float64, error) {
	return ParseWorkTime(startTime, endTime, breakMinutes)
}

// WeeklyHolidayPay computes weekly holiday pay for a regular schedule.
func (s *Service) WeeklyHolidayPay(hourlyWage Won, workDaysPerWeek, dailyWorkHours float64) (WeeklyHolidayPayResult, error) {
	return s.policy.weeklyHolidayPay(hourlyWage, workDaysPerWeek, dailyWorkHours)
}

// MonthlyWageBreakdown computes the monthly base, holiday and total wage.
// Pass 0 for weeksPerMonth to use the policy value.
func (s *Service) MonthlyWageBreakdown(hourlyWage Won, workDaysPerWeek, dailyWorkHours, weeksPerMonth float64) (WageBreakdown, error) {
	return s.policy.monthlyWageBreakdown(hourlyWage, workDaysPerWeek, dailyWorkHours, weeksPerMonth)
}

// CheckMinimumWage compares hourlyWage with the policy minimum.
func (s *Service) CheckMinimumWage(hourlyWage Won) MinimumWageCheck {
	minimum := s.policy.MinimumHourlyWage
	check := MinimumWageCheck{
		Enforced:    minimum > 0,
		Compliant:   true,
		HourlyWage:  hourlyWage,
		MinimumWage: minimum,
	}
	if check.Enforced && hourlyWage < minimum {
		check.Compliant = false
		check.ShortfallPerHour = minimum - hourlyWage
	}
	return check
}

// Estimate runs the whole pipeline for one recurring shift.
func (s *Service) Estimate(in EstimateInput) (Estimate, error) {
	daily, err := ParseWorkTime(in.StartTime, in.EndTime, in.BreakMinutes)
	if err != nil {
		return Estimate{}, err
	}
	if daily == 0 {
		return Estimate{}, &InvalidInputError{Field: "daily_work_hours", Value: daily, Reason: "shift has no paid hours"}
	}

	holiday, err := s.WeeklyHolidayPay(in.HourlyWage, in.WorkDaysPerWeek, daily)
	if err != nil {
		return Estimate{}, err
	}
	monthly, err := s.MonthlyWageBreakdown(in.HourlyWage, in.WorkDaysPerWeek, daily, in.WeeksPerMonth)
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{
		PolicyID:         s.policy.ID,
		DailyWorkHours:   daily,
		WeeklyHolidayPay: holiday,
		Monthly:          monthly,
		MinimumWage:      s.CheckMinimumWage(in.HourlyWage),
	}, nil
}

// =============================================================================
// PACKAGE-LEVEL FUNCTIONS - DefaultPolicy
// =============================================================================

// CalculateWeeklyHolidayPay applies the weekly holiday pay rule with DefaultPolicy.
func CalculateWeeklyHolidayPay(hourlyWage Won, workDaysPerWeek, dailyWorkHours float64) (WeeklyHolidayPayResult, error) {
	return defaultService.WeeklyHolidayPay(hourlyWage, workDaysPerWeek, dailyWorkHours)
}

// CalculateMonthlyWageBreakdown computes a monthly breakdown with DefaultPolicy.
// Pass 0 for weeksPerMonth to use DefaultWeeksPerMonth.
func CalculateMonthlyWageBreakdown(hourlyWage Won, workDaysPerWeek, dailyWorkHours, weeksPerMonth float64) (WageBreakdown, error) {
	return defaultService.MonthlyWageBreakdown(hourlyWage, workDaysPerWeek, dailyWorkHours, weeksPerMonth)
}

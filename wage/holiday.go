package wage

import "math"

// weeklyHolidayPay applies the proportional weekly holiday pay rule.
//
// Eligible when weekly hours reach the threshold. Paid rest hours are
// weekly/standard x cap, never above the cap. Two rounding points, in
// this order:
//
//	perWeek = round(holidayHours x wage)
//	perHour = round(perWeek / weeklyHours)
//
// perHour is derived from the rounded perWeek, not from holidayHours.
func (p Policy) weeklyHolidayPay(hourlyWage Won, workDaysPerWeek, dailyWorkHours float64) (WeeklyHolidayPayResult, error) {
	if err := checkShiftInputs(hourlyWage, workDaysPerWeek, dailyWorkHours); err != nil {
		return WeeklyHolidayPayResult{}, err
	}

	weekly := workDaysPerWeek * dailyWorkHours
	if err := positive("weekly_work_hours", weekly); err != nil {
		return WeeklyHolidayPayResult{}, err
	}

	result := WeeklyHolidayPayResult{
		IsEligible:      weekly >= p.EligibilityThresholdHours,
		WeeklyWorkHours: weekly,
		DailyWorkHours:  dailyWorkHours,
		BaseHourlyWage:  hourlyWage,
	}
	if !result.IsEligible {
		return result, nil
	}

	result.WeeklyHolidayHours = p.holidayHours(weekly)

	perWeek, err := RoundWon("weekly_holiday_pay_per_week", result.WeeklyHolidayHours*float64(hourlyWage))
	if err != nil {
		return WeeklyHolidayPayResult{}, err
	}
	perHour, err := RoundWon("weekly_holiday_pay_per_hour", float64(perWeek)/weekly)
	if err != nil {
		return WeeklyHolidayPayResult{}, err
	}
	result.WeeklyHolidayPayPerWeek = perWeek
	result.WeeklyHolidayPayPerHour = perHour
	return result, nil
}

func (p Policy) holidayHours(weekly float64) float64 {
	return math.Min((weekly/p.StandardWeeklyHours)*p.MaxWeeklyHolidayHours, p.MaxWeeklyHolidayHours)
}

func checkShiftInputs(hourlyWage Won, workDaysPerWeek, dailyWorkHours float64) error {
	if hourlyWage <= 0 {
		return &InvalidInputError{Field: "hourly_wage", Value: hourlyWage, Reason: "must be positive"}
	}
	if err := positive("work_days_per_week", workDaysPerWeek); err != nil {
		return err
	}
	return positive("daily_work_hours", dailyWorkHours)
}

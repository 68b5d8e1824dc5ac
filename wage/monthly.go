package wage

// monthlyWageBreakdown scales weekly figures to a month.
//
//	base    = round(wage x weeklyHours x weeks)
//	holiday = round(perWeek x weeks)             legacy: perWeek is already rounded
//	holiday = round(holidayHours x wage x weeks) single_point
//	total   = base + holiday
//
// weeksPerMonth of 0 uses the policy's WeeksPerMonth.
func (p Policy) monthlyWageBreakdown(hourlyWage Won, workDaysPerWeek, dailyWorkHours, weeksPerMonth float64) (WageBreakdown, error) {
	if weeksPerMonth == 0 {
		weeksPerMonth = p.WeeksPerMonth
	}
	if err := positive("weeks_per_month", weeksPerMonth); err != nil {
		return WageBreakdown{}, err
	}

	holiday, err := p.weeklyHolidayPay(hourlyWage, workDaysPerWeek, dailyWorkHours)
	if err != nil {
		return WageBreakdown{}, err
	}
	weekly := holiday.WeeklyWorkHours

	base, err := RoundWon("base_wage", float64(hourlyWage)*weekly*weeksPerMonth)
	if err != nil {
		return WageBreakdown{}, err
	}

	var holidayPay Won
	if holiday.IsEligible {
		switch p.Rounding {
		case RoundingSinglePoint:
			holidayPay, err = RoundWon("weekly_holiday_pay", holiday.WeeklyHolidayHours*float64(hourlyWage)*weeksPerMonth)
		default:
			holidayPay, err = RoundWon("weekly_holiday_pay", float64(holiday.WeeklyHolidayPayPerWeek)*weeksPerMonth)
		}
		if err != nil {
			return WageBreakdown{}, err
		}
	}

	return WageBreakdown{
		BaseWage:                base,
		WeeklyHolidayPay:        holidayPay,
		TotalWage:               base + holidayPay,
		WeeklyWorkHours:         weekly,
		WeeksPerMonth:           weeksPerMonth,
		IsWeeklyHolidayEligible: holiday.IsEligible,
	}, nil
}

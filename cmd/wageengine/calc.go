package main

import (
	"github.com/spf13/cobra"
	"github.com/warp/wage-engine/wage"
)

func (a *app) calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run a calculation and print the result as JSON",
	}
	cmd.AddCommand(a.calcWorkTimeCmd())
	cmd.AddCommand(a.calcHolidayCmd())
	cmd.AddCommand(a.calcMonthlyCmd())
	cmd.AddCommand(a.calcEstimateCmd())
	return cmd
}

func (a *app) calcWorkTimeCmd() *cobra.Command {
	var breakMinutes int
	cmd := &cobra.Command{
		Use:     "work-time START END",
		Short:   "Paid hours of one shift (HH:MM, may cross midnight)",
		Example: "  wageengine calc work-time 22:00 06:00 --break 60",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := wage.ParseWorkTime(args[0], args[1], breakMinutes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]float64{"hours": hours})
		},
	}
	cmd.Flags().IntVar(&breakMinutes, "break", 0, "Unpaid break in minutes")
	return cmd
}

type scheduleFlags struct {
	hourlyWage int64
	days       float64
	hours      float64
}

func (f *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.hourlyWage, "wage", 0, "Hourly wage in KRW")
	cmd.Flags().Float64Var(&f.days, "days", 0, "Work days per week")
	cmd.Flags().Float64Var(&f.hours, "hours", 0, "Paid hours per day")
	cmd.MarkFlagRequired("wage")
	cmd.MarkFlagRequired("days")
	cmd.MarkFlagRequired("hours")
}

func (a *app) calcHolidayCmd() *cobra.Command {
	var f scheduleFlags
	cmd := &cobra.Command{
		Use:   "holiday",
		Short: "Weekly holiday pay for a weekly schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.localService()
			if err != nil {
				return err
			}
			result, err := svc.WeeklyHolidayPay(wage.Won(f.hourlyWage), f.days, f.hours)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) calcMonthlyCmd() *cobra.Command {
	var (
		f     scheduleFlags
		weeks float64
	)
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Monthly wage breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.localService()
			if err != nil {
				return err
			}
			result, err := svc.MonthlyWageBreakdown(wage.Won(f.hourlyWage), f.days, f.hours, weeks)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	f.register(cmd)
	cmd.Flags().Float64Var(&weeks, "weeks", 0, "Weeks per month (default: policy value)")
	return cmd
}

func (a *app) calcEstimateCmd() *cobra.Command {
	var (
		in         wage.EstimateInput
		hourlyWage int64
	)
	cmd := &cobra.Command{
		Use:     "estimate",
		Short:   "Shift to monthly estimate, with minimum wage check",
		Example: "  wageengine calc estimate --policy kr-2025 --wage 10030 --start 09:00 --end 18:00 --break 60 --days 5",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.localService()
			if err != nil {
				return err
			}
			in.HourlyWage = wage.Won(hourlyWage)
			est, err := svc.Estimate(in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), est)
		},
	}
	cmd.Flags().Int64Var(&hourlyWage, "wage", 0, "Hourly wage in KRW")
	cmd.Flags().StringVar(&in.StartTime, "start", "", "Shift start, HH:MM")
	cmd.Flags().StringVar(&in.EndTime, "end", "", "Shift end, HH:MM")
	cmd.Flags().IntVar(&in.BreakMinutes, "break", 0, "Unpaid break in minutes")
	cmd.Flags().Float64Var(&in.WorkDaysPerWeek, "days", 0, "Work days per week")
	cmd.Flags().Float64Var(&in.WeeksPerMonth, "weeks", 0, "Weeks per month (default: policy value)")
	for _, name := range []string{"wage", "start", "end", "days"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

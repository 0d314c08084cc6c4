package payroll

import (
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/employee"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/payroll"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/timeutil"
	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// Segment is one actually-worked interval of a day, used for night-window
// intersection.
type Segment struct {
	Start time.Time
	End   time.Time
}

// DayRecord is one finalized attendance day flattened for pay computation.
type DayRecord struct {
	Date           time.Time
	NetWorkMinutes int
	Segments       []Segment
	Shift          *schedule.ShiftAssignment
}

// PeriodInput is everything the calculator needs for one employee's period.
type PeriodInput struct {
	Employee    employee.Employee
	PeriodStart time.Time
	PeriodEnd   time.Time
	Days        []DayRecord
}

// Calculator prices a period of finalized attendance. Rates are injected so
// different jurisdictions or tenants can run with different tables; the
// calculator itself holds no mutable state and is safe for concurrent use.
type Calculator struct {
	rates payroll.RateTable
}

func NewCalculator(rates payroll.RateTable) *Calculator {
	return &Calculator{rates: rates}
}

// Compute produces the employee's line item for the period. Idempotent:
// identical inputs yield identical values.
func (c *Calculator) Compute(in PeriodInput) (payroll.PayrollLineItem, error) {
	rate, err := c.effectiveHourlyRate(in.Employee)
	if err != nil {
		return payroll.PayrollLineItem{}, err
	}

	var (
		regularMinutes int
		tier1Minutes   int
		tier2Minutes   int
		holidayMinutes int
		nightMinutes   int
	)

	for _, day := range in.Days {
		nightMinutes += c.nightMinutes(day)

		// Weekend work is paid entirely at the holiday tier; no
		// regular/overtime split happens on those days.
		if timeutil.IsWeekend(day.Date) {
			holidayMinutes += day.NetWorkMinutes
			continue
		}

		scheduled := day.NetWorkMinutes
		if day.Shift != nil {
			scheduled = day.Shift.ScheduledMinutes()
		}
		regular := min(day.NetWorkMinutes, scheduled)
		overtime := day.NetWorkMinutes - scheduled
		if overtime < 0 {
			overtime = 0
		}

		// Overtime tiers reset daily.
		tier1 := min(overtime, c.rates.OvertimeTier1Minutes)
		regularMinutes += regular
		tier1Minutes += tier1
		tier2Minutes += overtime - tier1
	}

	regularHours := minutesToHours(regularMinutes)
	tier1Hours := minutesToHours(tier1Minutes)
	tier2Hours := minutesToHours(tier2Minutes)
	overtimeHours := minutesToHours(tier1Minutes + tier2Minutes)
	holidayHours := minutesToHours(holidayMinutes)
	nightHours := minutesToHours(nightMinutes)

	basePay := c.basePay(in, rate, regularHours)
	overtimePay := rate.Mul(c.rates.OvertimeTier1Multiplier).Mul(tier1Hours).
		Add(rate.Mul(c.rates.OvertimeTier2Multiplier).Mul(tier2Hours))
	holidayPay := rate.Mul(c.rates.HolidayMultiplier).Mul(holidayHours)
	nightShiftPay := c.rates.NightShiftAllowance.Mul(nightHours)

	// Each component is rounded to the whole currency unit only here, at the
	// point of summation, so rounding error never compounds across tiers.
	basePay = basePay.Round(0)
	overtimePay = overtimePay.Round(0)
	holidayPay = holidayPay.Round(0)
	nightShiftPay = nightShiftPay.Round(0)
	grossPay := basePay.Add(overtimePay).Add(holidayPay).Add(nightShiftPay)

	return payroll.PayrollLineItem{
		EmployeeID:      in.Employee.ID,
		StoreID:         in.Employee.StoreID,
		PeriodStart:     in.PeriodStart,
		PeriodEnd:       in.PeriodEnd,
		EmploymentType:  string(in.Employee.EmploymentType),
		HourlyRateUsed:  rate,
		RegularHours:    regularHours,
		OvertimeHours:   overtimeHours,
		HolidayHours:    holidayHours,
		NightShiftHours: nightHours,
		BasePay:         basePay,
		OvertimePay:     overtimePay,
		HolidayPay:      holidayPay,
		NightShiftPay:   nightShiftPay,
		GrossPay:        grossPay,
	}, nil
}

// effectiveHourlyRate is the rate used to price overtime, holiday and night
// minutes. Salaried employees get monthlySalary / 30 / 8; their base pay is
// prorated separately and never flows through this rate.
func (c *Calculator) effectiveHourlyRate(emp employee.Employee) (decimal.Decimal, error) {
	switch emp.EmploymentType {
	case employee.EmploymentTypeHourly:
		if emp.HourlyRate == nil {
			return decimal.Zero, employee.ErrNoPayRate
		}
		return *emp.HourlyRate, nil
	case employee.EmploymentTypeSalaried:
		if emp.MonthlySalary == nil {
			return decimal.Zero, employee.ErrNoPayRate
		}
		divisor := decimal.NewFromInt(int64(c.rates.SalariedRateDivisorDays * c.rates.SalariedRateDivisorHrs))
		return emp.MonthlySalary.Div(divisor), nil
	}
	return decimal.Zero, employee.ErrNoPayRate
}

// basePay computes the base component: worked regular hours for hourly
// employees, a straight day-fraction proration of the monthly salary for
// salaried ones.
func (c *Calculator) basePay(in PeriodInput, rate, regularHours decimal.Decimal) decimal.Decimal {
	if in.Employee.EmploymentType == employee.EmploymentTypeHourly {
		return regularHours.Mul(rate)
	}

	daysInMonth := timeutil.DaysInMonth(in.PeriodStart)
	periodDays := int(in.PeriodEnd.Sub(in.PeriodStart).Hours()/24) + 1
	payableDays := min(periodDays, daysInMonth)

	return in.Employee.MonthlySalary.
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Mul(decimal.NewFromInt(int64(payableDays)))
}

// nightMinutes intersects the day's worked segments with the night window.
// Exact interval math, including segments that cross midnight.
func (c *Calculator) nightMinutes(day DayRecord) int {
	total := 0
	for _, seg := range day.Segments {
		total += timeutil.NightMinutes(seg.Start, seg.End, c.rates.NightWindowStartClock, c.rates.NightWindowEndClock)
	}
	return total
}

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(sixty)
}

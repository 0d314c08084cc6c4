package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateTable holds the pay multipliers and allowances applied by the payroll
// calculator. It is injected, not a package-level global, so tenants and
// tests can vary rates without touching shared state.
type RateTable struct {
	OvertimeTier1Multiplier decimal.Decimal // first tier of a day's weekday overtime
	OvertimeTier2Multiplier decimal.Decimal // weekday overtime beyond the tier-1 budget
	OvertimeTier1Minutes    int             // length of the tier-1 budget per day
	HolidayMultiplier       decimal.Decimal // weekend work, flat, no tiering
	NightShiftAllowance     decimal.Decimal // fixed amount per hour inside the night window
	NightWindowStartClock   int             // minutes past midnight
	NightWindowEndClock     int             // minutes past midnight, next day when <= start
	SalariedRateDivisorDays int             // monthly salary -> effective hourly rate
	SalariedRateDivisorHrs  int
}

// DefaultRateTable returns the statutory defaults: overtime at x1.34 for the
// first two hours per day and x1.67 beyond, weekends flat x2.0, and a
// 22:00-06:00 night window.
func DefaultRateTable() RateTable {
	return RateTable{
		OvertimeTier1Multiplier: decimal.NewFromFloat(1.34),
		OvertimeTier2Multiplier: decimal.NewFromFloat(1.67),
		OvertimeTier1Minutes:    120,
		HolidayMultiplier:       decimal.NewFromFloat(2.0),
		NightShiftAllowance:     decimal.NewFromInt(25),
		NightWindowStartClock:   22 * 60,
		NightWindowEndClock:     6 * 60,
		SalariedRateDivisorDays: 30,
		SalariedRateDivisorHrs:  8,
	}
}

// PayrollLineItem is the computed pay breakdown for one employee over one
// period. Re-running the calculation over unchanged inputs yields the exact
// same values, supporting upsert semantics at the storage boundary.
type PayrollLineItem struct {
	ID              string
	EmployeeID      string
	StoreID         string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	EmploymentType  string
	HourlyRateUsed  decimal.Decimal // effective hourly rate applied to overtime/holiday/night minutes
	RegularHours    decimal.Decimal
	OvertimeHours   decimal.Decimal
	HolidayHours    decimal.Decimal
	NightShiftHours decimal.Decimal
	BasePay         decimal.Decimal
	OvertimePay     decimal.Decimal
	HolidayPay      decimal.Decimal
	NightShiftPay   decimal.Decimal
	GrossPay        decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	EmployeeName *string
}

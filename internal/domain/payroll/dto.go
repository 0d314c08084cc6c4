package payroll

import (
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type GeneratePayrollRequest struct {
	PeriodStart string   `json:"period_start"` // "YYYY-MM-DD"
	PeriodEnd   string   `json:"period_end"`   // "YYYY-MM-DD"
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

func (r *GeneratePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.PeriodStart)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "period_start",
			Message: "period_start must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(r.PeriodEnd)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "period_end",
			Message: "period_end must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "period_end",
			Message: "period_end must not be before period_start",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type PayrollFilter struct {
	PeriodStart string
	PeriodEnd   string
	Page        int
	Limit       int
}

func (f *PayrollFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type PayrollLineItemResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    string          `json:"employee_name,omitempty"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	EmploymentType  string          `json:"employment_type"`
	HourlyRateUsed  decimal.Decimal `json:"hourly_rate_used"`
	RegularHours    decimal.Decimal `json:"regular_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	HolidayHours    decimal.Decimal `json:"holiday_hours"`
	NightShiftHours decimal.Decimal `json:"night_shift_hours"`
	BasePay         decimal.Decimal `json:"base_pay"`
	OvertimePay     decimal.Decimal `json:"overtime_pay"`
	HolidayPay      decimal.Decimal `json:"holiday_pay"`
	NightShiftPay   decimal.Decimal `json:"night_shift_pay"`
	GrossPay        decimal.Decimal `json:"gross_pay"`
}

type ListPayrollResponse struct {
	Data       []PayrollLineItemResponse `json:"data"`
	TotalCount int64                     `json:"total_count"`
	Page       int                       `json:"page"`
	Limit      int                       `json:"limit"`
}

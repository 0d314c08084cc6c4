package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/audit"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/employee"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/payroll"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
	"github.com/go-chi/jwtauth/v5"
)

const dateLayout = "2006-01-02"

type PayrollServiceImpl struct {
	db             *database.DB
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	shiftRepo      schedule.ShiftRepository
	calculator     *Calculator
	auditSink      audit.Sink
}

func NewPayrollService(
	db *database.DB,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	shiftRepo schedule.ShiftRepository,
	calculator *Calculator,
	auditSink audit.Sink,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		db:             db,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		shiftRepo:      shiftRepo,
		calculator:     calculator,
		auditSink:      auditSink,
	}
}

// Helper to get store_id and employee_id from JWT context
func getClaimsFromContext(ctx context.Context) (storeID, employeeID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	storeID, ok := claims["store_id"].(string)
	if !ok || storeID == "" {
		return "", "", fmt.Errorf("store_id claim is missing or invalid")
	}

	employeeID, _ = claims["employee_id"].(string)

	return storeID, employeeID, nil
}

// GeneratePayroll implements payroll.PayrollService.
func (s *PayrollServiceImpl) GeneratePayroll(ctx context.Context, req payroll.GeneratePayrollRequest) ([]payroll.PayrollLineItemResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	storeID, actorID, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	periodStart, _ := time.Parse(dateLayout, req.PeriodStart)
	periodEnd, _ := time.Parse(dateLayout, req.PeriodEnd)
	if periodEnd.Before(periodStart) {
		return nil, payroll.ErrInvalidPeriod
	}

	employees, err := s.resolveEmployees(ctx, req.EmployeeIDs, storeID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.PayrollLineItemResponse, 0, len(employees))
	for _, emp := range employees {
		input, err := s.buildPeriodInput(ctx, emp, periodStart, periodEnd, storeID)
		if err != nil {
			return nil, err
		}

		item, err := s.calculator.Compute(input)
		if err != nil {
			// In a whole-store batch, employees without a configured rate
			// are skipped so the rest still generates. When the caller
			// named employees explicitly, a missing rate is their answer.
			if errors.Is(err, employee.ErrNoPayRate) {
				if len(req.EmployeeIDs) > 0 {
					return nil, fmt.Errorf("employee %s: %w", emp.ID, err)
				}
				continue
			}
			return nil, fmt.Errorf("failed to compute payroll for employee %s: %w", emp.ID, err)
		}

		saved, err := s.payrollRepo.UpsertLineItem(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert payroll line item: %w", err)
		}
		saved.EmployeeName = &emp.FullName

		responses = append(responses, toLineItemResponse(saved))
	}

	if len(responses) == 0 {
		return nil, payroll.ErrEmptyPeriod
	}

	_ = s.auditSink.Record(ctx, audit.Entry{
		EmployeeID: actorID,
		StoreID:    storeID,
		Action:     "GENERATE_PAYROLL",
		EntityType: "payroll_period",
		EntityID:   req.PeriodStart + ".." + req.PeriodEnd,
		At:         time.Now().UTC(),
	})

	return responses, nil
}

// GetLineItem implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetLineItem(ctx context.Context, id string) (payroll.PayrollLineItemResponse, error) {
	storeID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollLineItemResponse{}, err
	}

	item, err := s.payrollRepo.GetLineItem(ctx, id, storeID)
	if err != nil {
		return payroll.PayrollLineItemResponse{}, err
	}

	return toLineItemResponse(item), nil
}

// ListLineItems implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListLineItems(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollResponse, error) {
	storeID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	filter.Normalize()

	items, total, err := s.payrollRepo.ListLineItems(ctx, storeID, filter)
	if err != nil {
		return payroll.ListPayrollResponse{}, fmt.Errorf("failed to list payroll line items: %w", err)
	}

	data := make([]payroll.PayrollLineItemResponse, 0, len(items))
	for _, item := range items {
		data = append(data, toLineItemResponse(item))
	}

	return payroll.ListPayrollResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *PayrollServiceImpl) resolveEmployees(ctx context.Context, ids []string, storeID string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		employees, err := s.employeeRepo.GetActiveByStoreID(ctx, storeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load active employees: %w", err)
		}
		return employees, nil
	}

	employees := make([]employee.Employee, 0, len(ids))
	for _, id := range ids {
		emp, err := s.employeeRepo.GetByID(ctx, id, storeID)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

// buildPeriodInput flattens finalized attendance and the shift calendar into
// the calculator's input. Only CLOCKED_OUT and APPROVED records carry pay;
// anything still open, pending or rejected is excluded.
func (s *PayrollServiceImpl) buildPeriodInput(ctx context.Context, emp employee.Employee, periodStart, periodEnd time.Time, storeID string) (PeriodInput, error) {
	records, err := s.attendanceRepo.ListForPeriod(ctx, emp.ID, periodStart, periodEnd, storeID)
	if err != nil {
		return PeriodInput{}, fmt.Errorf("failed to load attendance for employee %s: %w", emp.ID, err)
	}

	shifts, err := s.shiftRepo.FindForPeriod(ctx, emp.ID, periodStart, periodEnd)
	if err != nil {
		return PeriodInput{}, fmt.Errorf("failed to load shifts for employee %s: %w", emp.ID, err)
	}

	days := make([]DayRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status != attendance.StatusClockedOut && rec.Status != attendance.StatusApproved {
			continue
		}
		if rec.NetWorkMinutes == nil {
			continue
		}

		day := DayRecord{
			Date:           rec.WorkDate,
			NetWorkMinutes: *rec.NetWorkMinutes,
			Segments:       workedSegments(rec),
			Shift:          shifts[rec.WorkDate.Format(dateLayout)],
		}
		days = append(days, day)
	}

	return PeriodInput{
		Employee:    emp,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Days:        days,
	}, nil
}

func workedSegments(rec attendance.Attendance) []Segment {
	var segments []Segment
	if rec.ClockIn != nil && rec.ClockOut != nil {
		segments = append(segments, Segment{Start: *rec.ClockIn, End: *rec.ClockOut})
	}
	if rec.ClockIn2 != nil && rec.ClockOut2 != nil {
		segments = append(segments, Segment{Start: *rec.ClockIn2, End: *rec.ClockOut2})
	}
	return segments
}

func toLineItemResponse(item payroll.PayrollLineItem) payroll.PayrollLineItemResponse {
	resp := payroll.PayrollLineItemResponse{
		ID:              item.ID,
		EmployeeID:      item.EmployeeID,
		PeriodStart:     item.PeriodStart.Format(dateLayout),
		PeriodEnd:       item.PeriodEnd.Format(dateLayout),
		EmploymentType:  item.EmploymentType,
		HourlyRateUsed:  item.HourlyRateUsed,
		RegularHours:    item.RegularHours,
		OvertimeHours:   item.OvertimeHours,
		HolidayHours:    item.HolidayHours,
		NightShiftHours: item.NightShiftHours,
		BasePay:         item.BasePay,
		OvertimePay:     item.OvertimePay,
		HolidayPay:      item.HolidayPay,
		NightShiftPay:   item.NightShiftPay,
		GrossPay:        item.GrossPay,
	}
	if item.EmployeeName != nil {
		resp.EmployeeName = *item.EmployeeName
	}
	return resp
}

package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/payroll"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollColumns = `
	p.id, p.employee_id, p.store_id, p.period_start, p.period_end,
	p.employment_type, p.hourly_rate_used,
	p.regular_hours, p.overtime_hours, p.holiday_hours, p.night_shift_hours,
	p.base_pay, p.overtime_pay, p.holiday_pay, p.night_shift_pay, p.gross_pay,
	p.created_at, p.updated_at`

func scanLineItem(row pgx.Row) (payroll.PayrollLineItem, error) {
	var item payroll.PayrollLineItem
	err := row.Scan(
		&item.ID, &item.EmployeeID, &item.StoreID, &item.PeriodStart, &item.PeriodEnd,
		&item.EmploymentType, &item.HourlyRateUsed,
		&item.RegularHours, &item.OvertimeHours, &item.HolidayHours, &item.NightShiftHours,
		&item.BasePay, &item.OvertimePay, &item.HolidayPay, &item.NightShiftPay, &item.GrossPay,
		&item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

// UpsertLineItem implements payroll.PayrollRepository.
func (r *payrollRepository) UpsertLineItem(ctx context.Context, item payroll.PayrollLineItem) (payroll.PayrollLineItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_line_items (
			employee_id, store_id, period_start, period_end,
			employment_type, hourly_rate_used,
			regular_hours, overtime_hours, holiday_hours, night_shift_hours,
			base_pay, overtime_pay, holiday_pay, night_shift_pay, gross_pay
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		ON CONFLICT (employee_id, period_start, period_end) DO UPDATE SET
			employment_type = EXCLUDED.employment_type,
			hourly_rate_used = EXCLUDED.hourly_rate_used,
			regular_hours = EXCLUDED.regular_hours,
			overtime_hours = EXCLUDED.overtime_hours,
			holiday_hours = EXCLUDED.holiday_hours,
			night_shift_hours = EXCLUDED.night_shift_hours,
			base_pay = EXCLUDED.base_pay,
			overtime_pay = EXCLUDED.overtime_pay,
			holiday_pay = EXCLUDED.holiday_pay,
			night_shift_pay = EXCLUDED.night_shift_pay,
			gross_pay = EXCLUDED.gross_pay,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		item.EmployeeID, item.StoreID, item.PeriodStart, item.PeriodEnd,
		item.EmploymentType, item.HourlyRateUsed,
		item.RegularHours, item.OvertimeHours, item.HolidayHours, item.NightShiftHours,
		item.BasePay, item.OvertimePay, item.HolidayPay, item.NightShiftPay, item.GrossPay,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return payroll.PayrollLineItem{}, fmt.Errorf("failed to upsert payroll line item: %w", err)
	}

	return item, nil
}

// GetLineItem implements payroll.PayrollRepository.
func (r *payrollRepository) GetLineItem(ctx context.Context, id string, storeID string) (payroll.PayrollLineItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollColumns + `
		FROM payroll_line_items p
		WHERE p.id = $1 AND p.store_id = $2
		LIMIT 1
	`

	item, err := scanLineItem(q.QueryRow(ctx, query, id, storeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollLineItem{}, payroll.ErrLineItemNotFound
		}
		return payroll.PayrollLineItem{}, fmt.Errorf("failed to get payroll line item: %w", err)
	}

	return item, nil
}

// GetByEmployeePeriod implements payroll.PayrollRepository.
func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, employeeID string, periodStart, periodEnd time.Time, storeID string) (payroll.PayrollLineItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollColumns + `
		FROM payroll_line_items p
		WHERE p.employee_id = $1
		  AND p.period_start = $2
		  AND p.period_end = $3
		  AND p.store_id = $4
		LIMIT 1
	`

	item, err := scanLineItem(q.QueryRow(ctx, query, employeeID, periodStart, periodEnd, storeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollLineItem{}, payroll.ErrLineItemNotFound
		}
		return payroll.PayrollLineItem{}, fmt.Errorf("failed to get payroll line item for period: %w", err)
	}

	return item, nil
}

// ListLineItems implements payroll.PayrollRepository.
func (r *payrollRepository) ListLineItems(ctx context.Context, storeID string, filter payroll.PayrollFilter) ([]payroll.PayrollLineItem, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "p.store_id = $1"
	args := []interface{}{storeID}
	argIdx := 2

	if filter.PeriodStart != "" {
		baseWhere += fmt.Sprintf(" AND p.period_start >= $%d", argIdx)
		args = append(args, filter.PeriodStart)
		argIdx++
	}
	if filter.PeriodEnd != "" {
		baseWhere += fmt.Sprintf(" AND p.period_end <= $%d", argIdx)
		args = append(args, filter.PeriodEnd)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM payroll_line_items p WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll line items: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT `+payrollColumns+`,
			e.full_name AS employee_name
		FROM payroll_line_items p
		LEFT JOIN employees e ON e.id = p.employee_id
		WHERE `+baseWhere+`
		ORDER BY p.period_start DESC, e.full_name ASC
		LIMIT $%d OFFSET $%d
	`, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll line items: %w", err)
	}
	defer rows.Close()

	var items []payroll.PayrollLineItem
	for rows.Next() {
		var item payroll.PayrollLineItem
		err := rows.Scan(
			&item.ID, &item.EmployeeID, &item.StoreID, &item.PeriodStart, &item.PeriodEnd,
			&item.EmploymentType, &item.HourlyRateUsed,
			&item.RegularHours, &item.OvertimeHours, &item.HolidayHours, &item.NightShiftHours,
			&item.BasePay, &item.OvertimePay, &item.HolidayPay, &item.NightShiftPay, &item.GrossPay,
			&item.CreatedAt, &item.UpdatedAt,
			&item.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read payroll rows: %w", err)
	}

	return items, total, nil
}

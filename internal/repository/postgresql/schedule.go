package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftColumns = `
	id, employee_id, store_id, work_date, start_time, end_time,
	break_duration_minutes, max_break_count, is_split,
	split_break_start, split_break_end, created_at, updated_at`

func scanShift(row pgx.Row) (schedule.ShiftAssignment, error) {
	var s schedule.ShiftAssignment
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.StoreID, &s.WorkDate, &s.StartTime, &s.EndTime,
		&s.BreakDurationMinutes, &s.MaxBreakCount, &s.IsSplit,
		&s.SplitBreakStart, &s.SplitBreakEnd, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// FindForDay implements schedule.ShiftRepository.
func (r *shiftRepository) FindForDay(ctx context.Context, employeeID string, day time.Time) (*schedule.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + shiftColumns + `
		FROM shift_assignments
		WHERE employee_id = $1
		  AND work_date = $2
		LIMIT 1
	`

	s, err := scanShift(q.QueryRow(ctx, query, employeeID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, schedule.ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to find shift for day: %w", err)
	}

	return &s, nil
}

// FindForPeriod implements schedule.ShiftRepository.
func (r *shiftRepository) FindForPeriod(ctx context.Context, employeeID string, from, to time.Time) (map[string]*schedule.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + shiftColumns + `
		FROM shift_assignments
		WHERE employee_id = $1
		  AND work_date >= $2
		  AND work_date <= $3
		ORDER BY work_date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to find shifts for period: %w", err)
	}
	defer rows.Close()

	shifts := make(map[string]*schedule.ShiftAssignment)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		cp := s
		shifts[s.WorkDate.Format("2006-01-02")] = &cp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shift rows: %w", err)
	}

	return shifts, nil
}

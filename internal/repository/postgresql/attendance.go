package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.employee_id, a.store_id, a.work_date,
	a.clock_in, a.clock_out, a.clock_in_2, a.clock_out_2,
	a.status, a.total_minutes, a.break_minutes, a.net_work_minutes, a.overtime_minutes,
	a.review_note, a.created_at, a.updated_at`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.StoreID, &att.WorkDate,
		&att.ClockIn, &att.ClockOut, &att.ClockIn2, &att.ClockOut2,
		&att.Status, &att.TotalMinutes, &att.BreakMinutes, &att.NetWorkMinutes, &att.OvertimeMinutes,
		&att.ReviewNote, &att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}

// FindForDay implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindForDay(ctx context.Context, employeeID string, day time.Time, storeID string) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.employee_id = $1
		  AND a.work_date = $2
		  AND a.store_id = $3
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, day, storeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no record yet today
		}
		return nil, fmt.Errorf("failed to find attendance for day: %w", err)
	}

	if err := a.loadBreaks(ctx, &att); err != nil {
		return nil, err
	}

	return &att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			employee_id, store_id, work_date, clock_in, status
		) VALUES (
			$1, $2, $3, $4, $5
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		att.EmployeeID,
		att.StoreID,
		att.WorkDate,
		att.ClockIn,
		att.Status,
	).Scan(&att.ID, &att.CreatedAt, &att.UpdatedAt)

	if err != nil {
		// Unique violations on (employee_id, work_date) surface to the
		// service so it can map them to a retryable conflict.
		return attendance.Attendance{}, err
	}

	return att, nil
}

// Update implements attendance.AttendanceRepository. The status predicate
// serializes concurrent writers on the same row: whoever commits first
// changes the status, and the loser's UPDATE matches zero rows.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance, expected attendance.Status) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET clock_in = $1, clock_out = $2, clock_in_2 = $3, clock_out_2 = $4,
			status = $5, total_minutes = $6, break_minutes = $7,
			net_work_minutes = $8, overtime_minutes = $9, review_note = $10,
			updated_at = NOW()
		WHERE id = $11 AND store_id = $12 AND status = $13
	`

	tag, err := q.Exec(ctx, query,
		att.ClockIn, att.ClockOut, att.ClockIn2, att.ClockOut2,
		att.Status, att.TotalMinutes, att.BreakMinutes,
		att.NetWorkMinutes, att.OvertimeMinutes, att.ReviewNote,
		att.ID, att.StoreID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrConcurrentClockAction
	}

	return nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string, storeID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.id = $1 AND a.store_id = $2
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, id, storeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}

	if err := a.loadBreaks(ctx, &att); err != nil {
		return attendance.Attendance{}, err
	}

	return att, nil
}

// CreateBreak implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateBreak(ctx context.Context, br attendance.BreakRecord) (attendance.BreakRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_breaks (
			attendance_id, break_type, start_time
		) VALUES (
			$1, $2, $3
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		br.AttendanceID,
		br.Type,
		br.StartTime,
	).Scan(&br.ID, &br.CreatedAt, &br.UpdatedAt)

	if err != nil {
		return attendance.BreakRecord{}, fmt.Errorf("failed to create break: %w", err)
	}

	return br, nil
}

// UpdateBreak implements attendance.AttendanceRepository. A break can only
// be closed once; a second closer matches zero rows.
func (a *attendanceRepository) UpdateBreak(ctx context.Context, br attendance.BreakRecord) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_breaks
		SET end_time = $1, duration_minutes = $2, updated_at = NOW()
		WHERE id = $3 AND end_time IS NULL
	`

	tag, err := q.Exec(ctx, query, br.EndTime, br.DurationMinutes, br.ID)
	if err != nil {
		return fmt.Errorf("failed to update break: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrNoOpenBreak
	}

	return nil
}

// ListForPeriod implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListForPeriod(ctx context.Context, employeeID string, from, to time.Time, storeID string) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.employee_id = $1
		  AND a.work_date >= $2
		  AND a.work_date <= $3
		  AND a.store_id = $4
		ORDER BY a.work_date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for period: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance rows: %w", err)
	}

	for i := range records {
		if err := a.loadBreaks(ctx, &records[i]); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.ListFilter, storeID string) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "a.store_id = $1"
	args := []interface{}{storeID}
	argIdx := 2

	if filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, filter.EmployeeID)
		argIdx++
	}

	if filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.DateFrom != "" {
		baseWhere += fmt.Sprintf(" AND a.work_date >= $%d", argIdx)
		args = append(args, filter.DateFrom)
		argIdx++
	}
	if filter.DateTo != "" {
		baseWhere += fmt.Sprintf(" AND a.work_date <= $%d", argIdx)
		args = append(args, filter.DateTo)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM attendances a WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT `+attendanceColumns+`,
			e.full_name AS employee_name
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE `+baseWhere+`
		ORDER BY a.work_date DESC, a.clock_in DESC
		LIMIT $%d OFFSET $%d
	`, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		err := rows.Scan(
			&att.ID, &att.EmployeeID, &att.StoreID, &att.WorkDate,
			&att.ClockIn, &att.ClockOut, &att.ClockIn2, &att.ClockOut2,
			&att.Status, &att.TotalMinutes, &att.BreakMinutes, &att.NetWorkMinutes, &att.OvertimeMinutes,
			&att.ReviewNote, &att.CreatedAt, &att.UpdatedAt,
			&att.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read attendance rows: %w", err)
	}

	for i := range records {
		if err := a.loadBreaks(ctx, &records[i]); err != nil {
			return nil, 0, err
		}
	}

	return records, total, nil
}

// FindStaleOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindStaleOpen(ctx context.Context, cutoff time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.status IN ('CLOCKED_IN', 'ON_BREAK')
		  AND a.work_date < $1
		ORDER BY a.work_date ASC
	`

	rows, err := q.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale open attendances: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance rows: %w", err)
	}

	for i := range records {
		if err := a.loadBreaks(ctx, &records[i]); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// CreateAbsencesForDay implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateAbsencesForDay(ctx context.Context, day time.Time) (int64, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (employee_id, store_id, work_date, status)
		SELECT s.employee_id, s.store_id, s.work_date, 'ABSENT'
		FROM shift_assignments s
		LEFT JOIN attendances a
		  ON a.employee_id = s.employee_id AND a.work_date = s.work_date
		WHERE s.work_date = $1
		  AND a.id IS NULL
		ON CONFLICT (employee_id, work_date) DO NOTHING
	`

	tag, err := q.Exec(ctx, query, day)
	if err != nil {
		return 0, fmt.Errorf("failed to create absence records: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (a *attendanceRepository) loadBreaks(ctx context.Context, att *attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, attendance_id, break_type, start_time, end_time, duration_minutes,
			   created_at, updated_at
		FROM attendance_breaks
		WHERE attendance_id = $1
		ORDER BY start_time ASC
	`

	rows, err := q.Query(ctx, query, att.ID)
	if err != nil {
		return fmt.Errorf("failed to load breaks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var br attendance.BreakRecord
		err := rows.Scan(
			&br.ID, &br.AttendanceID, &br.Type, &br.StartTime, &br.EndTime, &br.DurationMinutes,
			&br.CreatedAt, &br.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan break: %w", err)
		}
		att.Breaks = append(att.Breaks, br)
	}

	return rows.Err()
}

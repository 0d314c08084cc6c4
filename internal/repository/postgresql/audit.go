package postgresql

import (
	"context"
	"fmt"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/audit"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.Sink {
	return &auditRepository{db: db}
}

// Record implements audit.Sink.
func (r *auditRepository) Record(ctx context.Context, entry audit.Entry) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO audit_log (
			employee_id, store_id, action, entity_type, entity_id, occurred_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := q.Exec(ctx, query,
		entry.EmployeeID, entry.StoreID, entry.Action, entry.EntityType, entry.EntityID, entry.At,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

package payroll

import (
	"context"
	"time"
)

// PayrollRepository persists computed line items. Upsert keeps payroll
// generation safely re-runnable for the same (employee, period).
type PayrollRepository interface {
	// UpsertLineItem inserts or replaces the line item for its
	// (employee, period_start, period_end) key.
	UpsertLineItem(ctx context.Context, item PayrollLineItem) (PayrollLineItem, error)

	// GetLineItem retrieves a line item by ID with store isolation.
	GetLineItem(ctx context.Context, id string, storeID string) (PayrollLineItem, error)

	// GetByEmployeePeriod retrieves the line item for one employee and period.
	GetByEmployeePeriod(ctx context.Context, employeeID string, periodStart, periodEnd time.Time, storeID string) (PayrollLineItem, error)

	// ListLineItems returns a store's line items with pagination.
	ListLineItems(ctx context.Context, storeID string, filter PayrollFilter) ([]PayrollLineItem, int64, error)
}

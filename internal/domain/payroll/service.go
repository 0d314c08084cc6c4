package payroll

import "context"

// PayrollService turns finalized attendance into pay line items.
type PayrollService interface {
	// GeneratePayroll computes and upserts line items for the period. Safe
	// to re-run: unchanged inputs produce identical totals.
	GeneratePayroll(ctx context.Context, req GeneratePayrollRequest) ([]PayrollLineItemResponse, error)

	// GetLineItem retrieves a single line item by ID.
	GetLineItem(ctx context.Context, id string) (PayrollLineItemResponse, error)

	// ListLineItems lists a store's line items.
	ListLineItems(ctx context.Context, filter PayrollFilter) (ListPayrollResponse, error)
}

package types

import "github.com/orderboard/api-server/internal/domains/orders/domain"

// CreateOrderInput carries the caller-supplied fields for a new order.
// The id and timestamp are always server-assigned.
type CreateOrderInput struct {
	Address       string
	Status        domain.Status
	CollectorName string
}

// UpdateOrderInput references an order and the fields to merge into it.
type UpdateOrderInput struct {
	ID    string
	Patch domain.OrderPatch
}

// BulkItemFailure records why one element of a bulk request was skipped.
type BulkItemFailure struct {
	Index int
	ID    string
	Err   error
}

// BulkResult collects per-element outcomes of a best-effort bulk operation.
// A failed element never aborts the rest of the batch.
type BulkResult struct {
	Succeeded []*domain.Order
	Failed    []BulkItemFailure
	// DeletedCount is set by bulk delete, where there is no entity to return.
	DeletedCount int
}

// Requested returns the total number of elements attempted.
func (r BulkResult) Requested() int {
	return len(r.Succeeded) + len(r.Failed)
}

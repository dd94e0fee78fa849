package mapper

import (
	"time"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
)

// OrderResponse is the wire representation shared by the REST surface and
// the realtime event payloads.
type OrderResponse struct {
	ID            string    `json:"id"`
	Address       string    `json:"address"`
	Status        string    `json:"status"`
	CollectorName string    `json:"collectorName"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// PageResponse wraps one page of query results.
type PageResponse struct {
	Items         []OrderResponse `json:"items"`
	Page          int             `json:"page"`
	PageSize      int             `json:"pageSize"`
	TotalMatching int             `json:"totalMatching"`
	TotalPages    int             `json:"totalPages"`
}

// CreateOrderRequest is the POST /orders body. The id and timestamp are
// always server-assigned.
type CreateOrderRequest struct {
	Address       string `json:"address" binding:"required,min=5,max=200"`
	Status        string `json:"status" binding:"required,oneof=pending en-route in-process completed cancelled"`
	CollectorName string `json:"collectorName" binding:"required,min=2,max=100"`
}

// UpdateOrderRequest is the PUT /orders/:id body; absent fields stay as-is.
type UpdateOrderRequest struct {
	Address       *string `json:"address" binding:"omitempty,min=5,max=200"`
	Status        *string `json:"status" binding:"omitempty,oneof=pending en-route in-process completed cancelled"`
	CollectorName *string `json:"collectorName" binding:"omitempty,min=2,max=100"`
}

// BulkUpdateItem pairs an order id with its partial fields.
type BulkUpdateItem struct {
	ID            string  `json:"id" binding:"required"`
	Address       *string `json:"address" binding:"omitempty,min=5,max=200"`
	Status        *string `json:"status" binding:"omitempty,oneof=pending en-route in-process completed cancelled"`
	CollectorName *string `json:"collectorName" binding:"omitempty,min=2,max=100"`
}

// BulkSummary reports the per-element outcome totals of a bulk call.
type BulkSummary struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BulkResponse is the common bulk-operation result shape.
type BulkResponse struct {
	Succeeded []OrderResponse `json:"succeeded"`
	Summary   BulkSummary     `json:"summary"`
}

// FromDomain converts a domain order to its wire shape.
func FromDomain(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:            order.ID,
		Address:       order.Address,
		Status:        string(order.Status),
		CollectorName: order.CollectorName,
		LastUpdated:   order.LastUpdated,
	}
}

// FromDomainList converts a slice of domain orders.
func FromDomainList(orders []*domain.Order) []OrderResponse {
	list := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		list = append(list, FromDomain(order))
	}
	return list
}

// FromPage converts a query result page.
func FromPage(page *types.OrderPage) PageResponse {
	return PageResponse{
		Items:         FromDomainList(page.Items),
		Page:          page.Page,
		PageSize:      page.PageSize,
		TotalMatching: page.TotalMatching,
		TotalPages:    page.TotalPages,
	}
}

// FromBulkResult converts a bulk outcome, counting per-element failures.
func FromBulkResult(result *types.BulkResult) BulkResponse {
	return BulkResponse{
		Succeeded: FromDomainList(result.Succeeded),
		Summary: BulkSummary{
			Requested: result.Requested(),
			Succeeded: len(result.Succeeded),
			Failed:    len(result.Failed),
		},
	}
}

// ToCreateInput maps the request body to the application input.
func (r CreateOrderRequest) ToCreateInput() types.CreateOrderInput {
	return types.CreateOrderInput{
		Address:       r.Address,
		Status:        domain.Status(r.Status),
		CollectorName: r.CollectorName,
	}
}

// ToPatch maps the set fields of an update body to a domain patch.
func (r UpdateOrderRequest) ToPatch() domain.OrderPatch {
	return toPatch(r.Address, r.Status, r.CollectorName)
}

// ToUpdateInput maps a bulk update element to the application input.
func (i BulkUpdateItem) ToUpdateInput() types.UpdateOrderInput {
	return types.UpdateOrderInput{
		ID:    i.ID,
		Patch: toPatch(i.Address, i.Status, i.CollectorName),
	}
}

func toPatch(address, status, collector *string) domain.OrderPatch {
	patch := domain.OrderPatch{Address: address, CollectorName: collector}
	if status != nil {
		s := domain.Status(*status)
		patch.Status = &s
	}
	return patch
}

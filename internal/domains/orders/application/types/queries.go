package types

import "github.com/orderboard/api-server/internal/domains/orders/domain"

// Sort directions accepted by PageRequest.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sortable fields accepted by PageRequest.
const (
	SortByLastUpdated = "lastUpdated"
	SortByID          = "id"
	SortByCollector   = "collectorName"
	SortByAddress     = "address"
	SortByStatus      = "status"
)

// OrderFilters narrows a query. Status filters by equality; SearchText is a
// case-insensitive substring match over id, collector name, and address
// (any one field matching is sufficient).
type OrderFilters struct {
	Status     *domain.Status
	SearchText string
}

// PageRequest selects and orders a slice of the filtered set. A PageSize of
// zero disables slicing and yields a single page.
type PageRequest struct {
	Page          int
	PageSize      int
	SortField     string
	SortDirection string
}

// OrderPage is one page of query results plus paging totals.
type OrderPage struct {
	Items         []*domain.Order
	Page          int
	PageSize      int
	TotalMatching int
	TotalPages    int
}

// HealthStatus is the tri-state service health derived from error recency.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthSnapshot reports coordinator health plus basic gauges.
type HealthSnapshot struct {
	Status         HealthStatus
	OrderCount     int
	ActiveSessions int
	LastErrorAt    *int64 // unix millis, nil when no error has occurred
}

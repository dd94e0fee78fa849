package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ordersmapper "github.com/orderboard/api-server/internal/domains/orders/adapters/http/mapper"
	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
)

// Query parameter bounds for GET /orders.
const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPage         = 1000
	maxPageSize     = 100
	// maxBulkItems caps bulk request bodies.
	maxBulkItems = 100
)

// OrdersAPI wires HTTP transport with the order coordinator.
type OrdersAPI struct {
	service ports.Service
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service.
func NewOrdersAPI(service ports.Service) OrdersAPI {
	return OrdersAPI{service: service}
}

// Get /orders
// Filtered, searched, sorted, paginated order listing
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	filters, page := parseListParams(c)
	result, err := api.service.ListOrders(c.Request.Context(), filters, page)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromPage(result))
}

// Get /orders/:orderId
// Find order by ID
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	id := c.Param("orderId")
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomain(order))
}

// Post /orders
// Create a new order; id and lastUpdated are server-assigned
func (api *OrdersAPI) CreateOrder(c *gin.Context) {
	var payload ordersmapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	saved, err := api.service.CreateOrder(c.Request.Context(), payload.ToCreateInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordersmapper.FromDomain(saved))
}

// Put /orders/:orderId
// Merge partial fields into an existing order
func (api *OrdersAPI) UpdateOrder(c *gin.Context) {
	var payload ordersmapper.UpdateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	merged, err := api.service.UpdateOrder(c.Request.Context(), types.UpdateOrderInput{
		ID:    c.Param("orderId"),
		Patch: payload.ToPatch(),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomain(merged))
}

// Delete /orders/:orderId
// Remove an order
func (api *OrdersAPI) DeleteOrder(c *gin.Context) {
	if err := api.service.DeleteOrder(c.Request.Context(), c.Param("orderId")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /orders/bulk
// Best-effort bulk create, capped at 100 elements
func (api *OrdersAPI) BulkCreate(c *gin.Context) {
	var payload []ordersmapper.CreateOrderRequest
	if !bindBulk(c, &payload) {
		return
	}
	inputs := make([]types.CreateOrderInput, 0, len(payload))
	for _, item := range payload {
		inputs = append(inputs, item.ToCreateInput())
	}
	result, err := api.service.CreateOrders(c.Request.Context(), inputs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromBulkResult(result))
}

// Put /orders/bulk
// Best-effort bulk update, capped at 100 elements
func (api *OrdersAPI) BulkUpdate(c *gin.Context) {
	var payload []ordersmapper.BulkUpdateItem
	if !bindBulk(c, &payload) {
		return
	}
	inputs := make([]types.UpdateOrderInput, 0, len(payload))
	for _, item := range payload {
		inputs = append(inputs, item.ToUpdateInput())
	}
	result, err := api.service.UpdateOrders(c.Request.Context(), inputs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromBulkResult(result))
}

// Delete /orders/bulk
// Best-effort bulk delete, capped at 100 elements
func (api *OrdersAPI) BulkDelete(c *gin.Context) {
	var payload struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	if !checkBulkSize(c, len(payload.IDs)) {
		return
	}
	result, err := api.service.DeleteOrders(c.Request.Context(), payload.IDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromBulkResult(result))
}

// Get /orders/stats
// Order count per status, all five statuses always present
func (api *OrdersAPI) StatusStats(c *gin.Context) {
	counts, err := api.service.StatusCounts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	stats := make(map[string]int, len(counts))
	for status, count := range counts {
		stats[string(status)] = count
	}
	c.JSON(http.StatusOK, stats)
}

// Get /orders/health
// Coordinator health snapshot; 503 while unhealthy
func (api *OrdersAPI) ServiceHealth(c *gin.Context) {
	snapshot, err := api.service.Health(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	body := gin.H{
		"status":         string(snapshot.Status),
		"orderCount":     snapshot.OrderCount,
		"activeSessions": snapshot.ActiveSessions,
	}
	if snapshot.LastErrorAt != nil {
		body["lastErrorAt"] = *snapshot.LastErrorAt
	}
	status := http.StatusOK
	if snapshot.Status == types.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, body)
}

// parseListParams clamps paging, drops unknown statuses, and whitelists sort
// fields. Invalid values degrade to defaults instead of erroring.
func parseListParams(c *gin.Context) (types.OrderFilters, types.PageRequest) {
	filters := types.OrderFilters{SearchText: c.Query("search")}
	if raw := c.Query("status"); raw != "" {
		if status := domain.Status(raw); domain.IsValidStatus(status) {
			filters.Status = &status
		}
	}

	page := types.PageRequest{
		Page:     clampInt(c.Query("page"), defaultPage, 1, maxPage),
		PageSize: clampInt(c.Query("pageSize"), defaultPageSize, 1, maxPageSize),
	}
	switch field := c.Query("sortBy"); field {
	case types.SortByID, types.SortByCollector, types.SortByAddress, types.SortByStatus, types.SortByLastUpdated:
		page.SortField = field
	default:
		page.SortField = types.SortByLastUpdated
	}
	switch order := c.Query("sortOrder"); order {
	case types.SortAsc, types.SortDesc:
		page.SortDirection = order
	}
	return filters, page
}

func clampInt(raw string, def, min, max int) int {
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

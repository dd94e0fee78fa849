package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	ordersmemory "github.com/orderboard/api-server/internal/domains/orders/adapters/memory"
	orderapp "github.com/orderboard/api-server/internal/domains/orders/application"
	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, ports.Service) {
	t.Helper()
	svc := orderapp.NewService(ordersmemory.NewRepository(), nil)
	router := NewRouter(ApiHandleFunctions{
		OrdersAPI: NewOrdersAPI(svc),
		HealthAPI: NewHealthAPI(),
	})
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func createOrder(t *testing.T, router *gin.Engine) map[string]any {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"address":       "12 Harbor Lane",
		"status":        "pending",
		"collectorName": "Ayesha",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode(t, rec)
}

func TestCreateOrder_ServerAssignsIDAndTimestamp(t *testing.T) {
	router, _ := newTestRouter(t)

	body := createOrder(t, router)
	require.True(t, strings.HasPrefix(body["id"].(string), "ORD-"))
	require.Equal(t, "pending", body["status"])
	require.NotEmpty(t, body["lastUpdated"])
}

func TestCreateOrder_ValidationProblem(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"address":       "1 st",
		"status":        "pending",
		"collectorName": "A",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	body := decode(t, rec)
	fields := body["extensions"].(map[string]any)["fields"].(map[string]any)
	require.Contains(t, fields, "address")
	require.Contains(t, fields, "collectorName")
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "request body is malformed", decode(t, rec)["detail"])
}

func TestGetOrder_NotFoundProblem(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/orders/ORD-missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	body := decode(t, rec)
	require.Equal(t, "/problems/not-found", body["type"])
	require.Contains(t, body["detail"], "ORD-missing")
}

func TestUpdateOrder_MergesPartialBody(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createOrder(t, router)
	id := created["id"].(string)

	rec := doJSON(t, router, http.MethodPut, "/orders/"+id, gin.H{"status": "en-route"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "en-route", body["status"])
	require.Equal(t, "12 Harbor Lane", body["address"])
	require.Equal(t, "Ayesha", body["collectorName"])
}

func TestUpdateOrder_RejectsUnknownStatus(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createOrder(t, router)

	rec := doJSON(t, router, http.MethodPut, "/orders/"+created["id"].(string), gin.H{"status": "shipped"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOrder_ThenGone(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createOrder(t, router)
	id := created["id"].(string)

	rec := doJSON(t, router, http.MethodDelete, "/orders/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/orders/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/orders/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders_ClampsPagingParams(t *testing.T) {
	router, _ := newTestRouter(t)
	createOrder(t, router)

	rec := doJSON(t, router, http.MethodGet, "/orders?page=0&pageSize=99999", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, float64(1), body["page"])
	require.Equal(t, float64(100), body["pageSize"])
}

func TestListOrders_UnknownStatusFilterIsDropped(t *testing.T) {
	router, _ := newTestRouter(t)
	createOrder(t, router)

	rec := doJSON(t, router, http.MethodGet, "/orders?status=shipped", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), decode(t, rec)["totalMatching"])
}

func TestListOrders_SearchFilters(t *testing.T) {
	router, _ := newTestRouter(t)
	createOrder(t, router)

	rec := doJSON(t, router, http.MethodGet, "/orders?search=ayesha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), decode(t, rec)["totalMatching"])

	rec = doJSON(t, router, http.MethodGet, "/orders?search=nomatch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(0), decode(t, rec)["totalMatching"])
}

func TestBulkCreate_ReportsPerElementOutcome(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders/bulk", []gin.H{
		{"address": "12 Harbor Lane", "status": "pending", "collectorName": "Ayesha"},
		{"address": "90 Dock Road", "status": "completed", "collectorName": "Marcus"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	summary := body["summary"].(map[string]any)
	require.Equal(t, float64(2), summary["requested"])
	require.Equal(t, float64(2), summary["succeeded"])
	require.Equal(t, float64(0), summary["failed"])
	require.Len(t, body["succeeded"], 2)
}

func TestBulkCreate_CapAndEmptyBody(t *testing.T) {
	router, _ := newTestRouter(t)

	oversized := make([]gin.H, maxBulkItems+1)
	for i := range oversized {
		oversized[i] = gin.H{"address": "12 Harbor Lane", "status": "pending", "collectorName": "Ayesha"}
	}
	rec := doJSON(t, router, http.MethodPost, "/orders/bulk", oversized)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode(t, rec)["detail"], "capped at 100")

	rec = doJSON(t, router, http.MethodPost, "/orders/bulk", []gin.H{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkUpdate_MixedBatch(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createOrder(t, router)

	rec := doJSON(t, router, http.MethodPut, "/orders/bulk", []gin.H{
		{"id": created["id"], "status": "completed"},
		{"id": "ORD-missing", "status": "completed"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode(t, rec)["summary"].(map[string]any)
	require.Equal(t, float64(2), summary["requested"])
	require.Equal(t, float64(1), summary["succeeded"])
	require.Equal(t, float64(1), summary["failed"])
}

func TestBulkDelete(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createOrder(t, router)

	rec := doJSON(t, router, http.MethodDelete, "/orders/bulk", gin.H{
		"ids": []string{created["id"].(string), "ORD-missing"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode(t, rec)["summary"].(map[string]any)
	require.Equal(t, float64(1), summary["succeeded"])
	require.Equal(t, float64(1), summary["failed"])

	rec = doJSON(t, router, http.MethodDelete, "/orders/bulk", gin.H{"ids": []string{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusStats_AllStatusesPresent(t *testing.T) {
	router, _ := newTestRouter(t)
	createOrder(t, router)

	rec := doJSON(t, router, http.MethodGet, "/orders/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Len(t, body, len(domain.AllStatuses))
	require.Equal(t, float64(1), body["pending"])
	require.Equal(t, float64(0), body["cancelled"])
}

func TestServiceHealth_Healthy(t *testing.T) {
	router, _ := newTestRouter(t)
	createOrder(t, router)

	rec := doJSON(t, router, http.MethodGet, "/orders/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, float64(1), body["orderCount"])
	require.NotContains(t, body, "lastErrorAt")
}

func TestServiceHealth_UnhealthyReturns503(t *testing.T) {
	svc := orderapp.NewService(brokenQueryRepo{}, nil)
	router := NewRouter(ApiHandleFunctions{
		OrdersAPI: NewOrdersAPI(svc),
		HealthAPI: NewHealthAPI(),
	})

	rec := doJSON(t, router, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/orders/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "unhealthy", body["status"])
	require.Contains(t, body, "lastErrorAt")
}

func TestLiveness(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode(t, rec)["status"])
}

// brokenQueryRepo fails reads but reports counts, so health probes reflect
// the recorded error instead of minting new ones.
type brokenQueryRepo struct{}

func (brokenQueryRepo) Create(context.Context, *domain.Order) (*domain.Order, error) {
	return nil, errors.New("store offline")
}
func (brokenQueryRepo) GetByID(context.Context, string) (*domain.Order, error) {
	return nil, errors.New("store offline")
}
func (brokenQueryRepo) Update(context.Context, string, domain.OrderPatch) (*domain.Order, error) {
	return nil, errors.New("store offline")
}
func (brokenQueryRepo) Delete(context.Context, string) error {
	return errors.New("store offline")
}
func (brokenQueryRepo) Query(context.Context, types.OrderFilters, types.PageRequest) (*types.OrderPage, error) {
	return nil, fmt.Errorf("store offline")
}
func (brokenQueryRepo) CountByStatus(context.Context) (map[domain.Status]int, error) {
	return nil, errors.New("store offline")
}
func (brokenQueryRepo) Count(context.Context) (int, error) { return 0, nil }

var _ ports.Repository = brokenQueryRepo{}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
)

func mustOrder(t *testing.T, id, address string, status domain.Status, collector string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, address, status, collector)
	require.NoError(t, err)
	return order
}

func seed(t *testing.T, repo *Repository, orders ...*domain.Order) {
	t.Helper()
	for _, order := range orders {
		_, err := repo.Create(context.Background(), order)
		require.NoError(t, err)
	}
}

func TestCreate_RejectsDuplicateID(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))

	_, err := repo.Create(context.Background(), mustOrder(t, "ORD-1", "90 Dock Road", domain.StatusPending, "Marcus"))
	require.ErrorIs(t, err, ports.ErrDuplicateID)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCreate_StampsLastUpdated(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := NewRepository().WithClock(func() time.Time { return fixed })

	saved, err := repo.Create(context.Background(), mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))
	require.NoError(t, err)
	require.Equal(t, fixed, saved.LastUpdated)
}

func TestGetByID_ReturnsClone(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))

	first, err := repo.GetByID(context.Background(), "ORD-1")
	require.NoError(t, err)
	first.CollectorName = "tampered"

	second, err := repo.GetByID(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Equal(t, "Ayesha", second.CollectorName)
}

func TestUpdate_MergesOnlySetFields(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))

	status := domain.StatusEnRoute
	merged, err := repo.Update(context.Background(), "ORD-1", domain.OrderPatch{Status: &status})
	require.NoError(t, err)
	require.Equal(t, domain.StatusEnRoute, merged.Status)
	require.Equal(t, "12 Harbor Lane", merged.Address)
	require.Equal(t, "Ayesha", merged.CollectorName)
}

func TestUpdate_UnknownID(t *testing.T) {
	repo := NewRepository()
	status := domain.StatusEnRoute
	_, err := repo.Update(context.Background(), "ORD-missing", domain.OrderPatch{Status: &status})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUpdate_InvalidPatchLeavesStoredStateIntact(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))

	bad := "x"
	_, err := repo.Update(context.Background(), "ORD-1", domain.OrderPatch{CollectorName: &bad})
	require.ErrorIs(t, err, domain.ErrInvalidCollector)

	stored, err := repo.GetByID(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Equal(t, "Ayesha", stored.CollectorName)
}

func TestDelete_UnknownID(t *testing.T) {
	repo := NewRepository()
	require.ErrorIs(t, repo.Delete(context.Background(), "ORD-missing"), ports.ErrNotFound)
}

func TestQuery_FilterAndSearchCombine(t *testing.T) {
	repo := NewRepository()
	seed(t, repo,
		mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"),
		mustOrder(t, "ORD-2", "90 Dock Road", domain.StatusPending, "Marcus"),
		mustOrder(t, "ORD-3", "7 Harbor View", domain.StatusCompleted, "Ayesha"),
	)

	pending := domain.StatusPending
	page, err := repo.Query(context.Background(), types.OrderFilters{Status: &pending, SearchText: "HARBOR"}, types.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalMatching)
	require.Equal(t, "ORD-1", page.Items[0].ID)
}

func TestQuery_SearchMatchesAnyField(t *testing.T) {
	repo := NewRepository()
	seed(t, repo,
		mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"),
		mustOrder(t, "ORD-2", "90 Dock Road", domain.StatusPending, "Marcus"),
	)

	byCollector, err := repo.Query(context.Background(), types.OrderFilters{SearchText: "marc"}, types.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, byCollector.TotalMatching)

	byID, err := repo.Query(context.Background(), types.OrderFilters{SearchText: "ord-2"}, types.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, byID.TotalMatching)
}

func TestQuery_PaginationBounds(t *testing.T) {
	repo := NewRepository()
	seed(t, repo,
		mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"),
		mustOrder(t, "ORD-2", "90 Dock Road", domain.StatusPending, "Marcus"),
		mustOrder(t, "ORD-3", "7 Harbor View", domain.StatusPending, "Priya"),
	)

	page, err := repo.Query(context.Background(), types.OrderFilters{}, types.PageRequest{Page: 2, PageSize: 2, SortField: types.SortByID, SortDirection: types.SortAsc})
	require.NoError(t, err)
	require.Equal(t, 3, page.TotalMatching)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	require.Equal(t, "ORD-3", page.Items[0].ID)

	beyond, err := repo.Query(context.Background(), types.OrderFilters{}, types.PageRequest{Page: 9, PageSize: 2})
	require.NoError(t, err)
	require.Empty(t, beyond.Items)
	require.Equal(t, 3, beyond.TotalMatching)
}

func TestQuery_RepeatedReadsAreIdentical(t *testing.T) {
	repo := NewRepository()
	seed(t, repo,
		mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"),
		mustOrder(t, "ORD-2", "90 Dock Road", domain.StatusPending, "Marcus"),
	)

	req := types.PageRequest{Page: 1, PageSize: 10, SortField: types.SortByID, SortDirection: types.SortAsc}
	first, err := repo.Query(context.Background(), types.OrderFilters{}, req)
	require.NoError(t, err)
	second, err := repo.Query(context.Background(), types.OrderFilters{}, req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestQuery_EqualKeysKeepInsertionOrder(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := NewRepository().WithClock(func() time.Time { return fixed })
	seed(t, repo,
		mustOrder(t, "ORD-b", "12 Harbor Lane", domain.StatusPending, "Ayesha"),
		mustOrder(t, "ORD-a", "90 Dock Road", domain.StatusPending, "Ayesha"),
		mustOrder(t, "ORD-c", "7 Harbor View", domain.StatusPending, "Ayesha"),
	)

	// Identical lastUpdated and collector on every row: the insertion
	// sequence is the only thing keeping the order stable.
	page, err := repo.Query(context.Background(), types.OrderFilters{}, types.PageRequest{SortField: types.SortByCollector})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.Equal(t, "ORD-b", page.Items[0].ID)
	require.Equal(t, "ORD-a", page.Items[1].ID)
	require.Equal(t, "ORD-c", page.Items[2].ID)
}

func TestQuery_DefaultSortIsNewestFirst(t *testing.T) {
	current := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := NewRepository().WithClock(func() time.Time {
		current = current.Add(time.Second)
		return current
	})
	seed(t, repo,
		mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"),
		mustOrder(t, "ORD-2", "90 Dock Road", domain.StatusPending, "Marcus"),
	)

	page, err := repo.Query(context.Background(), types.OrderFilters{}, types.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, "ORD-2", page.Items[0].ID)
	require.Equal(t, "ORD-1", page.Items[1].ID)
}

func TestCountByStatus_PadsAbsentStatuses(t *testing.T) {
	repo := NewRepository()
	seed(t, repo,
		mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"),
		mustOrder(t, "ORD-2", "90 Dock Road", domain.StatusPending, "Marcus"),
		mustOrder(t, "ORD-3", "7 Harbor View", domain.StatusCompleted, "Priya"),
	)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, len(domain.AllStatuses))
	require.Equal(t, 2, counts[domain.StatusPending])
	require.Equal(t, 1, counts[domain.StatusCompleted])
	require.Equal(t, 0, counts[domain.StatusCancelled])
}

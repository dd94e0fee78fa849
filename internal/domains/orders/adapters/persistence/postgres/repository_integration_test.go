//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
	"github.com/orderboard/api-server/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orderboard_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func mustOrder(t *testing.T, id, address string, status domain.Status, collector string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, address, status, collector)
	require.NoError(t, err)
	return order
}

func TestPostgresRepository_CreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Create(ctx, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))
	require.NoError(t, err)
	assert.False(t, saved.LastUpdated.IsZero())

	retrieved, err := repo.GetByID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "12 Harbor Lane", retrieved.Address)
	assert.Equal(t, domain.StatusPending, retrieved.Status)
	assert.Equal(t, "Ayesha", retrieved.CollectorName)
}

func TestPostgresRepository_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, mustOrder(t, "ORD-1", "90 Dock Road", domain.StatusPending, "Marcus"))
	assert.ErrorIs(t, err, ports.ErrDuplicateID)
}

func TestPostgresRepository_UpdateMergesPatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Create(ctx, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	status := domain.StatusEnRoute
	merged, err := repo.Update(ctx, "ORD-1", domain.OrderPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnRoute, merged.Status)
	assert.Equal(t, "12 Harbor Lane", merged.Address)
	assert.True(t, merged.LastUpdated.After(saved.LastUpdated))
}

func TestPostgresRepository_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "ORD-1"))

	_, err = repo.GetByID(ctx, "ORD-1")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "ORD-1"), ports.ErrNotFound)
}

func TestPostgresRepository_QueryFilterSearchPaginate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		status := domain.StatusPending
		if i > 3 {
			status = domain.StatusCompleted
		}
		_, err := repo.Create(ctx, mustOrder(t,
			fmt.Sprintf("ORD-%d", i),
			fmt.Sprintf("%d Harbor Lane", i),
			status,
			"Ayesha"))
		require.NoError(t, err)
	}

	pending := domain.StatusPending
	page, err := repo.Query(ctx, types.OrderFilters{Status: &pending}, types.PageRequest{
		Page: 1, PageSize: 2, SortField: types.SortByID, SortDirection: types.SortAsc,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalMatching)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "ORD-1", page.Items[0].ID)

	search, err := repo.Query(ctx, types.OrderFilters{SearchText: "ord-4"}, types.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, search.TotalMatching)
}

func TestPostgresRepository_CountByStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, mustOrder(t, "ORD-1", "12 Harbor Lane", domain.StatusPending, "Ayesha"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, mustOrder(t, "ORD-2", "90 Dock Road", domain.StatusCompleted, "Marcus"))
	require.NoError(t, err)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, len(domain.AllStatuses))
	assert.Equal(t, 1, counts[domain.StatusPending])
	assert.Equal(t, 1, counts[domain.StatusCompleted])
	assert.Equal(t, 0, counts[domain.StatusCancelled])
}

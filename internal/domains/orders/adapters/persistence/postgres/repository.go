package postgres

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderboard/api-server/internal/domains/orders/application/types"
	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. It implements the same
// contract as the memory adapter so the coordinator never knows the backend.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{})
	}
	return repo
}

// orderRecord maps the order entity to a relational table. Seq preserves
// insertion order as the stable sort tiebreak.
type orderRecord struct {
	Seq           int64     `gorm:"primaryKey;autoIncrement;column:seq"`
	ID            string    `gorm:"uniqueIndex;column:id;type:varchar(64)"`
	Address       string    `gorm:"column:address;type:varchar(200)"`
	Status        string    `gorm:"column:status;type:varchar(32);index"`
	CollectorName string    `gorm:"column:collector_name;type:varchar(100)"`
	LastUpdated   time.Time `gorm:"column:last_updated;index"`
}

func (orderRecord) TableName() string { return "orders" }

// Create inserts a new order; an existing id yields ErrDuplicateID.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	record.LastUpdated = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrDuplicateID
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Update merges the set patch fields and refreshes last_updated.
func (r *Repository) Update(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(current); err != nil {
		return nil, err
	}
	assignments := map[string]any{
		"address":        current.Address,
		"status":         string(current.Status),
		"collector_name": current.CollectorName,
		"last_updated":   time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", id).Updates(assignments)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes an order by identifier.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&orderRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Query applies the status filter, case-insensitive search, sort, and slice
// in SQL.
func (r *Repository) Query(ctx context.Context, filters types.OrderFilters, page types.PageRequest) (*types.OrderPage, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	tx := r.db.WithContext(ctx).Model(&orderRecord{})
	if filters.Status != nil {
		tx = tx.Where("status = ?", string(*filters.Status))
	}
	if needle := strings.TrimSpace(filters.SearchText); needle != "" {
		pattern := "%" + needle + "%"
		tx = tx.Where("id ILIKE ? OR collector_name ILIKE ? OR address ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	tx = tx.Order(orderClause(page.SortField, page.SortDirection)).Order("seq ASC")

	result := &types.OrderPage{
		Page:          page.Page,
		PageSize:      page.PageSize,
		TotalMatching: int(total),
	}
	if page.PageSize > 0 {
		result.TotalPages = int(math.Ceil(float64(total) / float64(page.PageSize)))
		if result.Page < 1 {
			result.Page = 1
		}
		tx = tx.Offset((result.Page - 1) * page.PageSize).Limit(page.PageSize)
	} else {
		result.Page = 1
		result.TotalPages = 1
	}

	var records []orderRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	result.Items = make([]*domain.Order, 0, len(records))
	for i := range records {
		result.Items = append(result.Items, records[i].toDomain())
	}
	return result, nil
}

// CountByStatus aggregates rows per status, padding absent statuses with zero.
func (r *Repository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	type row struct {
		Status string
		Total  int
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[domain.Status]int, len(domain.AllStatuses))
	for _, status := range domain.AllStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[domain.Status(row.Status)] = row.Total
	}
	return counts, nil
}

// Count returns the total number of stored orders.
func (r *Repository) Count(ctx context.Context) (int, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func orderClause(field, direction string) string {
	column := "last_updated"
	switch field {
	case types.SortByID:
		column = "id"
	case types.SortByCollector:
		column = "lower(collector_name)"
	case types.SortByAddress:
		column = "lower(address)"
	case types.SortByStatus:
		column = "status"
	}
	dir := "ASC"
	if direction == types.SortDesc || (direction == "" && column == "last_updated") {
		dir = "DESC"
	}
	return column + " " + dir
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:            order.ID,
		Address:       order.Address,
		Status:        string(order.Status),
		CollectorName: order.CollectorName,
		LastUpdated:   order.LastUpdated,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:            r.ID,
		Address:       r.Address,
		Status:        domain.Status(r.Status),
		CollectorName: r.CollectorName,
		LastUpdated:   r.LastUpdated,
	}
}

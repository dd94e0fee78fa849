package domain

import (
	"errors"
	"strings"
	"time"
)

// Status enumerates order progression. Any status may follow any other;
// the dashboard imposes no transition table.
type Status string

const (
	StatusPending   Status = "pending"
	StatusEnRoute   Status = "en-route"
	StatusInProcess Status = "in-process"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// AllStatuses lists every known status in display order.
var AllStatuses = []Status{StatusPending, StatusEnRoute, StatusInProcess, StatusCompleted, StatusCancelled}

const (
	MinAddressLen   = 5
	MaxAddressLen   = 200
	MinCollectorLen = 2
	MaxCollectorLen = 100
)

var (
	ErrEmptyID          = errors.New("order id must not be empty")
	ErrInvalidAddress   = errors.New("address must be between 5 and 200 characters")
	ErrInvalidCollector = errors.New("collector name must be between 2 and 100 characters")
	ErrInvalidStatus    = errors.New("order status is invalid")
)

// Order models a collection/delivery task tracked by the dashboard.
type Order struct {
	ID            string
	Address       string
	Status        Status
	CollectorName string
	LastUpdated   time.Time
}

// NewOrder validates and constructs an Order. LastUpdated is stamped by the
// repository on write, not here.
func NewOrder(id, address string, status Status, collectorName string) (*Order, error) {
	order := &Order{
		ID:            strings.TrimSpace(id),
		Address:       address,
		Status:        status,
		CollectorName: collectorName,
	}
	if order.Status == "" {
		order.Status = StatusPending
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces the entity invariants.
func (o *Order) Validate() error {
	if o.ID == "" {
		return ErrEmptyID
	}
	if n := len(o.Address); n < MinAddressLen || n > MaxAddressLen {
		return ErrInvalidAddress
	}
	if n := len(o.CollectorName); n < MinCollectorLen || n > MaxCollectorLen {
		return ErrInvalidCollector
	}
	if !IsValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// Touch refreshes the modification timestamp.
func (o *Order) Touch(now time.Time) {
	o.LastUpdated = now.UTC()
}

// IsValidStatus reports whether status is one of the five known values.
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusEnRoute, StatusInProcess, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// OrderPatch carries a shallow partial update. Nil fields are left untouched;
// the ID is never patchable.
type OrderPatch struct {
	Address       *string
	Status        *Status
	CollectorName *string
}

// Apply merges the set fields into order and revalidates the result.
func (p OrderPatch) Apply(order *Order) error {
	if p.Address != nil {
		order.Address = *p.Address
	}
	if p.Status != nil {
		order.Status = *p.Status
	}
	if p.CollectorName != nil {
		order.CollectorName = *p.CollectorName
	}
	return order.Validate()
}

// Empty reports whether the patch carries no fields at all.
func (p OrderPatch) Empty() bool {
	return p.Address == nil && p.Status == nil && p.CollectorName == nil
}

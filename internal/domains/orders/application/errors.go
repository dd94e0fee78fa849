package application

import (
	"errors"
	"fmt"

	"github.com/orderboard/api-server/internal/domains/orders/domain"
	"github.com/orderboard/api-server/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrOrderNotFound signals the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrder signals a create collided with an existing id.
	ErrDuplicateOrder = errors.New("order already exists")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrNotFound) {
		return ErrOrderNotFound
	}
	if errors.Is(err, ports.ErrDuplicateID) {
		return ErrDuplicateOrder
	}
	if errors.Is(err, domain.ErrEmptyID) ||
		errors.Is(err, domain.ErrInvalidAddress) ||
		errors.Is(err, domain.ErrInvalidCollector) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

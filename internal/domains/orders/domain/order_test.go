package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewOrder_DefaultsStatusToPending(t *testing.T) {
	order, err := NewOrder("ORD-1", "12 Harbor Lane", "", "Ayesha")
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.True(t, order.LastUpdated.IsZero())
}

func TestNewOrder_RejectsShortAddress(t *testing.T) {
	_, err := NewOrder("ORD-1", "1 st", StatusPending, "Ayesha")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestNewOrder_RejectsLongCollector(t *testing.T) {
	_, err := NewOrder("ORD-1", "12 Harbor Lane", StatusPending, strings.Repeat("x", MaxCollectorLen+1))
	require.ErrorIs(t, err, ErrInvalidCollector)
}

func TestNewOrder_RejectsUnknownStatus(t *testing.T) {
	_, err := NewOrder("ORD-1", "12 Harbor Lane", Status("shipped"), "Ayesha")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewOrder_RejectsEmptyID(t *testing.T) {
	_, err := NewOrder("   ", "12 Harbor Lane", StatusPending, "Ayesha")
	require.ErrorIs(t, err, ErrEmptyID)
}

func TestPatch_AppliesOnlySetFields(t *testing.T) {
	order, err := NewOrder("ORD-1", "12 Harbor Lane", StatusPending, "Ayesha")
	require.NoError(t, err)

	status := StatusEnRoute
	require.NoError(t, OrderPatch{Status: &status}.Apply(order))
	require.Equal(t, StatusEnRoute, order.Status)
	require.Equal(t, "12 Harbor Lane", order.Address)
	require.Equal(t, "Ayesha", order.CollectorName)
}

func TestPatch_RevalidatesMergedEntity(t *testing.T) {
	order, err := NewOrder("ORD-1", "12 Harbor Lane", StatusPending, "Ayesha")
	require.NoError(t, err)

	bad := "x"
	require.ErrorIs(t, OrderPatch{CollectorName: &bad}.Apply(order), ErrInvalidCollector)
}

func TestPatch_Empty(t *testing.T) {
	require.True(t, OrderPatch{}.Empty())
	addr := "90 Dock Road"
	require.False(t, OrderPatch{Address: &addr}.Empty())
}

package catalog

import (
	"testing"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	mfrID := uuid.New()

	t.Run("creates product with normalized part number", func(t *testing.T) {
		product, err := NewProduct(mfrID, "  cf226x ", "HP 26X High Yield Toner")
		require.NoError(t, err)

		assert.Equal(t, "CF226X", product.PartNumber)
		assert.Equal(t, ProductStatusActive, product.Status)
		assert.Equal(t, ProductSourceManual, product.Source)
		assert.False(t, product.IsPlaceholder)
		assert.Equal(t, "hp-26x-high-yield-toner", product.Slug)

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())
	})

	t.Run("rejects empty part number", func(t *testing.T) {
		_, err := NewProduct(mfrID, "  ", "Name")
		assert.Error(t, err)
	})

	t.Run("rejects nil manufacturer", func(t *testing.T) {
		_, err := NewProduct(uuid.Nil, "CF226X", "Name")
		assert.Error(t, err)
	})
}

func TestNewPlaceholderProduct(t *testing.T) {
	product, err := NewPlaceholderProduct(uuid.New(), "B08N5WRWNW", "Echo Dot", ProductSourceAmazon)
	require.NoError(t, err)

	assert.True(t, product.IsPlaceholder)
	assert.Equal(t, ProductSourceAmazon, product.Source)
	assert.Empty(t, product.Description)
}

func TestProductStatusTransitions(t *testing.T) {
	t.Run("status change emits event", func(t *testing.T) {
		product, _ := NewProduct(uuid.New(), "X1", "Widget")
		product.ClearDomainEvents()

		require.NoError(t, product.ChangeStatus(ProductStatusDiscontinued))
		assert.Equal(t, ProductStatusDiscontinued, product.Status)
		assert.False(t, product.IsSellable())

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		changed := events[0].(*ProductStatusChangedEvent)
		assert.Equal(t, ProductStatusActive, changed.OldStatus)
		assert.Equal(t, ProductStatusDiscontinued, changed.NewStatus)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		product, _ := NewProduct(uuid.New(), "X1", "Widget")
		product.ClearDomainEvents()
		version := product.Version

		require.NoError(t, product.ChangeStatus(ProductStatusActive))
		assert.Equal(t, version, product.Version)
		assert.Empty(t, product.GetDomainEvents())
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		product, _ := NewProduct(uuid.New(), "X1", "Widget")
		assert.Error(t, product.ChangeStatus("archived"))
	})
}

func TestProductDemoFlag(t *testing.T) {
	t.Run("marking demo reactivates product", func(t *testing.T) {
		product, _ := NewProduct(uuid.New(), "X1", "Widget")
		require.NoError(t, product.ChangeStatus(ProductStatusPending))

		require.NoError(t, product.SetDemo(true))
		assert.True(t, product.IsDemo)
		assert.Equal(t, ProductStatusActive, product.Status)
	})

	t.Run("demo products cannot be discontinued", func(t *testing.T) {
		product, _ := NewProduct(uuid.New(), "X1", "Widget")
		require.NoError(t, product.SetDemo(true))

		assert.Error(t, product.ChangeStatus(ProductStatusDiscontinued))
	})
}

func TestRecordFutureDemand(t *testing.T) {
	product, err := NewPlaceholderProduct(uuid.New(), "B0ABCDEFGH", "Gadget", ProductSourceAmazon)
	require.NoError(t, err)
	product.ClearDomainEvents()

	product.RecordFutureDemand()
	product.RecordFutureDemand()

	assert.Equal(t, 2, product.FutureDemandCount)
	assert.Equal(t, ProductStatusFutureOpportunity, product.Status)

	events := product.GetDomainEvents()
	require.Len(t, events, 2)
	last := events[1].(*FutureDemandRecordedEvent)
	assert.Equal(t, 2, last.DemandCount)
}

func TestPromoteFromPlaceholder(t *testing.T) {
	product, _ := NewPlaceholderProduct(uuid.New(), "B0ABCDEFGH", "Gadget", ProductSourceAmazon)

	require.NoError(t, product.PromoteFromPlaceholder("Gadget Pro", "Full description"))
	assert.False(t, product.IsPlaceholder)
	assert.Equal(t, "Gadget Pro", product.Name)

	assert.ErrorIs(t, product.PromoteFromPlaceholder("Again", ""), shared.ErrInvalidState)
}

func TestIsASIN(t *testing.T) {
	assert.True(t, IsASIN("B08N5WRWNW"))
	assert.True(t, IsASIN(" b08n5wrwnw "))
	assert.False(t, IsASIN("CF226X"))
	assert.False(t, IsASIN("B08N5"))
	assert.False(t, IsASIN("A08N5WRWNW"))
}

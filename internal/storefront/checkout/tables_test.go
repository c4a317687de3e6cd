package checkout

import (
	"testing"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables_EveryMethodResolves(t *testing.T) {
	tables := DefaultTables()

	for _, m := range DeliveryMethods {
		sels, ok := tables.Delivery(m)
		require.True(t, ok, m)
		assert.NotEmpty(t, sels[0], m)
	}
	for _, p := range payment.Providers {
		sels, ok := tables.Payment(p)
		require.True(t, ok, p)
		assert.NotEmpty(t, sels[0], p)
	}
	assert.NotEmpty(t, tables.Agreement())
	assert.NotEmpty(t, tables.PayButton())
}

func TestTables_Immutable(t *testing.T) {
	delivery := map[DeliveryMethod][]string{DeliveryAtRoom: {"#room"}}
	tables := NewTables(delivery, nil, []string{"#agree"}, []string{"#pay"})

	delivery[DeliveryAtRoom][0] = "#changed"
	delivery[DeliveryStandard] = []string{"#new"}

	sels, ok := tables.Delivery(DeliveryAtRoom)
	require.True(t, ok)
	assert.Equal(t, []string{"#room"}, sels)
	_, ok = tables.Delivery(DeliveryStandard)
	assert.False(t, ok)

	sels[0] = "#mutated"
	again, _ := tables.Delivery(DeliveryAtRoom)
	assert.Equal(t, "#room", again[0])

	tables.PayButton()[0] = "#mutated"
	assert.Equal(t, []string{"#pay"}, tables.PayButton())
}

func TestTables_UnknownMethods(t *testing.T) {
	tables := DefaultTables()

	_, ok := tables.Delivery("Drone")
	assert.False(t, ok)
	_, ok = tables.Payment("PayPal")
	assert.False(t, ok)
}

func TestTables_DeliveryMethodsSorted(t *testing.T) {
	assert.Equal(t, []DeliveryMethod{DeliveryAtRoom, DeliveryStandard}, DefaultTables().DeliveryMethods())
}

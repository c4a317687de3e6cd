package checkout

import (
	"testing"
	"time"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/retry"
	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "agreement-checked", StateAgreementChecked.String())
	assert.Equal(t, "terminal", StateTerminal.String())
	assert.Equal(t, "state(99)", State(99).String())
}

func TestState_Ordered(t *testing.T) {
	order := []State{
		StateIdle, StateFieldsFilled, StateDeliverySelected, StatePaymentSelected,
		StateContinueClicked, StateAgreementChecked, StateSubmitted, StateTerminal,
	}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}
}

func TestStreetSelectors(t *testing.T) {
	templates := []string{`input[name="street[%d]"]`, `input[placeholder="Adresse"]`}

	assert.Equal(t, []string{`input[name="street[0]"]`, `input[placeholder="Adresse"]`}, streetSelectors(templates, 0))
	assert.Equal(t, []string{`input[name="street[1]"]`}, streetSelectors(templates, 1))
	assert.Empty(t, streetSelectors([]string{`#street`}, 2))
}

func TestMarkers_Ready(t *testing.T) {
	full := Markers{Container: true, Contact: true, ShippingCount: 2, PaymentCount: 4}
	assert.True(t, full.Ready())

	tests := []struct {
		name string
		m    Markers
	}{
		{"no contact", Markers{Container: true, ShippingCount: 2, PaymentCount: 4}},
		{"no shipping", Markers{Container: true, Contact: true, PaymentCount: 4}},
		{"no payment", Markers{Container: true, Contact: true, ShippingCount: 2}},
		{"no container", Markers{Contact: true, ShippingCount: 2, PaymentCount: 4}},
		{"empty", Markers{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.m.Ready())
		})
	}
}

func TestBudgets_Validate(t *testing.T) {
	assert.NoError(t, DefaultBudgets().Validate())

	b := DefaultBudgets()
	b.Submit = retry.Budget{Attempts: 0, Interval: time.Second}
	assert.ErrorContains(t, b.Validate(), "submit")

	b = DefaultBudgets()
	b.Click = 0
	assert.Error(t, b.Validate())

	b = DefaultBudgets()
	b.AddToCart = 0
	assert.ErrorContains(t, b.Validate(), "add_to_cart")
}

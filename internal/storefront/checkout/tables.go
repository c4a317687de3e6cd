package checkout

import (
	"maps"
	"slices"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/payment"
)

// Tables maps delivery and payment methods to candidate selectors for the
// element to click, plus the agreement and pay button selectors. It is
// read-only once built.
type Tables struct {
	delivery  map[DeliveryMethod][]string
	payment   map[payment.Provider][]string
	agreement []string
	pay       []string
}

// NewTables copies the given maps into an immutable table.
func NewTables(delivery map[DeliveryMethod][]string, pay map[payment.Provider][]string, agreement, payButton []string) Tables {
	t := Tables{
		delivery:  make(map[DeliveryMethod][]string, len(delivery)),
		payment:   make(map[payment.Provider][]string, len(pay)),
		agreement: slices.Clone(agreement),
		pay:       slices.Clone(payButton),
	}
	for m, sels := range delivery {
		t.delivery[m] = slices.Clone(sels)
	}
	for p, sels := range pay {
		t.payment[p] = slices.Clone(sels)
	}
	return t
}

// DefaultTables returns the selectors of the Menzzo checkout. Labels come
// first: the radios themselves are often visually hidden.
func DefaultTables() Tables {
	return NewTables(
		map[DeliveryMethod][]string{
			DeliveryAtRoom: {
				`label[for="s_method_room"]`,
				`input[type="radio"][value$="_room"]`,
			},
			DeliveryStandard: {
				`label[for="s_method_standard"]`,
				`input[type="radio"][value$="_standard"]`,
			},
		},
		map[payment.Provider][]string{
			payment.Stripe: {
				`label[for="stripe_payments"]`,
				`input[name="payment[method]"][value="stripe_payments"]`,
			},
			payment.Klarna: {
				`label[for="klarna_pay_later"]`,
				`input[name="payment[method]"][value^="klarna"]`,
			},
			payment.Scalapay: {
				`label[for="scalapay"]`,
				`input[name="payment[method]"][value^="scalapay"]`,
			},
			payment.SeQura: {
				`label[for="sequra_pp"]`,
				`input[name="payment[method]"][value^="sequra"]`,
			},
		},
		[]string{
			`.checkout-agreement input[type="checkbox"]`,
			`input[type="checkbox"][name^="agreement"]`,
		},
		[]string{
			`#place-order`,
			`button.action.primary.checkout`,
			`.payment-method._active button.checkout`,
		},
	)
}

// Delivery returns the selectors for m.
func (t Tables) Delivery(m DeliveryMethod) ([]string, bool) {
	sels, ok := t.delivery[m]
	return slices.Clone(sels), ok && len(sels) > 0
}

// Payment returns the selectors for p.
func (t Tables) Payment(p payment.Provider) ([]string, bool) {
	sels, ok := t.payment[p]
	return slices.Clone(sels), ok && len(sels) > 0
}

// Agreement returns the legal agreement checkbox selectors.
func (t Tables) Agreement() []string { return slices.Clone(t.agreement) }

// PayButton returns the place-order button selectors.
func (t Tables) PayButton() []string { return slices.Clone(t.pay) }

// DeliveryMethods lists the methods present in the table, sorted.
func (t Tables) DeliveryMethods() []DeliveryMethod {
	return slices.Sorted(maps.Keys(t.delivery))
}

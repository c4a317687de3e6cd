// Package checkout drives the storefront checkout: it waits for the
// asynchronous checkout widget, fills the shipping form, selects delivery
// and payment methods, accepts the legal agreement and places the order.
package checkout

import (
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/payment"
)

// DeliveryMethod is a shipping option, named as the storefront labels it.
type DeliveryMethod string

const (
	DeliveryAtRoom   DeliveryMethod = "Home Delivery - At Room"
	DeliveryStandard DeliveryMethod = "Home Delivery - Standard"
)

// DeliveryMethods lists every known delivery method.
var DeliveryMethods = []DeliveryMethod{DeliveryAtRoom, DeliveryStandard}

// Form is the shopper data a flow submits. Empty fields leave the matching
// input untouched.
type Form struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   []string // one entry per street line
	Postcode  string
	City      string
	Country   string // ISO code, as in the country select values

	Delivery DeliveryMethod
	Payment  payment.Provider
}

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
)

// fixtureDir resolves testdata/fixtures next to this file so fixtures load
// from any package's tests.
func fixtureDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "testdata", "fixtures")
}

// LoadFixture reads testdata/fixtures/<name>.html. Pairs of vars are
// substituted as {{KEY}} placeholders.
func LoadFixture(t *testing.T, name string, vars ...string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(fixtureDir(), name+".html"))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", name, err)
	}
	if len(vars)%2 != 0 {
		t.Fatalf("fixture %s: odd number of substitution arguments", name)
	}

	pairs := make([]string, 0, len(vars))
	for i := 0; i < len(vars); i += 2 {
		pairs = append(pairs, "{{"+vars[i]+"}}", vars[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(string(data))
}

// Storefront URLs served by fixture sessions.
const (
	CheckoutURL = "https://www.menzzo.fr/checkout/"
	ProductURL  = "https://www.menzzo.fr/canape-d-angle-oslo-gris.html"
	CategoryURL = "https://www.menzzo.fr/canape.html"
	LoginURL    = "https://www.menzzo.fr/customer/account/login/"
)

// Provider landing pages the checkout fixture hands over to.
const (
	StripeURL   = "https://checkout.stripe.com/c/pay/cs_test_menzzo1"
	KlarnaURL   = "https://pay.klarna.com/eu/hpp/payments/menzzo1"
	ScalapayURL = "https://portal.scalapay.com/checkout/menzzo1"
	SeQuraURL   = "https://live.sequracdn.com/assets/widget.html"
)

// Checkout renders the checkout fixture for a locale. Shipping and payment
// options are injected after the given delays in milliseconds.
func Checkout(t *testing.T, loc *locale.Context, shippingDelay, paymentDelay int) string {
	t.Helper()
	return LoadFixture(t, "checkout",
		"LANG", string(loc.Code()),
		"TITLE", loc.Title(locale.PageCheckout),
		"CONTINUE", loc.Label(locale.ActionContinue),
		"PAY", loc.Label(locale.ActionPay),
		"SHIPPING_DELAY", strconv.Itoa(shippingDelay),
		"PAYMENT_DELAY", strconv.Itoa(paymentDelay),
	)
}

// CheckoutSite serves the checkout fixture at CheckoutURL together with
// every provider landing page.
func CheckoutSite(t *testing.T, loc *locale.Context) *Site {
	t.Helper()
	return NewSite().
		Page(CheckoutURL, Checkout(t, loc, 200, 400)).
		Page(StripeURL, LoadFixture(t, "provider", "PROVIDER", "Stripe")).
		Page(KlarnaURL, LoadFixture(t, "provider", "PROVIDER", "Klarna")).
		Page(ScalapayURL, LoadFixture(t, "provider", "PROVIDER", "Scalapay")).
		Page(SeQuraURL, LoadFixture(t, "provider", "PROVIDER", "SeQura"))
}

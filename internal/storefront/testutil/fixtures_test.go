package testutil

import (
	"testing"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixture_Substitutes(t *testing.T) {
	html := LoadFixture(t, "provider", "PROVIDER", "Klarna")

	assert.Contains(t, html, "<title>Klarna</title>")
	assert.NotContains(t, html, "{{")
}

func TestCheckout_UsesLocaleLabels(t *testing.T) {
	loc, err := locale.Load(locale.NL)
	require.NoError(t, err)

	html := Checkout(t, loc, 0, 0)

	assert.Contains(t, html, `<html lang="nl">`)
	assert.Contains(t, html, ">Doorgaan</button>")
	assert.Contains(t, html, ">Betalen</button>")
	assert.NotContains(t, html, "{{")
}

func TestCheckoutSite_ServesProviders(t *testing.T) {
	loc, err := locale.Load(locale.FR)
	require.NoError(t, err)

	r := NewReplayer(CheckoutSite(t, loc).HAR())

	for _, u := range []string{CheckoutURL, StripeURL, KlarnaURL, ScalapayURL, SeQuraURL} {
		_, ok := r.Lookup(u)
		assert.True(t, ok, u)
	}
}

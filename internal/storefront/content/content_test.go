package content

import (
	"strings"
	"testing"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/data"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frContext(t *testing.T) *locale.Context {
	t.Helper()
	loc, err := locale.Load(locale.FR)
	require.NoError(t, err)
	return loc
}

func productHTML(t *testing.T, sku string) string {
	return testutil.LoadFixture(t, "product",
		"ENTITY_ID", "4242", "SKU", sku, "STOCK", "available", "STOCK_LABEL", "En stock")
}

var oslo = data.Product{EntityID: 4242, SKU: "OSLO-GR", Price: 129999, SpecialPrice: 109900}

func TestValidateProduct(t *testing.T) {
	loc := frContext(t)

	t.Run("matches catalog", func(t *testing.T) {
		assert.NoError(t, ValidateProduct(productHTML(t, "OSLO-GR"), loc, oslo))
	})

	t.Run("reports every mismatch", func(t *testing.T) {
		p := oslo
		p.SpecialPrice = 0
		p.EntityID = 1
		err := ValidateProduct(productHTML(t, "OTHER"), loc, p)
		require.Error(t, err)
		assert.ErrorIs(t, err, storefront.ErrVerification)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Problems, 3)
		assert.Contains(t, err.Error(), `sku is "OTHER"`)
		assert.Contains(t, err.Error(), "price is 1099,00 €, want 1299,99 €")
	})

	t.Run("missing add to cart", func(t *testing.T) {
		html := strings.Replace(productHTML(t, "OSLO-GR"), "Ajouter au panier", "Indisponible", 1)
		err := ValidateProduct(html, loc, oslo)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no "Ajouter au panier" button`)
	})
}

func TestValidateCategory(t *testing.T) {
	html := testutil.LoadFixture(t, "category")

	assert.NoError(t, ValidateCategory(html, data.Category{Name: "Canapés"}))

	err := ValidateCategory(html, data.Category{Name: "Lits"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `title is "Canapés", want "Lits"`)

	empty := `<html><body><h1 class="page-title">Canapés</h1><ol class="product-items"></ol></body></html>`
	err = ValidateCategory(empty, data.Category{Name: "Canapés"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty product grid")
}

func TestValidateSEO(t *testing.T) {
	html := productHTML(t, "OSLO-GR")

	assert.NoError(t, ValidateSEO(html, locale.FR, locale.Codes))

	err := ValidateSEO(html, locale.DE, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `html lang is "fr-FR", want de`)

	stripped := strings.Replace(html, `hreflang="pt-pt"`, `hreflang="x-default"`, 1)
	err = ValidateSEO(stripped, locale.FR, locale.Codes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hreflang alternate for pt")

	noCanonical := strings.Replace(html, `rel="canonical"`, `rel="prev"`, 1)
	assert.ErrorIs(t, ValidateSEO(noCanonical, locale.FR, nil), storefront.ErrVerification)
}

func TestValidateSocialLogin(t *testing.T) {
	html := testutil.LoadFixture(t, "login")
	assert.NoError(t, ValidateSocialLogin(html))

	noFacebook := strings.Replace(html, "social-btn facebook", "social-btn", 1)
	noFacebook = strings.Replace(noFacebook, "/type/facebook/", "/", 1)
	err := ValidateSocialLogin(noFacebook)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no facebook login button")
}

func TestParseEuroAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1\u00a0099,00\u202f€", 109900},
		{"1 099,00 €", 109900},
		{"€1.299,99", 129999},
		{"649,00 EUR", 64900},
		{" 12 € ", 1200},
	}
	for _, tt := range tests {
		got, err := ParseEuroAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseEuroAmount("€")
	assert.Error(t, err)
}

func TestValidateCMSPage(t *testing.T) {
	page := data.CMSPage{ID: 12, Path: "livraison"}

	ok := `<html><body class="cms-page-view"><main><h1 class="page-title">Livraison</h1><p>Livraison offerte.</p></main></body></html>`
	assert.NoError(t, ValidateCMSPage(ok, page))

	notFound := `<html><body class="cms-no-route"><main><h1 class="page-title">Oups</h1><p>Page introuvable</p></main></body></html>`
	err := ValidateCMSPage(notFound, page)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cms livraison page: rendered the 404 page")
}

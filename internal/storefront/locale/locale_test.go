package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want Code
	}{
		{"https://www.menzzo.fr/canapes.html", FR},
		{"https://www.menzzo.be/", FR},
		{"https://www.menzzo.de/sofas.html", DE},
		{"https://www.menzzo.at", DE},
		{"https://www.menzzo.nl/checkout/", NL},
		{"https://www.menzzo.it", IT},
		{"https://www.menzzo.es", ES},
		{"https://www.menzzo.pt", PT},
		{"https://staging.menzzo.fr/checkout/#shipping", FR},
		{"https://WWW.MENZZO.DE", DE},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := FromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromURL_Errors(t *testing.T) {
	_, err := FromURL("https://www.menzzo.co.uk")
	assert.ErrorContains(t, err, "no locale for host")

	_, err = FromURL("/checkout/")
	assert.ErrorContains(t, err, "has no host")

	_, err = FromURL("://bad")
	assert.Error(t, err)
}

func TestFromLang(t *testing.T) {
	code, ok := FromLang("de-AT")
	assert.True(t, ok)
	assert.Equal(t, DE, code)

	code, ok = FromLang(" NL_nl ")
	assert.True(t, ok)
	assert.Equal(t, NL, code)

	code, ok = FromLang("pt")
	assert.True(t, ok)
	assert.Equal(t, PT, code)

	_, ok = FromLang("en-GB")
	assert.False(t, ok)

	_, ok = FromLang("")
	assert.False(t, ok)
}

func TestLoad_EveryLocaleHasCompleteDictionary(t *testing.T) {
	fields := []Field{FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldStreet, FieldPostcode, FieldCity}
	actions := []Action{ActionAddToCart, ActionAcceptCookie, ActionContinue, ActionPay, ActionCheckout, ActionLogin}
	pages := []PageKind{PageHome, PageCart, PageCheckout, PageLogin}

	for _, code := range Codes {
		t.Run(string(code), func(t *testing.T) {
			ctx, err := Load(code)
			require.NoError(t, err)
			assert.Equal(t, code, ctx.Code())

			for _, f := range fields {
				sels := ctx.Selectors(f)
				require.GreaterOrEqual(t, len(sels), 2, "field %s needs shared and locale selectors", f)
			}
			for _, a := range actions {
				assert.NotEmpty(t, ctx.Label(a), "missing label %s", a)
			}
			for _, p := range pages {
				assert.NotEmpty(t, ctx.Title(p), "missing title %s", p)
			}
		})
	}
}

func TestLoad_SharedSelectorsComeFirst(t *testing.T) {
	ctx, err := Load(FR)
	require.NoError(t, err)

	sels := ctx.Selectors(FieldFirstName)
	assert.Equal(t, `input[name="firstname"]`, sels[0])
	assert.Equal(t, `input[placeholder="Prénom"]`, sels[len(sels)-1])
	assert.Equal(t, `input[name="street[%d]"]`, ctx.Selectors(FieldStreet)[0])
}

func TestContext_SelectorsAreCopies(t *testing.T) {
	ctx, err := Load(DE)
	require.NoError(t, err)

	sels := ctx.Selectors(FieldCity)
	sels[0] = "mutated"

	assert.NotEqual(t, "mutated", ctx.Selectors(FieldCity)[0])
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load(Code("xx"))
	assert.ErrorContains(t, err, "read locale file xx")
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Get(IT)
	require.NoError(t, err)
	b, err := reg.Get(IT)
	require.NoError(t, err)
	assert.Same(t, a, b)

	fallback, err := reg.ForLang("en-US")
	require.NoError(t, err)
	assert.Equal(t, Default, fallback.Code())

	nl, err := reg.ForURL("https://www.menzzo.nl/")
	require.NoError(t, err)
	assert.Equal(t, "Doorgaan", nl.Label(ActionContinue))
}

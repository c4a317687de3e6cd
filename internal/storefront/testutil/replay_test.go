package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayer_Lookup(t *testing.T) {
	har := NewSite().
		Page("https://www.menzzo.fr/checkout/?step=1", "first").
		Page("https://www.menzzo.fr/checkout/?step=2", "second").
		HAR()
	r := NewReplayer(har)

	e, ok := r.Lookup("https://www.menzzo.fr/checkout/?step=2")
	require.True(t, ok)
	assert.Equal(t, "second", e.Response.Content.Text)

	e, ok = r.Lookup("https://www.menzzo.fr/checkout/?step=9")
	require.True(t, ok, "falls back to path match")
	assert.Equal(t, "first", e.Response.Content.Text)

	_, ok = r.Lookup("https://www.menzzo.de/checkout/")
	assert.False(t, ok)
}

func TestReplayer_ResolvesRedirectChain(t *testing.T) {
	har := NewSite().
		Redirect("https://menzzo.fr/", "https://www.menzzo.fr/").
		Redirect("https://www.menzzo.fr/", "https://www.menzzo.fr/fr/").
		Page("https://www.menzzo.fr/fr/", "home").
		HAR()
	r := NewReplayer(har)

	start, ok := r.Lookup("https://menzzo.fr/")
	require.True(t, ok)

	assert.Equal(t, "home", r.resolve(start).Response.Content.Text)
}

func TestReplayer_UnrecordedRedirectTarget(t *testing.T) {
	har := NewSite().Redirect("https://www.menzzo.fr/old", "https://www.menzzo.fr/new").HAR()
	r := NewReplayer(har)

	start, _ := r.Lookup("https://www.menzzo.fr/old")

	assert.Equal(t, 302, r.resolve(start).Response.Status)
}

func TestReplayer_RedirectLoopIsBounded(t *testing.T) {
	har := NewSite().
		Redirect("https://a.menzzo.fr/", "https://b.menzzo.fr/").
		Redirect("https://b.menzzo.fr/", "https://a.menzzo.fr/").
		HAR()
	r := NewReplayer(har)

	start, _ := r.Lookup("https://a.menzzo.fr/")

	assert.Equal(t, 302, r.resolve(start).Response.Status)
}

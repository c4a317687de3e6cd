package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDOM_Plain(t *testing.T) {
	page := setupPage(t, `<html><body><div id="plain"><p>Panier vide</p></div></body></html>`)

	snap, err := SnapshotDOM(page)

	require.NoError(t, err)
	assert.Zero(t, snap.Shadows)
	assert.Zero(t, snap.Frames)
	assert.Contains(t, snap.HTML, `id="plain"`)
	assert.Contains(t, snap.HTML, "Panier vide")
}

func TestSnapshotDOM_InlinesShadowAndFrame(t *testing.T) {
	page := setupPage(t, `<html><body>
		<payment-widget></payment-widget>
		<iframe srcdoc="<p>Inside frame</p>"></iframe>
	</body></html>`)
	page.MustEval(`() => {
		const host = document.querySelector('payment-widget');
		host.attachShadow({mode: 'open'}).innerHTML = '<span class="total">129,00 €</span>';
	}`)
	WaitForFrames(page)

	snap, err := SnapshotDOM(page)

	require.NoError(t, err)
	assert.Equal(t, 1, snap.Shadows)
	assert.Equal(t, 1, snap.Frames)
	assert.Contains(t, snap.HTML, `data-snapshot-shadow="payment-widget"`)
	assert.Contains(t, snap.HTML, "129,00 €")
	assert.Contains(t, snap.HTML, "Inside frame")
}

func TestSnapshotDOM_LeavesLivePageIntact(t *testing.T) {
	page := setupPage(t, `<html><body><iframe srcdoc="<p>x</p>"></iframe></body></html>`)
	WaitForFrames(page)

	_, err := SnapshotDOM(page)
	require.NoError(t, err)

	count := page.MustEval(`() => document.querySelectorAll('iframe').length`).Int()
	assert.Equal(t, 1, count)
}

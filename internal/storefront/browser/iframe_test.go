package browser

import (
	"testing"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBySelector_SkipsHiddenFrames(t *testing.T) {
	page := setupPage(t, `<html><body>
		<iframe class="widget" id="stale" style="display:none" srcdoc="<p>stale</p>"></iframe>
		<iframe class="widget" id="live" srcdoc="<p id='w'>live</p>"></iframe>
	</body></html>`)
	WaitForFrames(page)

	iframe, frame, err := FrameBySelector(page, "iframe.widget")

	require.NoError(t, err)
	id, err := iframe.Attribute("id")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "live", *id)
	assert.Equal(t, "live", frame.MustElement("#w").MustText())
}

func TestFrameBySelector_NoVisibleFrame(t *testing.T) {
	page := setupPage(t, `<html><body>
		<iframe class="widget" style="display:none" srcdoc="<p>hidden</p>"></iframe>
	</body></html>`)

	_, _, err := FrameBySelector(page, "iframe.widget")

	require.Error(t, err)
	assert.ErrorIs(t, err, storefront.ErrNotFound)

	_, _, err = FrameBySelector(page, "iframe.absent")
	assert.ErrorIs(t, err, storefront.ErrNotFound)
}

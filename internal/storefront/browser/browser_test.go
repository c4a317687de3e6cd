package browser

import (
	"testing"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/require"
)

// setupPage creates a headless browser and a page loaded with html. The
// browser is closed via t.Cleanup. Skipped with -short.
func setupPage(t *testing.T, html string) *rod.Page {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}

	browser := rod.New().MustConnect()
	t.Cleanup(func() { browser.MustClose() })

	page := browser.MustPage("about:blank")
	page.MustWaitLoad()
	require.NoError(t, page.SetDocumentContent(html))
	return page
}

func clicked(t *testing.T, page *rod.Page) string {
	t.Helper()
	return page.MustEval(`() => document.body.dataset.clicked || ''`).Str()
}

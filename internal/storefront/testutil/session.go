package testutil

import (
	"testing"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"go.uber.org/zap/zaptest"
)

// NewReplaySession starts a headless browser whose every request, popups
// included, is answered from har. The session is closed via t.Cleanup.
// Skipped with -short.
func NewReplaySession(t *testing.T, har *HARLog) *browser.Session {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}

	log := zaptest.NewLogger(t)

	b := rod.New().MustConnect()
	t.Cleanup(func() { _ = b.Close() })

	router := b.HijackRequests()
	router.MustAdd("*", NewReplayer(har, WithLogger(log)).Middleware())
	go router.Run()
	t.Cleanup(func() { _ = router.Stop() })

	page := b.MustPage("")
	return browser.NewSession(b, page, log)
}

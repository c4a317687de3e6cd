package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

func newRun(t *testing.T) *Run {
	t.Helper()
	run, err := NewRun(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return run
}

func TestNewRun(t *testing.T) {
	run := newRun(t)

	assert.Len(t, run.ID, 36)
	assert.Contains(t, filepath.Base(run.Dir), run.ID[:8])
	info, err := os.Stat(run.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAttachments(t *testing.T) {
	run := newRun(t)

	p1, err := run.AttachText("fr checkout/stripe", "error", "boom")
	require.NoError(t, err)
	p2, err := run.AttachText("fr checkout/stripe", "error", "again")
	require.NoError(t, err)

	assert.Equal(t, "fr_checkout_stripe_error.txt", filepath.Base(p1))
	assert.Equal(t, "fr_checkout_stripe_error_2.txt", filepath.Base(p2))

	got, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, "again", string(got))

	png, err := run.AttachPNG("fr checkout/stripe", "shot", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(png))
}

func TestCaptureFailureWithoutPage(t *testing.T) {
	run := newRun(t)

	cause := &storefront.StepError{
		Locale: "nl", Step: "select payment", Target: "klarna_pay_later",
		Elapsed: 3 * time.Second, Cause: storefront.ErrVerification,
	}
	require.NoError(t, run.CaptureFailure(nil, "nl klarna", cause))

	data, err := os.ReadFile(filepath.Join(run.Dir, "nl_klarna_error.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[nl] select payment failed")
	assert.Contains(t, string(data), "target: klarna_pay_later")
	assert.Contains(t, string(data), "elapsed: 3s")
}

func TestCaptureFailureWithPage(t *testing.T) {
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	b := rod.New().MustConnect()
	t.Cleanup(func() { b.MustClose() })
	page := b.MustPage("about:blank")
	require.NoError(t, page.SetDocumentContent(`<html><body><h1>Paiement refusé</h1></body></html>`))

	run := newRun(t)
	require.NoError(t, run.CaptureFailure(page, "fr stripe", errors.New("declined")))

	for _, name := range []string{"fr_stripe_error.txt", "fr_stripe_screenshot.png", "fr_stripe_dom.html"} {
		assert.FileExists(t, filepath.Join(run.Dir, name))
	}
	dom, err := os.ReadFile(filepath.Join(run.Dir, "fr_stripe_dom.html"))
	require.NoError(t, err)
	assert.Contains(t, string(dom), "Paiement refusé")
}

func TestSummary(t *testing.T) {
	run := newRun(t)

	_, err := run.AttachText("b", "error", "x")
	require.NoError(t, err)

	assert.Equal(t, StatusPass, run.Record("a", time.Second, nil).Status)
	failed := run.Record("b", 2*time.Second, storefront.ErrTimeout)
	assert.Equal(t, StatusFail, failed.Status)
	assert.Equal(t, []string{"b_error.txt"}, failed.Attachments)
	assert.Equal(t, StatusSkip, run.Record("c", 0, storefront.Skip("out of stock")).Status)

	require.NoError(t, run.Close())

	data, err := os.ReadFile(filepath.Join(run.Dir, "summary.yaml"))
	require.NoError(t, err)
	var s Summary
	require.NoError(t, yaml.Unmarshal(data, &s))

	assert.Equal(t, run.ID, s.RunID)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	require.Len(t, s.Results, 3)
	assert.Equal(t, "a", s.Results[0].Scenario)
	assert.Equal(t, 2*time.Second, s.Results[1].Duration)
}

// Package e2e drives the production storefronts. The scenarios run only
// with E2E_TEST_MODE=live; the flows they compose are covered against
// fixtures in the storefront packages.
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/grez-lucas/menzzo-e2e/internal/config"
	"github.com/grez-lucas/menzzo-e2e/internal/observability"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/report"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/testutil"
	"go.uber.org/zap"
)

const scenarioTimeout = 3 * time.Minute

var (
	cfg     *config.Config
	logger  *zap.Logger
	run     *report.Run
	locales = locale.NewRegistry()
)

func TestMain(m *testing.M) {
	if testutil.CurrentMode() != testutil.ModeLive {
		os.Exit(m.Run())
	}
	if err := setup(); err != nil {
		fmt.Fprintf(os.Stderr, "e2e setup: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := run.Close(); err != nil {
		logger.Error("failed to write run summary", zap.Error(err))
	}
	_ = logger.Sync()
	os.Exit(code)
}

func setup() error {
	path := os.Getenv("E2E_CONFIG")
	if path == "" {
		path = "e2e.yaml"
	}

	var err error
	if cfg, err = config.LoadConfig(path); err != nil {
		return err
	}
	if err := cfg.LoadEnv(".env"); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = observability.NewStdoutLogger(cfg.Logger)
	run, err = report.NewRun(cfg.ReportDir, logger)
	return err
}

// scenario runs fn in a fresh browser session. Failures are captured into
// the run report before the test fails; skip signals skip the test.
func scenario(t *testing.T, fn func(ctx context.Context, sess *browser.Session) error) {
	t.Helper()
	testutil.SkipUnlessMode(t, testutil.ModeLive)

	log := logger.With(zap.String("scenario", t.Name()))
	sess, err := browser.Launch(cfg.Browser, log)
	if err != nil {
		t.Fatalf("launch browser: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), scenarioTimeout)
	defer cancel()

	start := time.Now()
	err = fn(ctx, sess)
	if err != nil && !storefront.IsSkip(err) {
		if cerr := run.CaptureFailure(sess.Page(), t.Name(), err); cerr != nil {
			t.Logf("diagnostics incomplete: %v", cerr)
		}
	}
	run.Record(t.Name(), time.Since(start), err)

	switch {
	case err == nil:
	case storefront.IsSkip(err):
		t.Skip(err.Error())
	default:
		t.Fatal(err)
	}
}

// open navigates to a site path and dismisses the cookie banner.
func open(ctx context.Context, sess *browser.Session, site, path string) (*locale.Context, error) {
	u, err := cfg.SiteURL(site, path)
	if err != nil {
		return nil, err
	}
	if err := sess.Goto(ctx, u); err != nil {
		return nil, err
	}
	loc, err := locales.ForURL(u)
	if err != nil {
		return nil, err
	}
	browser.NewClicker(sess.Logger()).DismissCookieBanner(ctx, sess.Page(), loc.Label(locale.ActionAcceptCookie), 5*time.Second)
	return loc, nil
}

package payment

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/retry"
	"go.uber.org/zap"
)

// Budgets bounds each confirmation wait.
type Budgets struct {
	Redirect  time.Duration       `yaml:"redirect"`
	PopupLoad time.Duration       `yaml:"popup_load"`
	Widget    time.Duration       `yaml:"widget"`
	Interval  time.Duration       `yaml:"interval"`
	Patterns  map[Provider]string `yaml:"patterns,omitempty"`
}

// DefaultBudgets returns the budgets used against production providers.
func DefaultBudgets() Budgets {
	return Budgets{
		Redirect:  60 * time.Second,
		PopupLoad: 30 * time.Second,
		Widget:    30 * time.Second,
		Interval:  250 * time.Millisecond,
	}
}

// Detector confirms provider hand-over after an order is submitted.
type Detector struct {
	budgets  Budgets
	patterns map[Provider]*regexp.Regexp
	log      *zap.Logger
}

// NewDetector returns a Detector. Budgets.Patterns overrides the provider
// URL patterns.
func NewDetector(b Budgets, log *zap.Logger) (*Detector, error) {
	if log == nil {
		log = zap.NewNop()
	}
	patterns, err := compilePatterns(b.Patterns)
	if err != nil {
		return nil, err
	}
	return &Detector{budgets: b, patterns: patterns, log: log}, nil
}

// Pattern returns the URL pattern a confirmed payment for p must match.
func (d *Detector) Pattern(p Provider) *regexp.Regexp {
	return d.patterns[p]
}

// Expectation is an armed confirmation. It must be created before the
// order is submitted so a popup opened by the submit click is not missed.
type Expectation struct {
	d        *Detector
	ctx      context.Context
	cancel   context.CancelFunc
	sess     *browser.Session
	page     *rod.Page
	provider Provider
	popup    func() (*rod.Page, error)
}

// Expect arms the popup listener on the driven tab for provider.
func (d *Detector) Expect(ctx context.Context, sess *browser.Session, provider Provider) *Expectation {
	ctx, cancel := context.WithCancel(ctx)
	page := sess.Page()

	e := &Expectation{
		d:        d,
		ctx:      ctx,
		cancel:   cancel,
		sess:     sess,
		page:     page,
		provider: provider,
	}
	if provider.racing() {
		e.popup = page.Context(ctx).WaitOpen()
	}
	return e
}

// Cancel releases the popup listener without confirming.
func (e *Expectation) Cancel() {
	e.cancel()
}

// Confirm blocks until the provider took over, or its budget is spent.
func (e *Expectation) Confirm() (Outcome, error) {
	defer e.cancel()

	start := time.Now()
	var (
		out Outcome
		err error
	)

	switch {
	case e.provider.embedded():
		out, err = e.confirmWidget()
	case e.provider.racing():
		out, err = e.confirmRace()
	default:
		out, err = e.confirmRedirect()
	}

	if err != nil {
		return Outcome{}, &storefront.StepError{
			Step:    "confirm payment",
			Target:  string(e.provider),
			Elapsed: time.Since(start),
			Cause:   err,
		}
	}

	e.d.log.Info("payment confirmed",
		zap.String("provider", string(e.provider)),
		zap.Stringer("kind", out.Kind),
		zap.String("url", out.URL),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

func (e *Expectation) budget(total time.Duration) retry.Budget {
	return retry.Within(total, e.d.budgets.Interval)
}

// confirmRedirect asserts the driven tab reached the provider. When the
// driven tab never does, every other tab is checked once: some browsers
// turn a redirect into a new target.
func (e *Expectation) confirmRedirect() (Outcome, error) {
	pattern := e.d.patterns[e.provider]

	u, err := e.waitURL(e.ctx, e.budget(e.d.budgets.Redirect), pattern)
	if err == nil {
		return Outcome{Kind: KindSameTabRedirect, URL: u}, nil
	}

	page, scanErr := e.sess.Recover(pattern)
	if scanErr != nil {
		return Outcome{}, err
	}
	info, infoErr := page.Info()
	if infoErr != nil {
		return Outcome{}, err
	}
	e.d.log.Warn("provider reached in another tab", zap.String("url", info.URL))
	return Outcome{Kind: KindSameTabRedirect, URL: info.URL}, nil
}

// confirmRace races popup against same-tab redirect. A popup is only
// accepted once it finished loading on the provider's domain.
func (e *Expectation) confirmRace() (Outcome, error) {
	pattern := e.d.patterns[e.provider]

	ctx, cancel := context.WithTimeout(e.ctx, e.d.budgets.Redirect)
	defer cancel()

	var redirectURL string
	out, err := Race(ctx,
		func(ctx context.Context) (Window, error) {
			return e.waitPopup(ctx)
		},
		func(ctx context.Context) error {
			u, err := e.waitURL(ctx, e.budget(e.d.budgets.Redirect), pattern)
			redirectURL = u
			return err
		})
	if err != nil {
		return Outcome{}, err
	}

	if out.Kind == KindSameTabRedirect {
		out.URL = redirectURL
		return out, nil
	}

	if err := waitLoad(e.ctx, out.Popup, e.d.budgets.PopupLoad); err != nil {
		return Outcome{}, fmt.Errorf("popup load: %w", err)
	}
	u, err := pollWindowURL(e.ctx, out.Popup, e.budget(e.d.budgets.PopupLoad), pattern)
	if err != nil {
		return Outcome{}, err
	}
	out.URL = u

	if w, ok := out.Popup.(*rodWindow); ok {
		e.sess.Use(w.page)
	}
	return out, nil
}

func (e *Expectation) waitPopup(ctx context.Context) (Window, error) {
	type opened struct {
		page *rod.Page
		err  error
	}
	ch := make(chan opened, 1)
	go func() {
		p, err := e.popup()
		ch <- opened{p, err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, o.err
		}
		return &rodWindow{page: o.page}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// confirmWidget waits for the provider's iframe to show in the page with a
// frame attached to it.
func (e *Expectation) confirmWidget() (Outcome, error) {
	sel := widgetSelectors[e.provider]
	var src string

	err := retry.Poll(e.ctx, e.budget(e.d.budgets.Widget), func(ctx context.Context) (bool, error) {
		iframe, frame, err := browser.FrameBySelector(e.page.Context(ctx), sel)
		if err != nil {
			return false, nil
		}
		if s, err := iframe.Attribute("src"); err == nil && s != nil {
			src = *s
		}
		e.d.log.Debug("widget frame attached",
			zap.String("provider", string(e.provider)),
			zap.String("frame", string(frame.FrameID)))
		return true, nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%s widget: %w", e.provider, err)
	}
	return Outcome{Kind: KindEmbedded, URL: src}, nil
}

func (e *Expectation) waitURL(ctx context.Context, b retry.Budget, pattern *regexp.Regexp) (string, error) {
	var last string
	err := retry.Poll(ctx, b, func(ctx context.Context) (bool, error) {
		info, err := e.page.Context(ctx).Info()
		if err != nil {
			return false, err
		}
		last = info.URL
		return pattern.MatchString(info.URL), nil
	})
	if err != nil {
		return "", fmt.Errorf("tab at %q never matched %s: %w", last, pattern, err)
	}
	return last, nil
}

func waitLoad(ctx context.Context, w Window, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := w.WaitLoad(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", storefront.ErrTimeout, ctx.Err())
		}
		return err
	}
	return nil
}

func pollWindowURL(ctx context.Context, w Window, b retry.Budget, pattern *regexp.Regexp) (string, error) {
	var last string
	err := retry.Poll(ctx, b, func(context.Context) (bool, error) {
		u, err := w.URL()
		if err != nil {
			return false, err
		}
		last = u
		return pattern.MatchString(u), nil
	})
	if err != nil {
		return "", fmt.Errorf("popup at %q never matched %s: %w", last, pattern, err)
	}
	return last, nil
}

// rodWindow adapts a rod page to Window.
type rodWindow struct {
	page *rod.Page
}

func (w *rodWindow) WaitLoad(ctx context.Context) error {
	return w.page.Context(ctx).WaitLoad()
}

func (w *rodWindow) URL() (string, error) {
	info, err := w.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

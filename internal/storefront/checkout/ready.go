package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/retry"
	"go.uber.org/zap"
)

// Markers is one observation of the checkout widget.
type Markers struct {
	Container     bool `json:"container"`
	Contact       bool `json:"contact"`
	ShippingCount int  `json:"shipping"`
	PaymentCount  int  `json:"payment"`
}

// Ready reports whether every marker is present in this observation.
func (m Markers) Ready() bool {
	return m.Container && m.Contact && m.ShippingCount > 0 && m.PaymentCount > 0
}

// MarkerSelectors locate the readiness markers.
type MarkerSelectors struct {
	Container string `yaml:"container"`
	Contact   string `yaml:"contact"`
	Shipping  string `yaml:"shipping"`
	Payment   string `yaml:"payment"`
}

// DefaultMarkerSelectors returns the Menzzo checkout markers.
func DefaultMarkerSelectors() MarkerSelectors {
	return MarkerSelectors{
		Container: `#checkout, .checkout-container`,
		Contact:   `#customer-email, input[name="username"][type="email"], input[name="firstname"]`,
		Shipping:  `#checkout-shipping-method-load input[type="radio"], input[name="shipping_method"]`,
		Payment:   `input[name="payment[method]"]`,
	}
}

// markersJS reads all markers in a single evaluation so they are observed
// together.
const markersJS = `(s) => ({
	container: !!document.querySelector(s.Container),
	contact: !!document.querySelector(s.Contact),
	shipping: document.querySelectorAll(s.Shipping).length,
	payment: document.querySelectorAll(s.Payment).length,
})`

// ReadMarkers observes the checkout markers on page.
func ReadMarkers(page *rod.Page, sel MarkerSelectors) (Markers, error) {
	res, err := page.Eval(markersJS, sel)
	if err != nil {
		return Markers{}, fmt.Errorf("read checkout markers: %w", err)
	}
	var m Markers
	if err := res.Value.Unmarshal(&m); err != nil {
		return Markers{}, fmt.Errorf("decode checkout markers: %w", err)
	}
	return m, nil
}

// CheckoutPattern matches checkout URLs on every site variant.
var CheckoutPattern = regexp.MustCompile(`/checkout(/|$|\?|#)`)

// Waiter polls the checkout until the widget finished initializing.
type Waiter struct {
	Selectors MarkerSelectors
	Interval  time.Duration
	Pattern   *regexp.Regexp
	Log       *zap.Logger
}

// NewWaiter returns a Waiter with the default markers and a 500ms interval.
func NewWaiter(log *zap.Logger) *Waiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Waiter{
		Selectors: DefaultMarkerSelectors(),
		Interval:  500 * time.Millisecond,
		Pattern:   CheckoutPattern,
		Log:       log,
	}
}

// WaitUntilReady blocks until all markers are present in one observation.
// When the driven tab is lost, the session is pointed at an open tab on the
// checkout and the wait restarts once.
func (w *Waiter) WaitUntilReady(ctx context.Context, sess *browser.Session, timeout time.Duration) error {
	start := time.Now()
	budget := retry.Within(timeout, w.Interval)

	err := w.poll(ctx, sess.Page(), budget)
	if errors.Is(err, storefront.ErrContextLost) {
		page, rerr := sess.Recover(w.Pattern)
		if rerr != nil {
			err = rerr
		} else {
			w.Log.Warn("checkout tab replaced, waiting again")
			err = w.poll(ctx, page, budget)
		}
	}
	if err != nil {
		return &storefront.StepError{
			Step:    "wait for checkout",
			Target:  budget.String(),
			Elapsed: time.Since(start),
			Cause:   err,
		}
	}

	w.Log.Debug("checkout ready", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (w *Waiter) poll(ctx context.Context, page *rod.Page, budget retry.Budget) error {
	var last Markers
	err := retry.Poll(ctx, budget, func(ctx context.Context) (bool, error) {
		p := page.Context(ctx)
		if _, err := p.Info(); err != nil {
			return false, retry.Stop(fmt.Errorf("%w: %v", storefront.ErrContextLost, err))
		}
		m, err := ReadMarkers(p, w.Selectors)
		if err != nil {
			// Execution context destroyed while the page reloads.
			return false, err
		}
		last = m
		return m.Ready(), nil
	})
	if err != nil && errors.Is(err, storefront.ErrTimeout) {
		return fmt.Errorf("%w (last seen %+v)", err, last)
	}
	return err
}

// WaitUntilReady waits with the default Waiter.
func WaitUntilReady(ctx context.Context, sess *browser.Session, timeout time.Duration) error {
	return NewWaiter(sess.Logger()).WaitUntilReady(ctx, sess, timeout)
}

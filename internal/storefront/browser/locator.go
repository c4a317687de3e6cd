package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"go.uber.org/zap"
)

// Strategy is one step of the click cascade, ordered from semantically
// precise to best effort.
type Strategy int

const (
	StrategyButtonRole Strategy = iota + 1
	StrategyLinkRole
	StrategyExactText
	StrategyEngineText
	StrategyNormalizedText
	StrategyContainsText
	StrategyDispatch
)

func (s Strategy) String() string {
	switch s {
	case StrategyButtonRole:
		return "button-role"
	case StrategyLinkRole:
		return "link-role"
	case StrategyExactText:
		return "exact-text"
	case StrategyEngineText:
		return "engine-text"
	case StrategyNormalizedText:
		return "normalized-text"
	case StrategyContainsText:
		return "contains-text"
	case StrategyDispatch:
		return "dispatch"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// climbs reports whether the strategy falls back to the nearest clickable
// ancestor when the matched node itself cannot be clicked.
func (s Strategy) climbs() bool {
	return s == StrategyEngineText || s == StrategyNormalizedText || s == StrategyContainsText
}

// Target is the node a ClickByText call ended up clicking. It is resolved
// fresh on every call and must not be reused once the page has changed.
type Target struct {
	Element  *rod.Element // nil for StrategyDispatch
	Frame    int          // 0 is the main document
	Strategy Strategy
}

// maxCandidates caps the elements tried per strategy and frame.
const maxCandidates = 5

type clickOptions struct {
	visibleTimeout time.Duration
	clickTimeout   time.Duration
	passInterval   time.Duration
	dispatch       bool

	dispatchReserve time.Duration
}

// ClickOption tunes a ClickByText call.
type ClickOption func(*clickOptions)

// WithVisibleTimeout bounds the visibility wait of each attempted element.
func WithVisibleTimeout(d time.Duration) ClickOption {
	return func(o *clickOptions) { o.visibleTimeout = d }
}

// WithClickTimeout bounds the click of each attempted element.
func WithClickTimeout(d time.Duration) ClickOption {
	return func(o *clickOptions) { o.clickTimeout = d }
}

// WithPassInterval sets the pause between two full cascade passes.
func WithPassInterval(d time.Duration) ClickOption {
	return func(o *clickOptions) { o.passInterval = d }
}

// WithoutDispatch disables the in-page scripted click fallback.
func WithoutDispatch() ClickOption {
	return func(o *clickOptions) { o.dispatch = false }
}

// Clicker resolves free text to an interactive element and clicks it.
type Clicker struct {
	log *zap.Logger
}

// NewClicker returns a Clicker. Strategy attempts are logged at debug level.
func NewClicker(log *zap.Logger) *Clicker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Clicker{log: log}
}

// ClickByText clicks the element best matching text. Each strategy is tried
// in the main document, then in every child frame, before moving to the
// next strategy. Part of timeout is kept for the scripted dispatch, so a
// hidden or covered match still gets clicked. Full passes repeat until
// timeout. Returns a StepError wrapping storefront.ErrNotFound when every
// strategy fails.
func (c *Clicker) ClickByText(ctx context.Context, page *rod.Page, text string, timeout time.Duration, opts ...ClickOption) (*Target, error) {
	o := clickOptions{
		visibleTimeout: 2 * time.Second,
		clickTimeout:   3 * time.Second,
		passInterval:   500 * time.Millisecond,
		dispatch:       true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.dispatchReserve = reserveFor(timeout)

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for pass := 1; ; pass++ {
		target := c.cascade(ctx, page, text, o)
		if target != nil {
			c.log.Debug("clicked by text",
				zap.String("text", text),
				zap.Stringer("strategy", target.Strategy),
				zap.Int("frame", target.Frame),
				zap.Int("pass", pass),
				zap.Duration("elapsed", time.Since(start)))
			return target, nil
		}

		select {
		case <-ctx.Done():
			return nil, &storefront.StepError{
				Step:    "click by text",
				Target:  text,
				Elapsed: time.Since(start),
				Cause:   storefront.ErrNotFound,
			}
		case <-time.After(o.passInterval):
		}
	}
}

// cascade runs one pass over every strategy and frame. The locator
// strategies stop short of the deadline so that dispatch keeps its reserve.
func (c *Clicker) cascade(ctx context.Context, page *rod.Page, text string, o clickOptions) *Target {
	frames := Frames(page.Context(ctx))

	sctx := ctx
	if deadline, ok := ctx.Deadline(); ok && o.dispatch {
		var cancel context.CancelFunc
		sctx, cancel = context.WithDeadline(ctx, deadline.Add(-o.dispatchReserve))
		defer cancel()
	}

strategies:
	for n, s := range locatorStrategies {
		so := o.share(sctx, len(locatorStrategies)-n)
		for i, frame := range frames {
			if sctx.Err() != nil {
				break strategies
			}

			candidates := find(frame, s, text)
			for _, el := range candidates {
				if c.activate(sctx, el, so) {
					return &Target{Element: el, Frame: i, Strategy: s}
				}
				if !s.climbs() {
					continue
				}
				if anc := clickableAncestor(el); anc != nil && c.activate(sctx, anc, so) {
					return &Target{Element: anc, Frame: i, Strategy: s}
				}
			}
			c.log.Debug("strategy missed",
				zap.String("text", text),
				zap.Stringer("strategy", s),
				zap.Int("frame", i),
				zap.Int("candidates", len(candidates)))
		}
	}

	if !o.dispatch {
		return nil
	}
	for i, frame := range frames {
		if ctx.Err() != nil {
			return nil
		}
		if dispatchClick(frame, text) {
			return &Target{Frame: i, Strategy: StrategyDispatch}
		}
	}
	return nil
}

var locatorStrategies = []Strategy{
	StrategyButtonRole,
	StrategyLinkRole,
	StrategyExactText,
	StrategyEngineText,
	StrategyNormalizedText,
	StrategyContainsText,
}

// share caps the per-element waits to an even split of what is left of
// ctx among the strategies still to run.
func (o clickOptions) share(ctx context.Context, left int) clickOptions {
	deadline, ok := ctx.Deadline()
	if !ok || left < 1 {
		return o
	}
	slice := time.Until(deadline) / time.Duration(left)
	o.visibleTimeout = min(o.visibleTimeout, slice)
	o.clickTimeout = min(o.clickTimeout, slice)
	return o
}

// reserveFor returns the part of a ClickByText budget held back for the
// scripted dispatch: a fifth of it, within [200ms, 1s] and never more than
// half.
func reserveFor(timeout time.Duration) time.Duration {
	r := min(max(timeout/5, 200*time.Millisecond), time.Second)
	return min(r, timeout/2)
}

// find returns the candidates of one strategy without waiting.
func find(frame *rod.Page, s Strategy, text string) rod.Elements {
	var (
		els rod.Elements
		err error
	)

	switch s {
	case StrategyButtonRole:
		els, err = frame.ElementsX(buttonRoleXPath(text))
	case StrategyLinkRole:
		els, err = frame.ElementsX(linkRoleXPath(text))
	case StrategyExactText:
		els, err = frame.ElementsX(exactTextXPath(text))
	case StrategyEngineText:
		var el *rod.Element
		el, err = frame.Sleeper(rod.NotFoundSleeper).ElementR("a, button, [role=button], [role=link], label, span, div, p, li", textRegex(text))
		if el != nil {
			els = rod.Elements{el}
		}
	case StrategyNormalizedText:
		els, err = frame.ElementsX(normalizedEqualXPath(text))
	case StrategyContainsText:
		els, err = frame.ElementsX(containsXPath(text))
	}

	if err != nil {
		return nil
	}
	if len(els) > maxCandidates {
		els = els[:maxCandidates]
	}
	return els
}

func (c *Clicker) activate(ctx context.Context, el *rod.Element, o clickOptions) bool {
	if err := Activate(el.Context(ctx), o.visibleTimeout, o.clickTimeout); err != nil {
		c.log.Debug("activation failed", zap.Error(err))
		return false
	}
	return true
}

// Activate waits for el to become visible, scrolls it into view and clicks
// it, in that order, each wait bounded by its own timeout.
func Activate(el *rod.Element, visibleTimeout, clickTimeout time.Duration) error {
	if err := el.Timeout(visibleTimeout).WaitVisible(); err != nil {
		return fmt.Errorf("wait visible: %w", err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	if err := el.Timeout(clickTimeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// ButtonByText returns the first button-like element labelled text, without
// waiting.
func ButtonByText(page *rod.Page, text string) (*rod.Element, bool) {
	els, err := page.ElementsX(buttonRoleXPath(text))
	if err != nil || len(els) == 0 {
		return nil, false
	}
	return els[0], true
}

// DismissCookieBanner clicks the consent banner's accept button. A missing
// banner is not an error; it reports whether a click happened.
func (c *Clicker) DismissCookieBanner(ctx context.Context, page *rod.Page, label string, timeout time.Duration) bool {
	if label == "" {
		return false
	}
	target, err := c.ClickByText(ctx, page, label, timeout, WithoutDispatch())
	if err != nil {
		c.log.Debug("no cookie banner", zap.String("label", label))
		return false
	}
	c.log.Info("cookie banner dismissed", zap.Stringer("strategy", target.Strategy))
	return true
}

const clickableAncestorJS = `() => {
	const start = this.parentElement;
	if (!start) return null;
	return start.closest('a') || start.closest('button') || start.closest('[role=button]');
}`

// clickableAncestor returns the nearest a, button or [role=button] above
// el, in that priority order.
func clickableAncestor(el *rod.Element) *rod.Element {
	anc, err := el.ElementByJS(rod.Eval(clickableAncestorJS))
	if err != nil {
		return nil
	}
	return anc
}

// dispatchClickJS finds the deepest node whose normalized text equals the
// target and fires click, input and change on it. Bypasses actionability.
const dispatchClickJS = `(wanted) => {
	const norm = (s) => (s || '').replace(/[,\u00a0]/g, ' ').replace(/\s+/g, ' ').trim();
	const target = norm(wanted);
	let hit = null;
	for (const el of document.querySelectorAll('body *')) {
		if (el.tagName === 'SCRIPT' || el.tagName === 'STYLE') continue;
		if (norm(el.textContent) === target) hit = el;
	}
	if (!hit) return false;
	hit.click();
	hit.dispatchEvent(new Event('input', { bubbles: true }));
	hit.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

func dispatchClick(frame *rod.Page, text string) bool {
	res, err := frame.Eval(dispatchClickJS, text)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

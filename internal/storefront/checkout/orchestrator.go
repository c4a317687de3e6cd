package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/retry"
	"go.uber.org/zap"
)

// State is the last step a checkout run completed. Steps only move forward.
type State int

const (
	StateIdle State = iota
	StateFieldsFilled
	StateDeliverySelected
	StatePaymentSelected
	StateContinueClicked
	StateAgreementChecked
	StateSubmitted
	StateTerminal
)

var stateNames = [...]string{
	"idle",
	"fields-filled",
	"delivery-selected",
	"payment-selected",
	"continue-clicked",
	"agreement-checked",
	"submitted",
	"terminal",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Budgets bounds every orchestrator step.
type Budgets struct {
	Fill          retry.Budget  `yaml:"fill"`
	Delivery      retry.Budget  `yaml:"delivery"`
	Payment       retry.Budget  `yaml:"payment"`
	Continue      time.Duration `yaml:"continue"`
	AgreementFind retry.Budget  `yaml:"agreement_find"`
	Agreement     retry.Budget  `yaml:"agreement"`
	Submit        retry.Budget  `yaml:"submit"`
	Click         time.Duration `yaml:"click"`
	AddToCart     time.Duration `yaml:"add_to_cart"`
}

// DefaultBudgets returns budgets tuned for production checkout latency.
func DefaultBudgets() Budgets {
	return Budgets{
		Fill:          retry.Budget{Attempts: 10, Interval: 500 * time.Millisecond},
		Delivery:      retry.Budget{Attempts: 10, Interval: 500 * time.Millisecond},
		Payment:       retry.Budget{Attempts: 10, Interval: 500 * time.Millisecond},
		Continue:      3 * time.Second,
		AgreementFind: retry.Budget{Attempts: 10, Interval: 500 * time.Millisecond},
		Agreement:     retry.Budget{Attempts: 10, Interval: 300 * time.Millisecond},
		Submit:        retry.Budget{Attempts: 30, Interval: time.Second},
		Click:         3 * time.Second,
		AddToCart:     8 * time.Second,
	}
}

// Validate rejects budgets that would never attempt a step.
func (b Budgets) Validate() error {
	for name, rb := range map[string]retry.Budget{
		"fill":           b.Fill,
		"delivery":       b.Delivery,
		"payment":        b.Payment,
		"agreement_find": b.AgreementFind,
		"agreement":      b.Agreement,
		"submit":         b.Submit,
	} {
		if !rb.Valid() {
			return fmt.Errorf("checkout budget %s: invalid %s", name, rb)
		}
	}
	if b.Continue <= 0 || b.Click <= 0 || b.AddToCart <= 0 {
		return errors.New("checkout budget: continue, click and add_to_cart timeouts must be positive")
	}
	return nil
}

// Result reports how far a run went.
type Result struct {
	State    State
	Locale   locale.Code
	Warnings []string
	Elapsed  time.Duration
}

func (r *Result) warn(log *zap.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn(msg, zap.Stringer("state", r.State))
}

// Orchestrator runs the checkout state machine. One Orchestrator can serve
// many sessions; it keeps no per-run state.
type Orchestrator struct {
	tables  Tables
	locales *locale.Registry
	budgets Budgets
	clicker *browser.Clicker
	log     *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithClicker replaces the text clicker used for localized buttons.
func WithClicker(c *browser.Clicker) Option {
	return func(o *Orchestrator) { o.clicker = c }
}

// NewOrchestrator builds an orchestrator over injected tables.
func NewOrchestrator(tables Tables, locales *locale.Registry, budgets Budgets, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tables:  tables,
		locales: locales,
		budgets: budgets,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.clicker == nil {
		o.clicker = browser.NewClicker(o.log)
	}
	return o
}

// Run fills and submits the checkout on the session's driven tab. Fatal
// steps return a *storefront.StepError along with the partial Result; the
// continue button and the agreement checkbox only add warnings.
func (o *Orchestrator) Run(ctx context.Context, sess *browser.Session, form Form) (*Result, error) {
	start := time.Now()
	res := &Result{State: StateIdle}
	defer func() { res.Elapsed = time.Since(start) }()

	page := sess.Page()
	loc, err := o.resolveLocale(page)
	if err != nil {
		return res, err
	}
	res.Locale = loc.Code()
	log := o.log.With(zap.String("locale", string(loc.Code())))

	fail := func(step, target string, stepStart time.Time, err error) (*Result, error) {
		var se *storefront.StepError
		if errors.As(err, &se) && se.Locale == "" {
			se.Locale = string(loc.Code())
			if se.Elapsed == 0 {
				se.Elapsed = time.Since(stepStart)
			}
			return res, se
		}
		return res, &storefront.StepError{
			Locale:  string(loc.Code()),
			Step:    step,
			Target:  target,
			Elapsed: time.Since(stepStart),
			Cause:   err,
		}
	}
	advance := func(s State) {
		res.State = s
		log.Info("checkout step done", zap.Stringer("state", s))
	}

	stepStart := time.Now()
	if err := o.fillFields(ctx, page, loc, form); err != nil {
		return fail("fill fields", "", stepStart, err)
	}
	advance(StateFieldsFilled)

	if form.Delivery != "" {
		stepStart = time.Now()
		sels, ok := o.tables.Delivery(form.Delivery)
		if !ok {
			return fail("select delivery", string(form.Delivery), stepStart, fmt.Errorf("unknown delivery method %q", form.Delivery))
		}
		if err := o.selectRadio(ctx, page, sels, o.budgets.Delivery); err != nil {
			return fail("select delivery", string(form.Delivery), stepStart, err)
		}
		advance(StateDeliverySelected)
	}

	if form.Payment != "" {
		stepStart = time.Now()
		sels, ok := o.tables.Payment(form.Payment)
		if !ok {
			return fail("select payment", string(form.Payment), stepStart, fmt.Errorf("unknown payment method %q", form.Payment))
		}
		if err := o.selectRadio(ctx, page, sels, o.budgets.Payment); err != nil {
			return fail("select payment", string(form.Payment), stepStart, err)
		}
		advance(StatePaymentSelected)
	}

	if label := loc.Label(locale.ActionContinue); label != "" {
		if _, err := o.clicker.ClickByText(ctx, page, label, o.budgets.Continue, browser.WithoutDispatch()); err != nil {
			res.warn(log, "continue button %q not clicked: %v", label, err)
		} else {
			advance(StateContinueClicked)
		}
	}

	if err := o.checkAgreement(ctx, page); err != nil {
		res.warn(log, "agreement not checked: %v", err)
	} else {
		advance(StateAgreementChecked)
	}

	stepStart = time.Now()
	if err := o.submit(ctx, page, loc); err != nil {
		return fail("submit order", loc.Label(locale.ActionPay), stepStart, err)
	}
	advance(StateSubmitted)

	advance(StateTerminal)
	return res, nil
}

// resolveLocale reads the document language, falling back to the default
// locale when it is missing or unknown.
func (o *Orchestrator) resolveLocale(page *rod.Page) (*locale.Context, error) {
	var lang string
	if res, err := page.Eval(`() => document.documentElement.lang || ''`); err == nil {
		lang = res.Value.Str()
	}
	loc, err := o.locales.ForLang(lang)
	if err != nil {
		return nil, fmt.Errorf("resolve locale from lang %q: %w", lang, err)
	}
	return loc, nil
}

// fillFields writes every non-empty form field into the first visible
// candidate input.
func (o *Orchestrator) fillFields(ctx context.Context, page *rod.Page, loc *locale.Context, form Form) error {
	fields := []struct {
		field locale.Field
		value string
	}{
		{locale.FieldEmail, form.Email},
		{locale.FieldFirstName, form.FirstName},
		{locale.FieldLastName, form.LastName},
		{locale.FieldPostcode, form.Postcode},
		{locale.FieldCity, form.City},
		{locale.FieldPhone, form.Phone},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := o.fillOne(ctx, page, string(f.field), loc.Selectors(f.field), f.value); err != nil {
			return err
		}
	}

	for i, line := range form.Address {
		if line == "" {
			continue
		}
		sels := streetSelectors(loc.Selectors(locale.FieldStreet), i)
		if err := o.fillOne(ctx, page, fmt.Sprintf("street line %d", i+1), sels, line); err != nil {
			return err
		}
	}

	if form.Country != "" {
		if err := o.selectCountry(ctx, page, loc.Selectors(locale.FieldCountry), form.Country); err != nil {
			return err
		}
	}
	return nil
}

// streetSelectors expands indexed templates for line i. Templates without
// an index only address the first line.
func streetSelectors(templates []string, i int) []string {
	var out []string
	for _, tpl := range templates {
		switch {
		case strings.Contains(tpl, "%d"):
			out = append(out, fmt.Sprintf(tpl, i))
		case i == 0:
			out = append(out, tpl)
		}
	}
	return out
}

// keyPause spaces keystrokes when a masked field has to be retyped.
const keyPause = 60 * time.Millisecond

func (o *Orchestrator) fillOne(ctx context.Context, page *rod.Page, name string, sels []string, value string) error {
	err := retry.Do(ctx, o.budgets.Fill, func(ctx context.Context) error {
		el, sel, ok := browser.FirstVisible(page.Context(ctx), sels)
		if !ok {
			return fmt.Errorf("%w: no visible input among %d selectors", storefront.ErrNotFound, len(sels))
		}
		retyped, err := browser.FillVerified(ctx, el, value, keyPause)
		if err != nil {
			return err
		}
		o.log.Debug("field filled",
			zap.String("field", name),
			zap.String("selector", sel),
			zap.Bool("retyped", retyped))
		return nil
	})
	if err != nil {
		return &storefront.StepError{Step: "fill field", Target: name, Cause: err}
	}
	return nil
}

func (o *Orchestrator) selectCountry(ctx context.Context, page *rod.Page, sels []string, country string) error {
	err := retry.Do(ctx, o.budgets.Fill, func(ctx context.Context) error {
		el, _, ok := browser.FirstVisible(page.Context(ctx), sels)
		if !ok {
			return storefront.ErrNotFound
		}
		tag, err := el.Eval(`() => this.tagName`)
		if err != nil {
			return err
		}
		if tag.Value.Str() != "SELECT" {
			return browser.Fill(el, country)
		}
		return el.Select([]string{fmt.Sprintf(`option[value="%s"]`, country)}, true, rod.SelectorTypeCSSSector)
	})
	if err != nil {
		return &storefront.StepError{Step: "select country", Target: country, Cause: err}
	}
	return nil
}

// selectRadio clicks the first visible candidate and retries until the
// radio it controls reports checked. A click alone proves nothing: the
// storefront sometimes swallows the first one.
func (o *Orchestrator) selectRadio(ctx context.Context, page *rod.Page, sels []string, budget retry.Budget) error {
	return retry.Do(ctx, budget, func(ctx context.Context) error {
		el, sel, ok := browser.FirstVisible(page.Context(ctx), sels)
		if !ok {
			return storefront.ErrNotFound
		}
		if err := browser.Activate(el, o.budgets.Click, o.budgets.Click); err != nil {
			return err
		}
		checked, err := browser.Checked(el)
		if err != nil {
			return err
		}
		if !checked {
			o.log.Debug("radio not checked after click", zap.String("selector", sel))
			return fmt.Errorf("%w: %s not checked", storefront.ErrVerification, sel)
		}
		return nil
	})
}

// checkAgreement finds the one usable agreement checkbox and checks it.
// Several may be rendered, one per payment method, with only the active
// method's box visible and enabled.
func (o *Orchestrator) checkAgreement(ctx context.Context, page *rod.Page) error {
	sels := o.tables.Agreement()

	var box *rod.Element
	err := retry.Poll(ctx, o.budgets.AgreementFind, func(ctx context.Context) (bool, error) {
		for _, sel := range sels {
			els, err := page.Context(ctx).Elements(sel)
			if err != nil {
				continue
			}
			for _, el := range els {
				if browser.Usable(el) {
					box = el
					return true, nil
				}
			}
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("%w: no usable agreement checkbox: %v", storefront.ErrNotFound, err)
	}

	return retry.Do(ctx, o.budgets.Agreement, func(ctx context.Context) error {
		el := box.Context(ctx)
		if checked, err := browser.Checked(el); err == nil && checked {
			return nil
		}
		if err := browser.Activate(el, o.budgets.Click, o.budgets.Click); err != nil {
			// Styled checkboxes hide the input behind their label.
			if _, jsErr := el.Eval(`() => this.click()`); jsErr != nil {
				return err
			}
		}
		checked, err := browser.Checked(el)
		if err != nil {
			return err
		}
		if !checked {
			return storefront.ErrVerification
		}
		return nil
	})
}

// submit clicks the pay button once it is visible and enabled. The button
// stays disabled while totals are recomputed after a payment change.
func (o *Orchestrator) submit(ctx context.Context, page *rod.Page, loc *locale.Context) error {
	label := loc.Label(locale.ActionPay)

	return retry.Do(ctx, o.budgets.Submit, func(ctx context.Context) error {
		p := page.Context(ctx)
		el, _, ok := browser.FirstVisible(p, o.tables.PayButton())
		if !ok && label != "" {
			el, ok = browser.ButtonByText(p, label)
		}
		if !ok {
			return storefront.ErrNotFound
		}
		if !browser.Usable(el) {
			return fmt.Errorf("%w: pay button disabled", storefront.ErrVerification)
		}
		return browser.Activate(el, o.budgets.Click, o.budgets.Click)
	})
}

// Package payment confirms that submitting an order handed the shopper over
// to the payment provider. Providers integrate differently: Stripe
// redirects the tab, Klarna and Scalapay open a popup or redirect depending
// on the browser, SeQura embeds a widget in the page.
package payment

import (
	"fmt"
	"regexp"
	"strings"
)

// Provider is a payment method offered at checkout.
type Provider string

const (
	Stripe   Provider = "Stripe"
	Klarna   Provider = "Klarna"
	Scalapay Provider = "Scalapay"
	SeQura   Provider = "SeQura"
)

// Providers lists every supported provider.
var Providers = []Provider{Stripe, Klarna, Scalapay, SeQura}

// ParseProvider resolves a provider name, ignoring case.
func ParseProvider(name string) (Provider, error) {
	for _, p := range Providers {
		if strings.EqualFold(string(p), strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown payment provider %q", name)
}

// defaultPatterns match the provider hosts a confirmed payment lands on.
var defaultPatterns = map[Provider]string{
	Stripe:   `^https://checkout\.stripe\.com/`,
	Klarna:   `^https://[a-z0-9.-]*klarna\.com/`,
	Scalapay: `^https://[a-z0-9.-]*scalapay\.com/`,
	SeQura:   `^https://[a-z0-9.-]*sequra(cdn)?\.(es|com)/`,
}

// widgetSelectors locate in-page provider widgets.
var widgetSelectors = map[Provider]string{
	SeQura: `iframe[src*="sequra"], iframe[name*="sequra"], iframe[id*="sequra"]`,
}

// WidgetSelector returns the selector of the provider's in-page widget,
// when it has one.
func (p Provider) WidgetSelector() (string, bool) {
	sel, ok := widgetSelectors[p]
	return sel, ok
}

// embedded reports whether the provider completes inside the checkout page.
func (p Provider) embedded() bool {
	_, ok := widgetSelectors[p]
	return ok
}

// racing reports whether the provider may answer with either a popup or a
// same-tab redirect.
func (p Provider) racing() bool {
	return p == Klarna || p == Scalapay
}

func compilePatterns(overrides map[Provider]string) (map[Provider]*regexp.Regexp, error) {
	out := make(map[Provider]*regexp.Regexp, len(defaultPatterns))
	for p, expr := range defaultPatterns {
		if o, ok := overrides[p]; ok && o != "" {
			expr = o
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s url pattern: %w", p, err)
		}
		out[p] = re
	}
	return out, nil
}

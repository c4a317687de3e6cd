package checkout

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/retry"
	"go.uber.org/zap"
)

const (
	outOfStockSelector = `.stock.unavailable, .product-info-stock-sku .out-of-stock`
	minicartCounter    = `.minicart-wrapper .counter-number`
)

// AddToCart adds the product shown on the driven tab to the cart and waits
// for the minicart counter to grow. An unavailable product yields a
// storefront.Skip signal instead of an error.
func (o *Orchestrator) AddToCart(ctx context.Context, sess *browser.Session) error {
	start := time.Now()
	page := sess.Page()

	loc, err := o.resolveLocale(page)
	if err != nil {
		return err
	}

	if els, err := page.Elements(outOfStockSelector); err == nil && len(els) > 0 {
		return storefront.Skip("product out of stock at %s", pageURL(sess))
	}

	before := cartCount(page)
	label := loc.Label(locale.ActionAddToCart)
	if _, err := o.clicker.ClickByText(ctx, page, label, o.budgets.AddToCart); err != nil {
		return err
	}

	err = retry.Poll(ctx, o.budgets.Fill, func(context.Context) (bool, error) {
		return cartCount(page) > before, nil
	})
	if err != nil {
		return &storefront.StepError{
			Locale:  string(loc.Code()),
			Step:    "add to cart",
			Target:  label,
			Elapsed: time.Since(start),
			Cause:   err,
		}
	}

	o.log.Info("product added to cart", zap.String("locale", string(loc.Code())))
	return nil
}

// cartCount reads the minicart counter; an empty or missing counter is 0.
func cartCount(page *rod.Page) int {
	res, err := page.Eval(`(sel) => {
		const el = document.querySelector(sel);
		return el ? el.textContent : '';
	}`, minicartCounter)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Value.Str()))
	if err != nil {
		return 0
	}
	return n
}

func pageURL(sess *browser.Session) string {
	u, err := sess.URL()
	if err != nil {
		return "unknown page"
	}
	return u
}

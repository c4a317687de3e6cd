// Package content asserts storefront page content over captured HTML:
// product pages, category listings, SEO metadata and the login page.
package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/data"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
)

// ValidationError lists every problem found on one page. It matches
// storefront.ErrVerification.
type ValidationError struct {
	Page     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s page: %s", e.Page, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return storefront.ErrVerification
}

type checker struct {
	page     string
	problems []string
}

func (c *checker) failf(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

func (c *checker) err() error {
	if len(c.problems) == 0 {
		return nil
	}
	return &ValidationError{Page: c.page, Problems: c.problems}
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

// text returns the whitespace-collapsed text of the first match.
func text(doc *goquery.Document, sel string) string {
	return strings.Join(strings.Fields(doc.Find(sel).First().Text()), " ")
}

// ValidateProduct checks the title, SKU, displayed price and add-to-cart
// button of a product page against its catalog entry.
func ValidateProduct(html string, loc *locale.Context, p data.Product) error {
	doc, err := parse(html)
	if err != nil {
		return err
	}
	c := &checker{page: "product " + p.SKU}

	if text(doc, "h1.page-title, h1") == "" {
		c.failf("missing product title")
	}

	if sku := text(doc, `[itemprop="sku"], .product.attribute.sku .value`); sku != p.SKU {
		c.failf("sku is %q, want %q", sku, p.SKU)
	}

	if id, ok := doc.Find("[data-product-id]").First().Attr("data-product-id"); ok && id != fmt.Sprint(p.EntityID) {
		c.failf("entity id is %s, want %d", id, p.EntityID)
	}

	priceSel := ".price-box .price"
	if doc.Find(".price-box .special-price .price").Length() > 0 {
		priceSel = ".price-box .special-price .price"
	}
	shown := text(doc, priceSel)
	switch cents, err := ParseEuroAmount(shown); {
	case err != nil:
		c.failf("unreadable price %q: %v", shown, err)
	case cents != p.FinalPrice():
		c.failf("price is %s, want %s", FormatCents(cents), FormatCents(p.FinalPrice()))
	}

	if label := loc.Label(locale.ActionAddToCart); label != "" && !hasButton(doc, label) {
		c.failf("no %q button", label)
	}
	return c.err()
}

// ValidateCategory checks that a category listing has a title and at least
// one product with a link and a price.
func ValidateCategory(html string, cat data.Category) error {
	doc, err := parse(html)
	if err != nil {
		return err
	}
	c := &checker{page: "category " + cat.Name}

	title := text(doc, "h1.page-title, h1")
	switch {
	case title == "":
		c.failf("missing category title")
	case !strings.EqualFold(title, cat.Name) && !strings.Contains(strings.ToLower(title), strings.ToLower(cat.Name)):
		c.failf("title is %q, want %q", title, cat.Name)
	}

	items := doc.Find(".product-items .product-item, .products .product-item")
	if items.Length() == 0 {
		c.failf("empty product grid")
	}
	items.Each(func(i int, item *goquery.Selection) {
		if href, ok := item.Find("a.product-item-link, a").First().Attr("href"); !ok || href == "" {
			c.failf("product %d has no link", i+1)
		}
		if strings.TrimSpace(item.Find(".price").First().Text()) == "" {
			c.failf("product %d has no price", i+1)
		}
	})
	return c.err()
}

// ValidateSEO checks the document language, the canonical link and that
// hreflang alternates cover every wanted locale.
func ValidateSEO(html string, code locale.Code, alternates []locale.Code) error {
	doc, err := parse(html)
	if err != nil {
		return err
	}
	c := &checker{page: "seo " + string(code)}

	lang, _ := doc.Find("html").Attr("lang")
	if got, ok := locale.FromLang(lang); !ok || got != code {
		c.failf("html lang is %q, want %s", lang, code)
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); !ok || !strings.HasPrefix(href, "https://") {
		c.failf("missing absolute canonical link")
	}

	covered := map[locale.Code]bool{}
	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		hreflang, _ := s.Attr("hreflang")
		href, _ := s.Attr("href")
		if href == "" {
			c.failf("hreflang %s has no href", hreflang)
			return
		}
		if l, ok := locale.FromLang(hreflang); ok {
			covered[l] = true
		}
	})
	for _, want := range alternates {
		if !covered[want] {
			c.failf("no hreflang alternate for %s", want)
		}
	}
	return c.err()
}

// ValidateCMSPage checks that a CMS page rendered real content rather than
// the storefront's no-route page.
func ValidateCMSPage(html string, page data.CMSPage) error {
	doc, err := parse(html)
	if err != nil {
		return err
	}
	c := &checker{page: "cms " + page.Path}

	if doc.Find("body.cms-no-route, body.cms-noroute-index").Length() > 0 {
		c.failf("rendered the 404 page")
	}
	if text(doc, "h1.page-title, h1") == "" {
		c.failf("missing page title")
	}
	if strings.TrimSpace(doc.Find(".column.main, main").First().Text()) == "" {
		c.failf("empty page body")
	}
	return c.err()
}

// socialProviders are the identity providers offered on the login page.
var socialProviders = []string{"google", "facebook"}

// ValidateSocialLogin checks that every social login button is present
// and links somewhere.
func ValidateSocialLogin(html string) error {
	doc, err := parse(html)
	if err != nil {
		return err
	}
	c := &checker{page: "login"}

	for _, provider := range socialProviders {
		btn := doc.Find(fmt.Sprintf(`.social-login a.%[1]s, a[href*="/type/%[1]s"]`, provider)).First()
		if btn.Length() == 0 {
			c.failf("no %s login button", provider)
			continue
		}
		if href, _ := btn.Attr("href"); href == "" {
			c.failf("%s login button has no link", provider)
		}
	}
	return c.err()
}

func hasButton(doc *goquery.Document, label string) bool {
	found := false
	doc.Find(`button, [role="button"], input[type="submit"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		txt := strings.Join(strings.Fields(s.Text()), " ")
		if v, ok := s.Attr("value"); ok && txt == "" {
			txt = v
		}
		found = strings.EqualFold(txt, label)
		return !found
	})
	return found
}

// ParseEuroAmount reads a displayed euro price such as "1 299,99 €" or
// "€1.299,99" into cents.
func ParseEuroAmount(s string) (int64, error) {
	cleaned := strings.TrimSpace(strings.NewReplacer("€", "", "EUR", "").Replace(s))
	if cleaned == "" {
		return 0, errors.New("no amount")
	}
	return data.ParseAmount(cleaned)
}

// FormatCents renders cents the way the French storefront does.
func FormatCents(cents int64) string {
	return fmt.Sprintf("%d,%02d €", cents/100, cents%100)
}

package e2e

import (
	"context"
	"fmt"
	"testing"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/content"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/testutil"
)

func pageHTML(sess *browser.Session) (string, error) {
	snap, err := browser.SnapshotDOM(sess.Page())
	if err != nil {
		return "", err
	}
	return snap.HTML, nil
}

func TestCategories(t *testing.T) {
	testutil.SkipUnlessMode(t, testutil.ModeLive)
	categories, err := cfg.Data.Categories.Loader().Categories(cfg.Data.Categories.Path)
	if err != nil {
		t.Fatal(err)
	}

	for _, cat := range categories {
		if cat.URL == "" {
			continue
		}
		t.Run(cat.Name, func(t *testing.T) {
			scenario(t, func(ctx context.Context, sess *browser.Session) error {
				if _, err := open(ctx, sess, "fr", cat.URL); err != nil {
					return err
				}
				html, err := pageHTML(sess)
				if err != nil {
					return err
				}
				return content.ValidateCategory(html, cat)
			})
		})
	}
}

func TestProducts(t *testing.T) {
	testutil.SkipUnlessMode(t, testutil.ModeLive)
	products, err := cfg.Data.Products.Loader().Products(cfg.Data.Products.Path)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range products {
		t.Run(p.SKU, func(t *testing.T) {
			scenario(t, func(ctx context.Context, sess *browser.Session) error {
				if err := openProduct(ctx, sess, "fr", p.SKU); err != nil {
					return err
				}
				u, err := sess.URL()
				if err != nil {
					return err
				}
				loc, err := locales.ForURL(u)
				if err != nil {
					return err
				}
				html, err := pageHTML(sess)
				if err != nil {
					return err
				}
				return content.ValidateProduct(html, loc, p)
			})
		})
	}
}

func TestCMSPages(t *testing.T) {
	testutil.SkipUnlessMode(t, testutil.ModeLive)
	pages, err := cfg.Data.CMSPages.Loader().CMSPages(cfg.Data.CMSPages.Path)
	if err != nil {
		t.Fatal(err)
	}

	for _, page := range pages {
		t.Run(page.Path, func(t *testing.T) {
			scenario(t, func(ctx context.Context, sess *browser.Session) error {
				if _, err := open(ctx, sess, "fr", page.Path); err != nil {
					return err
				}
				html, err := pageHTML(sess)
				if err != nil {
					return err
				}
				return content.ValidateCMSPage(html, page)
			})
		})
	}
}

// TestSEO checks every site's home page declares its language and links
// the other locales.
func TestSEO(t *testing.T) {
	testutil.SkipUnlessMode(t, testutil.ModeLive)
	for _, site := range cfg.SiteNames() {
		t.Run(site, func(t *testing.T) {
			scenario(t, func(ctx context.Context, sess *browser.Session) error {
				loc, err := open(ctx, sess, site, "/")
				if err != nil {
					return err
				}
				html, err := sess.Page().HTML()
				if err != nil {
					return fmt.Errorf("read html: %w", err)
				}
				return content.ValidateSEO(html, loc.Code(), locale.Codes)
			})
		})
	}
}

func TestSocialLogin(t *testing.T) {
	testutil.SkipUnlessMode(t, testutil.ModeLive)
	for _, site := range cfg.SiteNames() {
		t.Run(site, func(t *testing.T) {
			scenario(t, func(ctx context.Context, sess *browser.Session) error {
				if _, err := open(ctx, sess, site, "customer/account/login/"); err != nil {
					return err
				}
				html, err := sess.Page().HTML()
				if err != nil {
					return fmt.Errorf("read html: %w", err)
				}
				return content.ValidateSocialLogin(html)
			})
		})
	}
}

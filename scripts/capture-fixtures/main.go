// capture-fixtures opens a visible browser on a storefront site and saves a
// screenshot plus a flattened DOM snapshot (shadow roots and same-origin
// frames inlined) of each page you navigate to.
//
// Usage:
//
//	go run ./scripts/capture-fixtures -site=fr
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grez-lucas/menzzo-e2e/internal/config"
	"github.com/grez-lucas/menzzo-e2e/internal/observability"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/testutil"
)

type pageCapture struct {
	Name         string
	Instructions string
}

var capturePages = []pageCapture{
	{Name: "home", Instructions: "Open the home page (the browser starts there)"},
	{Name: "category", Instructions: "Open any category listing"},
	{Name: "product", Instructions: "Open a product page that is in stock"},
	{Name: "product_out_of_stock", Instructions: "Open an out-of-stock product page (or skip)"},
	{Name: "cart", Instructions: "Add the product to the cart and open the cart"},
	{Name: "checkout", Instructions: "Go to checkout, wait for shipping AND payment options"},
	{Name: "checkout_sequra", Instructions: "Select SeQura and wait for its widget (or skip)"},
	{Name: "login", Instructions: "Open the customer login page"},
}

func main() {
	site := flag.String("site", "fr", "Site key from the config (fr, be, de, at, nl, it, es, pt)")
	outputDir := flag.String("output", "", "Output directory (default: internal/storefront/testutil/testdata/captured/{site})")
	configPath := flag.String("config", "e2e/e2e.yaml", "Suite config file")
	sanitize := flag.Bool("sanitize", true, "Redact customer data before writing HTML")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	home, err := cfg.SiteURL(*site, "/")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	code, err := locale.FromURL(home)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	outDir := *outputDir
	if outDir == "" {
		outDir = filepath.Join("internal", "storefront", "testutil", "testdata", "captured", *site)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("================================================================")
	fmt.Println("  STOREFRONT FIXTURE CAPTURE")
	fmt.Printf("  Site:   %s (locale %s)\n", strings.ToUpper(*site), code)
	fmt.Printf("  Output: %s\n", outDir)
	fmt.Println("================================================================")
	fmt.Println()

	opts := cfg.Browser
	opts.Headless = false
	log := observability.NewStdoutLogger(cfg.Logger)
	defer func() { _ = log.Sync() }()

	sess, err := browser.Launch(opts, log)
	if err != nil {
		fmt.Printf("Error launching browser: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	if err := sess.Page().Navigate(home); err != nil {
		fmt.Printf("Error opening %s: %v\n", home, err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Instructions:")
	fmt.Println("   - Follow the prompts below")
	fmt.Println("   - Press ENTER after completing each step")
	fmt.Println("   - Type 'skip' to skip a page, 'quit' to exit")
	fmt.Println()

	for _, capture := range capturePages {
		fmt.Println("----------------------------------------------------------------")
		fmt.Printf("Capturing: %s.html\n", capture.Name)
		fmt.Printf("  -> %s\n", capture.Instructions)
		fmt.Print("  Press ENTER when ready (or 'skip'/'quit'): ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))
		if input == "quit" {
			break
		}
		if input == "skip" {
			fmt.Printf("  Skipped %s\n\n", capture.Name)
			continue
		}

		// The driven tab may have been closed while navigating by hand.
		if !sess.Alive() {
			if pages, err := sess.Pages(); err == nil && len(pages) > 0 {
				sess.Use(pages[0])
			}
		}
		page := sess.Page()

		browser.WaitForFrames(page)
		time.Sleep(time.Second)

		// Screenshot first: the snapshot does not touch the live DOM but
		// late-loading widgets should be in both.
		shotPath := filepath.Join(outDir, capture.Name+".png")
		if buf, err := page.Screenshot(false, nil); err != nil {
			fmt.Printf("  Screenshot failed: %v\n", err)
		} else if err := os.WriteFile(shotPath, buf, 0o644); err != nil {
			fmt.Printf("  Error saving screenshot: %v\n", err)
		} else {
			fmt.Printf("  Screenshot: %s\n", shotPath)
		}

		snap, err := browser.SnapshotDOM(page)
		if err != nil {
			fmt.Printf("  Error capturing HTML: %v\n\n", err)
			continue
		}
		html := snap.HTML
		if *sanitize {
			html = testutil.SanitizeHTML(html)
		}

		htmlPath := filepath.Join(outDir, capture.Name+".html")
		if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
			fmt.Printf("  Error saving HTML: %v\n\n", err)
			continue
		}

		url, _ := sess.URL()
		fmt.Printf("  Saved: %s (%d shadow roots, %d frames inlined)\n", htmlPath, snap.Shadows, snap.Frames)
		fmt.Printf("  URL: %s\n\n", testutil.SanitizeURL(url))
	}

	saveMetadata(outDir, *site, code)

	fmt.Println("================================================================")
	fmt.Println("Capture complete.")
	fmt.Println()
	fmt.Println("Review for customer data before committing:")
	fmt.Println("   go run ./scripts/sanitize-fixtures -dir=" + outDir)
	fmt.Println("================================================================")
}

func saveMetadata(outDir, site string, code locale.Code) {
	metadata := fmt.Sprintf(`# Fixture Metadata
site: %s
locale: %s
captured_at: %s
captured_by: %s

## Files
See .html files in this directory. Screenshots (.png) are for visual
reference only.

## Snapshot markers

Shadow roots and same-origin frames are inlined:

    <div data-snapshot-shadow="host-tag">...</div>
    <div data-snapshot-frame="frame-src">...</div>

Cross-origin frames (Stripe, Klarna, SeQura widgets) keep only their
src and are marked with data-snapshot-error. Query them with goquery:

    doc.Find("[data-snapshot-frame] .payment-method")

## Notes
- Re-run capture when storefront markup changes
- Fixtures are sanitized on capture; run sanitize-fixtures again after edits
`, site, code, time.Now().Format(time.RFC3339), os.Getenv("USER"))

	if err := os.WriteFile(filepath.Join(outDir, "README.md"), []byte(metadata), 0o644); err != nil {
		fmt.Printf("Error saving metadata: %v\n", err)
	}
}

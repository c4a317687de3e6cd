// discover-frames walks the frame tree of a storefront page and reports
// which frame holds each checkout selector. Payment providers render inside
// cross-origin iframes, so this is how new widget selectors are found.
//
// Usage:
//
//	go run ./scripts/discover-frames -site=es
//
// The script opens a visible browser and prompts you to navigate to each
// page manually. After you press ENTER, it inspects every frame.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/menzzo-e2e/internal/config"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/checkout"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/payment"
	"go.uber.org/zap"
)

type selectorProbe struct {
	Name     string
	Selector string
}

type pageToInspect struct {
	Name         string
	Instructions string
}

var pages = []pageToInspect{
	{"Product page", "Open an in-stock product page"},
	{"Checkout", "Add it to the cart and open the checkout; wait for payment options"},
	{"Payment selected", "Select the payment method you are investigating"},
	{"Provider", "Place the order and wait for the provider page or widget"},
}

// checkoutProbes derives the probe list from the selectors the orchestrator
// actually uses, so the report shows where each one resolves.
func checkoutProbes(markers checkout.MarkerSelectors) []selectorProbe {
	tables := checkout.DefaultTables()

	probes := []selectorProbe{
		{"Checkout container", markers.Container},
		{"Contact field", markers.Contact},
		{"Shipping options", markers.Shipping},
		{"Payment options", markers.Payment},
		{"Cookie banner", "#cookie-banner, [class*='cookie'] button"},
	}
	for _, m := range tables.DeliveryMethods() {
		sels, _ := tables.Delivery(m)
		probes = append(probes, selectorProbe{"Delivery " + string(m), strings.Join(sels, ", ")})
	}
	for _, p := range payment.Providers {
		if sels, ok := tables.Payment(p); ok {
			probes = append(probes, selectorProbe{"Payment " + string(p), strings.Join(sels, ", ")})
		}
		if sel, ok := p.WidgetSelector(); ok {
			probes = append(probes, selectorProbe{string(p) + " widget", sel})
		}
	}
	probes = append(probes,
		selectorProbe{"Agreement checkbox", strings.Join(tables.Agreement(), ", ")},
		selectorProbe{"Pay button", strings.Join(tables.PayButton(), ", ")},
	)
	return probes
}

func main() {
	site := flag.String("site", "fr", "Site key from the config")
	configPath := flag.String("config", "e2e/e2e.yaml", "Suite config file")
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

	probes := checkoutProbes(cfg.Checkout.Markers)

	fmt.Println("================================================================")
	fmt.Printf("  FRAME DISCOVERY: %s\n", strings.ToUpper(*site))
	fmt.Println("================================================================")
	fmt.Println()

	opts := cfg.Browser
	opts.Headless = false
	log, _ := zap.NewDevelopment()
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

	for _, pg := range pages {
		fmt.Println("----------------------------------------------------------------")
		fmt.Printf("PAGE: %s\n", pg.Name)
		fmt.Printf("  -> %s\n", pg.Instructions)
		fmt.Print("  Press ENTER when ready (or 'skip'/'quit'): ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))
		if input == "quit" {
			break
		}
		if input == "skip" {
			fmt.Printf("  Skipped.\n\n")
			continue
		}

		if tabs, err := sess.Pages(); err == nil {
			fmt.Printf("\n  Open tabs: %d\n", len(tabs))
			for i, p := range tabs {
				if info, err := p.Info(); err == nil {
					fmt.Printf("    [%d] %s\n", i, truncate(info.URL, 100))
				}
			}
		}

		page := sess.Page()
		browser.WaitForFrames(page)
		time.Sleep(500 * time.Millisecond)

		url, _ := sess.URL()
		fmt.Printf("\n  URL: %s\n\n", url)

		for i, frame := range browser.Frames(page) {
			inspectFrame(frame, i, probes)
		}
		fmt.Println()
	}

	fmt.Println("================================================================")
	fmt.Println("  Discovery complete. Update checkout.DefaultTables or the")
	fmt.Println("  provider widget selectors with anything that moved.")
	fmt.Println("================================================================")
}

// inspectFrame probes one frame; index 0 is the top document.
func inspectFrame(frame *rod.Page, index int, probes []selectorProbe) {
	label := "main"
	if index > 0 {
		label = fmt.Sprintf("frame[%d]", index)
	}
	src := ""
	if res, err := frame.Eval(`() => location.href`); err == nil {
		src = res.Value.Str()
	}
	fmt.Printf("  %s  %s\n", label, truncate(src, 90))

	found := 0
	for _, probe := range probes {
		if probe.Selector == "" {
			continue
		}
		els, err := frame.Timeout(500 * time.Millisecond).Elements(probe.Selector)
		if err != nil || len(els) == 0 {
			continue
		}
		visible, _ := els.First().Visible()
		fmt.Printf("    FOUND  %-34s  x%d  (visible=%v)\n", probe.Name, len(els), visible)
		found++
	}
	if found == 0 {
		fmt.Println("    (no known selectors found)")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

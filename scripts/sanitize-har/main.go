// sanitize-har removes customer data, session cookies and payment keys
// from HAR recordings before committing.
//
// Usage:
//
//	go run ./scripts/sanitize-har -site=fr -scenario=checkout_stripe
//	go run ./scripts/sanitize-har -input=recording.har.json -output=sanitized.har.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/testutil"
)

func main() {
	site := flag.String("site", "", "Site key: fr, be, de, at, nl, it, es, pt")
	scenario := flag.String("scenario", "", "Scenario name (e.g., checkout_klarna)")

	inputPath := flag.String("input", "", "Input HAR file path")
	outputPath := flag.String("output", "", "Output HAR file path (defaults to input path)")

	dryRun := flag.Bool("dry-run", false, "Show what would be redacted without modifying")
	flag.Parse()

	var inPath, outPath string
	switch {
	case *site != "" && *scenario != "":
		inPath = testutil.RecordingPath(*site, *scenario)
		outPath = inPath
	case *inputPath != "":
		inPath, outPath = *inputPath, *inputPath
		if *outputPath != "" {
			outPath = *outputPath
		}
	default:
		printUsage()
		os.Exit(1)
	}

	if _, err := os.Stat(inPath); os.IsNotExist(err) {
		fmt.Printf("Error: Input file not found: %s\n", inPath)
		os.Exit(1)
	}

	fmt.Printf("Loading HAR file: %s\n", inPath)

	// LoadHAR accepts both DevTools exports and the simplified format.
	har, err := testutil.LoadHAR(inPath)
	if err != nil {
		fmt.Printf("Error loading HAR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d entries\n", len(har.Entries))

	sanitized := testutil.SanitizeHAR(har)
	changes := diff(har, sanitized)
	fmt.Printf("Redacted values in %d places\n", len(changes))

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes written.")
		fmt.Println("\nRedaction Summary:")
		fmt.Println("==================")
		for _, c := range changes {
			fmt.Println(c)
		}
		return
	}

	if err := testutil.SaveHAR(outPath, sanitized); err != nil {
		fmt.Printf("Error saving HAR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Sanitized HAR saved to: %s\n", outPath)
}

func printUsage() {
	fmt.Println("sanitize-har - Remove sensitive data from HAR files before committing")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  go run ./scripts/sanitize-har -site=fr -scenario=checkout_stripe")
	fmt.Println("  go run ./scripts/sanitize-har -input=recording.har.json")
	fmt.Println("  go run ./scripts/sanitize-har -input=in.har.json -output=out.har.json")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -site      Site key (fr, be, de, at, nl, it, es, pt)")
	fmt.Println("  -scenario  Recording name under testdata/recordings/{site}")
	fmt.Println("  -input     Input HAR file path")
	fmt.Println("  -output    Output HAR file path (defaults to input)")
	fmt.Println("  -dry-run   Show redactions without modifying file")
}

// diff lists one line per redacted URL, header or body.
func diff(original, sanitized *testutil.HARLog) []string {
	var out []string
	for i := range original.Entries {
		if i >= len(sanitized.Entries) {
			break
		}
		orig, san := original.Entries[i], sanitized.Entries[i]
		where := fmt.Sprintf("entry %d %s %s", i+1, orig.Request.Method, truncate(san.Request.URL, 80))

		if orig.Request.URL != san.Request.URL {
			out = append(out, where+": query parameters")
		}
		for j, h := range orig.Request.Headers {
			if j < len(san.Request.Headers) && h.Value != san.Request.Headers[j].Value {
				out = append(out, fmt.Sprintf("%s: request header %s", where, h.Name))
			}
		}
		if orig.Request.Body != san.Request.Body {
			out = append(out, where+": request body")
		}
		for j, h := range orig.Response.Headers {
			if j < len(san.Response.Headers) && h.Value != san.Response.Headers[j].Value {
				out = append(out, fmt.Sprintf("%s: response header %s", where, h.Name))
			}
		}
		if orig.Response.Content.Text != san.Response.Content.Text {
			out = append(out, where+": response body")
		}
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// sanitize-fixtures redacts customer data from captured HTML fixtures:
// filled form values, emails, phone numbers, Magento form keys and Stripe
// keys, plus greetings that embed the customer's name.
//
// Usage:
//
//	go run ./scripts/sanitize-fixtures -dir=internal/storefront/testutil/testdata/captured/fr [-dry-run]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/testutil"
)

// storefrontPatterns cover page text that the generic HTML sanitizer does
// not know about.
var storefrontPatterns = []struct {
	Pattern     *regexp.Regexp
	Replacement string
	Description string
}{
	{
		regexp.MustCompile(`(?i)\b(Bonjour|Hallo|Hola|Ciao|Olá)\s+\p{Lu}[\p{L}'-]+(\s+\p{Lu}[\p{L}'-]+)?`),
		"$1 PRENOM NOM",
		"Customer greeting",
	},
	{
		regexp.MustCompile(`(?:\+33|\+32|\+49|\+43|\+31|\+39|\+34|\+351|\b0)[1-9](?:[\s.-]?\d{2}){4}\b`),
		"0600000000",
		"Phone number",
	},
	{
		regexp.MustCompile(`(?i)("?(?:form_key|FORM_KEY)"?\s*[:=]\s*["'])[A-Za-z0-9]{8,}(["'])`),
		"${1}REDACTED${2}",
		"Magento form key",
	},
	{
		regexp.MustCompile(`(?i)document\.cookie\s*=\s*["'][^"']+["']`),
		`document.cookie="REDACTED"`,
		"Cookie",
	},
}

func main() {
	dir := flag.String("dir", "", "Directory of captured .html fixtures")
	dryRun := flag.Bool("dry-run", false, "Show what would be changed without modifying files")
	flag.Parse()

	if *dir == "" {
		fmt.Println("Usage: go run ./scripts/sanitize-fixtures -dir=<fixtures dir> [-dry-run]")
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.html"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No HTML files found in %s\n", *dir)
		os.Exit(1)
	}

	fmt.Printf("Sanitizing fixtures in %s\n", *dir)
	if *dryRun {
		fmt.Println("    (DRY RUN - no files will be modified)")
	}
	fmt.Println()

	for _, file := range files {
		sanitizeFile(file, *dryRun)
	}

	fmt.Println()
	fmt.Println("Sanitization complete.")
	if *dryRun {
		fmt.Println("    Run without -dry-run to apply changes")
	}
}

func sanitizeFile(path string, dryRun bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", path, err)
		return
	}

	original := string(content)
	var changes []string

	sanitized := testutil.SanitizeHTML(original)
	if sanitized != original {
		changes = append(changes, "  - form values, emails, payment keys")
	}

	for _, p := range storefrontPatterns {
		if matches := p.Pattern.FindAllString(sanitized, -1); len(matches) > 0 {
			sanitized = p.Pattern.ReplaceAllString(sanitized, p.Replacement)
			changes = append(changes, fmt.Sprintf("  - %s: %d matched", p.Description, len(matches)))
		}
	}

	filename := filepath.Base(path)
	if len(changes) == 0 {
		fmt.Printf("%s: no sensitive data found\n", filename)
		return
	}

	fmt.Printf("%s: found sensitive data\n", filename)
	for _, change := range changes {
		fmt.Println(change)
	}

	if !dryRun {
		if err := os.WriteFile(path, []byte(sanitized), 0o644); err != nil {
			fmt.Printf("    Error writing %s: %v\n", path, err)
		} else {
			fmt.Println("    Sanitized and saved")
		}
	}
}

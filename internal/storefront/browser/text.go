package browser

import (
	"fmt"
	"regexp"
	"strings"
)

// normalizeText folds the whitespace quirks of the storefront markup:
// commas and non-breaking spaces become spaces, runs collapse, ends trim.
func normalizeText(s string) string {
	s = strings.NewReplacer(",", " ", "\u00a0", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so strings holding both quote kinds are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	args := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			args = append(args, `"'"`)
		}
		if p != "" {
			args = append(args, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}

// normalizedXPath is the XPath expression of normalizeText applied to node.
func normalizedXPath(node string) string {
	return fmt.Sprintf("normalize-space(translate(%s, ',\u00a0', '  '))", node)
}

func buttonRoleXPath(text string) string {
	lit := xpathLiteral(text)
	return fmt.Sprintf(
		"//button[normalize-space(.)=%[1]s or @aria-label=%[1]s]"+
			" | //*[@role='button'][normalize-space(.)=%[1]s or @aria-label=%[1]s]"+
			" | //input[@type='submit' or @type='button'][@value=%[1]s]",
		lit)
}

func linkRoleXPath(text string) string {
	lit := xpathLiteral(text)
	return fmt.Sprintf(
		"//a[@href][normalize-space(.)=%[1]s or @aria-label=%[1]s]"+
			" | //*[@role='link'][normalize-space(.)=%[1]s or @aria-label=%[1]s]",
		lit)
}

func exactTextXPath(text string) string {
	return fmt.Sprintf("//*[text()[.=%s]]", xpathLiteral(text))
}

// normalizedEqualXPath matches the deepest elements whose normalized text
// equals text.
func normalizedEqualXPath(text string) string {
	lit := xpathLiteral(normalizeText(text))
	n := normalizedXPath(".")
	return fmt.Sprintf("//body//*[not(self::script or self::style)][%[1]s=%[2]s and not(*[%[1]s=%[2]s])]", n, lit)
}

// containsXPath matches the deepest elements whose normalized text contains
// text.
func containsXPath(text string) string {
	lit := xpathLiteral(normalizeText(text))
	n := normalizedXPath(".")
	return fmt.Sprintf("//body//*[not(self::script or self::style)][contains(%[1]s, %[2]s) and not(*[contains(%[1]s, %[2]s)])]", n, lit)
}

// textRegex builds the JS regex used by rod's ElementR: anchored,
// case-insensitive, tolerant to whitespace runs and stray punctuation
// spacing.
func textRegex(text string) string {
	words := strings.Fields(normalizeText(text))
	for i, w := range words {
		words[i] = strings.ReplaceAll(regexp.QuoteMeta(w), "/", `\/`)
	}
	return `/^\s*` + strings.Join(words, `[\s,]+`) + `\s*$/i`
}

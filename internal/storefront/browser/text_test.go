package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "1 299 99 €", normalizeText("1\u00a0299,99\u00a0€"))
	assert.Equal(t, "Ajouter au panier", normalizeText("  Ajouter\n\t au   panier "))
	assert.Equal(t, "", normalizeText(" \u00a0 "))
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'Payer'", xpathLiteral("Payer"))
	assert.Equal(t, `"J'accepte"`, xpathLiteral("J'accepte"))
	assert.Equal(t, `concat('Say "hi" it', "'", 's me')`, xpathLiteral(`Say "hi" it's me`))
	assert.Equal(t, `concat("'", 'quoted "x"', "'")`, xpathLiteral(`'quoted "x"'`))
}

func TestStrategyXPaths(t *testing.T) {
	assert.Contains(t, buttonRoleXPath("Payer"), "//button[normalize-space(.)='Payer' or @aria-label='Payer']")
	assert.Contains(t, buttonRoleXPath("Payer"), "[@role='button']")
	assert.Contains(t, linkRoleXPath("Canapés"), "//a[@href][normalize-space(.)='Canapés'")
	assert.Equal(t, "//*[text()[.='Continuer']]", exactTextXPath("Continuer"))

	eq := normalizedEqualXPath("Livraison,\u00a0en pièce")
	assert.Contains(t, eq, "='Livraison en pièce'")
	assert.Contains(t, eq, "not(*[")

	assert.Contains(t, containsXPath("en pièce"), "contains(normalize-space(translate(., ',\u00a0', '  ')), 'en pièce')")
}

func TestTextRegex(t *testing.T) {
	assert.Equal(t, `/^\s*Home[\s,]+Delivery[\s,]+-[\s,]+At[\s,]+Room\s*$/i`, textRegex("Home Delivery - At Room"))
	assert.Equal(t, `/^\s*a\/b\s*$/i`, textRegex("a/b"))
	assert.Equal(t, `/^\s*\(1\)\s*$/i`, textRegex("(1)"))
}

// Package resolve finds external metadata for catalog products by fuzzy name
// search.
package resolve

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// beerNoisePrefixes are stripped, in order and at most once each, from the
// start of every product-name token.
var beerNoisePrefixes = []string{"õlu", "beer", "keykeg", "keg", "cask", "the", "de"}

// producerNoisePrefixes are stripped from the start of every producer-name token.
var producerNoisePrefixes = []string{"ales", "oü"}

var (
	punctuation = strings.NewReplacer("`", "", "'", "", `"`, "", "(", "", ")", "")
	periods     = strings.NewReplacer(".", ". ")
	breweryRe   = regexp.MustCompile(`\bbrewery\b`)
)

// cleanToken lower-cases a single whitespace-delimited token, strips the
// given prefixes, spaces out periods and drops quoting punctuation. The
// result may contain spaces.
func cleanToken(tok string, prefixes []string) string {
	tok = cases.Lower(language.Und).String(tok)
	for _, p := range prefixes {
		tok = strings.TrimPrefix(tok, p)
	}
	tok = periods.Replace(tok)
	return punctuation.Replace(tok)
}

// BeerTokens splits a product name into the search tokens used to build
// candidates. Category and container words are stripped from the start of
// each token, abbreviations are split at their periods and tokens naming a
// brewery are dropped.
func BeerTokens(productName string) []string {
	var out []string
	for _, raw := range strings.Fields(productName) {
		for _, tok := range strings.Fields(cleanToken(raw, beerNoisePrefixes)) {
			if breweryRe.MatchString(tok) {
				continue
			}
			out = append(out, tok)
		}
	}
	return out
}

// BreweryName infers a short brewery name from a producer name: the first
// cleaned token that is longer than three characters or sits in one of the
// first two positions. Returns "" when none qualifies.
func BreweryName(producerName string) string {
	for i, raw := range strings.Fields(producerName) {
		tok := strings.TrimSpace(cleanToken(raw, producerNoisePrefixes))
		if utf8.RuneCountInString(tok) > 3 || i < 2 {
			return tok
		}
	}
	return ""
}

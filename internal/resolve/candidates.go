package resolve

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/beer-registry/internal/model"
)

// minBreweryLen is the shortest inferred brewery name worth prefixing.
const minBreweryLen = 3

// Candidates returns the search strings to try for a product, most specific
// first:
//  1. "<brewery> <beer tokens>", when a brewery name of at least three
//     characters was inferred and is not already one of the beer tokens
//  2. the full beer-token sequence
//  3. every strict prefix of at least two tokens, shortest first
func Candidates(p model.Product) []string {
	return BuildCandidates(BeerTokens(p.ProductName), BreweryName(p.ProducerName))
}

// BuildCandidates assembles the ordered candidate list from pre-computed tokens.
// A product with no beer tokens yields no candidates, even when a brewery was
// inferred: a bare brewery name would match an arbitrary beer of that brewery.
func BuildCandidates(beer []string, brewery string) []string {
	if len(beer) == 0 {
		return nil
	}

	var out []string
	add := func(s string) {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	full := strings.Join(beer, " ")
	if utf8.RuneCountInString(brewery) >= minBreweryLen && !slices.Contains(beer, brewery) {
		add(brewery + " " + full)
	}
	add(full)
	for n := 2; n < len(beer); n++ {
		add(strings.Join(beer[:n], " "))
	}
	return out
}

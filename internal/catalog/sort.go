package catalog

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/beer-registry/internal/model"
)

// Sort orders products by registration date, most recent first, then by
// product name ascending. The sort is stable and also normalizes every
// product's capacity list via SortCapacities. Sorting an already sorted
// catalog leaves it unchanged.
func Sort(products []model.Product) {
	for i := range products {
		products[i].Capacities = SortCapacities(products[i].Capacities)
	}
	slices.SortStableFunc(products, compareProducts)
}

func compareProducts(a, b model.Product) int {
	if c := b.RegEntryDate.Compare(a.RegEntryDate.Time); c != 0 {
		return c
	}
	return strings.Compare(a.ProductName, b.ProductName)
}

var leadingNumberRe = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)`)

// SortCapacities returns the distinct capacities in descending order.
// Values starting with a number ("0.5", "0,33 L", "0.5L") compare by that
// number; equal numbers and values without one compare as strings. Numeric
// values sort ahead of non-numeric ones.
func SortCapacities(capacities []string) []string {
	seen := make(map[string]struct{}, len(capacities))
	out := make([]string, 0, len(capacities))
	for _, c := range capacities {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b string) int {
		return compareCapacity(b, a)
	})
	return out
}

// compareCapacity is an ascending comparison; callers reverse it.
func compareCapacity(a, b string) int {
	na, okA := leadingNumber(a)
	nb, okB := leadingNumber(b)
	switch {
	case okA && okB:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case okA:
		return 1
	case okB:
		return -1
	}
	return strings.Compare(a, b)
}

func leadingNumber(s string) (float64, bool) {
	m := leadingNumberRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

package catalog

import "github.com/sells-group/beer-registry/internal/model"

// GroupByDate splits a sorted catalog into per-date groups, preserving the
// order in which dates first appear.
func GroupByDate(products []model.Product) []model.DateGroup {
	var groups []model.DateGroup
	index := make(map[string]int)
	for _, p := range products {
		key := p.RegEntryDate.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.DateGroup{Date: key})
		}
		groups[i].Products = append(groups[i].Products, p)
	}
	return groups
}

// GroupMap is the date-keyed form of the catalog written to the JSON snapshot.
func GroupMap(products []model.Product) map[string][]model.Product {
	out := make(map[string][]model.Product)
	for _, g := range GroupByDate(products) {
		out[g.Date] = g.Products
	}
	return out
}

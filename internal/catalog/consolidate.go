package catalog

import (
	"github.com/sells-group/beer-registry/internal/model"
)

// DefaultWindowWeeks is how far apart, in whole weeks, two registrations of
// the same product may be and still count as package-size variants.
const DefaultWindowWeeks = 4

type entryState int

const (
	stateActive entryState = iota
	stateAbsorbed
)

type entry struct {
	product model.Product
	state   entryState
}

// Consolidator merges package-size variants into one product.
type Consolidator struct {
	windowWeeks int
}

// NewConsolidator creates a Consolidator with the given window. A
// non-positive window falls back to DefaultWindowWeeks.
func NewConsolidator(windowWeeks int) *Consolidator {
	if windowWeeks <= 0 {
		windowWeeks = DefaultWindowWeeks
	}
	return &Consolidator{windowWeeks: windowWeeks}
}

// Consolidate groups records into products. Records are processed in
// ingestion order; each still-active record acts as an anchor and absorbs
// every other record with the same identity registered within the window,
// in either direction. Absorbed records contribute their capacities to the
// anchor and are dropped from the output. Matching is anchor-driven, not
// transitive: a record only joins an anchor it is directly within the window
// of.
func (c *Consolidator) Consolidate(records []model.RawRecord) []model.Product {
	arena := make([]entry, len(records))
	for i, r := range records {
		arena[i] = entry{product: newProduct(r)}
	}

	for i := range arena {
		if arena[i].state == stateAbsorbed {
			continue
		}
		anchor := &arena[i].product

		for j := range arena {
			if i == j {
				continue
			}
			v := &arena[j]
			if !c.isVariant(*anchor, v.product) {
				continue
			}
			anchor.Capacities = append(anchor.Capacities, v.product.Capacities...)
			v.state = stateAbsorbed
		}
	}

	out := make([]model.Product, 0, len(arena))
	for _, e := range arena {
		if e.state == stateActive {
			out = append(out, e.product)
		}
	}
	return out
}

func (c *Consolidator) isVariant(anchor, candidate model.Product) bool {
	if anchor.Identity != candidate.Identity {
		return false
	}
	return model.WeeksBetween(anchor.RegEntryDate, candidate.RegEntryDate) <= c.windowWeeks
}

// Consolidate merges variants using the default window.
func Consolidate(records []model.RawRecord) []model.Product {
	return NewConsolidator(DefaultWindowWeeks).Consolidate(records)
}

func newProduct(r model.RawRecord) model.Product {
	return model.Product{
		ProductName:   r.ProductName,
		ProducerName:  r.ProducerName,
		ApplicantName: r.ApplicantName,
		ProductClass:  r.ProductClass,
		RegEntryDate:  r.RegEntryDate,
		Identity:      Identity(r.ProductName, r.ProducerName),
		Capacities:    []string{r.Capacity},
	}
}

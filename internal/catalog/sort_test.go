package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/beer-registry/internal/model"
)

func prod(name, date string, caps ...string) model.Product {
	return model.Product{
		ProductName:  name,
		RegEntryDate: model.MustParseDate(date),
		Capacities:   caps,
	}
}

func names(products []model.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ProductName
	}
	return out
}

func TestSort_SameDateByName(t *testing.T) {
	products := []model.Product{
		prod("B", "2024-01-10"),
		prod("A", "2024-01-10"),
	}
	Sort(products)
	assert.Equal(t, []string{"A", "B"}, names(products))
}

func TestSort_LaterDateFirst(t *testing.T) {
	products := []model.Product{
		prod("A", "2024-01-10"),
		prod("Z", "2024-01-20"),
	}
	Sort(products)
	assert.Equal(t, []string{"Z", "A"}, names(products))
}

func TestSort_StableForFullTies(t *testing.T) {
	first := prod("Same", "2024-01-10", "0.33")
	first.ProducerName = "first"
	second := prod("Same", "2024-01-10", "0.5")
	second.ProducerName = "second"

	products := []model.Product{first, second}
	Sort(products)
	assert.Equal(t, "first", products[0].ProducerName)
	assert.Equal(t, "second", products[1].ProducerName)
}

func TestSort_ByteOrderNames(t *testing.T) {
	products := []model.Product{
		prod("b", "2024-01-10"),
		prod("Õlu", "2024-01-10"),
		prod("B", "2024-01-10"),
	}
	Sort(products)
	assert.Equal(t, []string{"B", "b", "Õlu"}, names(products))
}

func TestSort_Idempotent(t *testing.T) {
	products := []model.Product{
		prod("Porter", "2024-01-01", "0.33L", "0.5L", "0.33L"),
		prod("Stout", "2024-02-01", "20L", "0.5L"),
		prod("Ale", "2024-02-01", "0.44"),
		prod("IPA", "2024-01-15", "0,33", "0.5", "1"),
	}
	Sort(products)
	once := make([]model.Product, len(products))
	copy(once, products)

	Sort(products)
	assert.Equal(t, once, products)
	assert.Equal(t, []string{"Ale", "Stout", "IPA", "Porter"}, names(products))
}

func TestSort_NormalizesCapacities(t *testing.T) {
	products := []model.Product{prod("Porter", "2024-01-01", "0.33L", "0.5L", "0.33L")}
	Sort(products)
	assert.Equal(t, []string{"0.5L", "0.33L"}, products[0].Capacities)
}

func TestSortCapacities_Dedup(t *testing.T) {
	got := SortCapacities([]string{"0.33", "0.33", "0.5", "0.5", "0.33"})
	assert.Equal(t, []string{"0.5", "0.33"}, got)
}

func TestSortCapacities_Numeric(t *testing.T) {
	got := SortCapacities([]string{"5L", "0.33L", "10L", "0,75 L"})
	assert.Equal(t, []string{"10L", "5L", "0,75 L", "0.33L"}, got)
}

func TestSortCapacities_NonNumericLast(t *testing.T) {
	got := SortCapacities([]string{"keg", "0.33", "bottle", "20"})
	assert.Equal(t, []string{"20", "0.33", "keg", "bottle"}, got)
}

func TestSortCapacities_EqualNumbersByString(t *testing.T) {
	got := SortCapacities([]string{"0.5 L", "0.5L", "0.50"})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"0.5L", "0.50", "0.5 L"}, got)
}

func TestSortCapacities_Empty(t *testing.T) {
	assert.Empty(t, SortCapacities(nil))
}

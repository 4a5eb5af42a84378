package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/beer-registry/internal/model"
)

func TestGroupByDate(t *testing.T) {
	products := []model.Product{
		prod("A", "2024-01-20"),
		prod("B", "2024-01-20"),
		prod("C", "2024-01-10"),
	}

	groups := GroupByDate(products)
	require.Len(t, groups, 2)
	assert.Equal(t, "2024-01-20", groups[0].Date)
	assert.Equal(t, []string{"A", "B"}, names(groups[0].Products))
	assert.Equal(t, "2024-01-10", groups[1].Date)
	assert.Equal(t, []string{"C"}, names(groups[1].Products))
}

func TestGroupMap(t *testing.T) {
	m := GroupMap([]model.Product{
		prod("A", "2024-01-20"),
		prod("C", "2024-01-10"),
	})
	require.Len(t, m, 2)
	assert.Equal(t, "A", m["2024-01-20"][0].ProductName)
	assert.Equal(t, "C", m["2024-01-10"][0].ProductName)
}

func TestGroupByDate_Empty(t *testing.T) {
	assert.Empty(t, GroupByDate(nil))
	assert.Empty(t, GroupMap(nil))
}

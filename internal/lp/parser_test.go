package lp

import (
	"strings"
	"testing"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSolution = `Problem:
Rows:
order_shop[ShopA]
      *             1           1             0
order_brick['3001-5',ShopA]
      *            10           0          1e+06
order_brick['3002-5',ShopA]
      *             0           0          1e+06
some other line
order_brick['3001-5',ShopB]
      *             3           0          1e+06
`

func TestParseSolutionBasic(t *testing.T) {
	alloc, err := ParseSolution(strings.NewReader(sampleSolution))
	require.NoError(t, err)

	require.Contains(t, alloc, "ShopA")
	assert.Equal(t, 10, alloc["ShopA"]["3001-5"])
	_, zeroPresent := alloc["ShopA"]["3002-5"]
	assert.False(t, zeroPresent, "zero quantities are dropped")

	require.Contains(t, alloc, "ShopB")
	assert.Equal(t, 3, alloc["ShopB"]["3001-5"])
}

func TestParseSolutionUnknownLineClearsScope(t *testing.T) {
	input := `order_brick['3001-5',ShopA]
unrelated line
      * 99 0 1e+06
`
	alloc, err := ParseSolution(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, alloc, "a value line after an unrelated line should not be attributed")
}

func TestToSourcingAllocation(t *testing.T) {
	item := catalog.NewPart("3001", 5, catalog.ConditionNew)
	raw := Allocation{"ShopA": {item.Key(): 10}}
	byKey := map[string]catalog.Item{item.Key(): item}

	out := ToSourcingAllocation(raw, byKey)

	assert.Equal(t, 10, out["ShopA"][item])
}

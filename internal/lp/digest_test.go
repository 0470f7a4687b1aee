package lp

import (
	"testing"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/stretchr/testify/assert"
)

func TestComputeDigestDeterministic(t *testing.T) {
	item := catalog.NewPart("3001", 5, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(item, 2)

	filtered := offers.ByItem{item: {{ShopName: "A", UnitPrice: 1.0, QuantityAvail: 5}}}

	d1 := ComputeDigest(demand, filtered)
	d2 := ComputeDigest(demand, filtered)

	assert.Equal(t, d1, d2)
}

func TestComputeDigestChangesWithInput(t *testing.T) {
	item := catalog.NewPart("3001", 5, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(item, 2)

	filteredA := offers.ByItem{item: {{ShopName: "A", UnitPrice: 1.0, QuantityAvail: 5}}}
	filteredB := offers.ByItem{item: {{ShopName: "A", UnitPrice: 1.5, QuantityAvail: 5}}}

	assert.NotEqual(t, ComputeDigest(demand, filteredA), ComputeDigest(demand, filteredB))
}

func TestArtifactPathsFormat(t *testing.T) {
	modelPath, solutionPath := ArtifactPaths("/cache", "mymodel", "abcd1234")
	assert.Equal(t, "/cache/mymodel.abcd1234.ampl", modelPath)
	assert.Equal(t, "/cache/mymodel.abcd1234.solution", solutionPath)
}

package offersource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleListingHTML = `
<html><body>
<a rel="blcatimg" href="/catalogItem.asp?P=3001"></a>
New<span></span>Loc: US, Min Buy: $10.00<span></span>Qty: <b>10</b> US <b>$0.15</b>
<a href="/store.asp?p=BrickBarn&itemID=3001">BrickBarn</a>

<a rel="blcatimg" href="/catalogItem.asp?P=3001"></a>
Used<span></span>Loc: CA, Min Buy: $0.00<span></span>Qty: <b>3</b> US <b>$0.08</b>
<a href="/store.asp?p=MapleBricks&itemID=3001">MapleBricks</a>

<a rel="blcatimg" href="/catalogItem.asp?P=3001"></a>
New<span></span>Loc: US, Min Buy: $10.00<span></span>Qty: <b>5</b> US <b>$0.15</b>
<a href="/store.asp?p=BrickBarn&itemID=3001">BrickBarn</a>
</body></html>
`

func TestParseShopListingExtractsFields(t *testing.T) {
	raw, err := ParseShopListing([]byte(sampleListingHTML))
	require.NoError(t, err)
	require.Len(t, raw, 3)

	first := raw[0]
	assert.Equal(t, "BrickBarn", first.ShopName)
	assert.Equal(t, "N", first.Condition)
	assert.Equal(t, 10, first.Quantity)
	assert.InDelta(t, 0.15, first.UnitPrice, 0.0001)
	assert.Equal(t, "US", first.Location)
	assert.InDelta(t, 10.00, first.MinBuy, 0.0001)

	second := raw[1]
	assert.Equal(t, "MapleBricks", second.ShopName)
	assert.Equal(t, "U", second.Condition)
	assert.Equal(t, 3, second.Quantity)
}

func TestResultDedupesByShopKeepingLargerQuantity(t *testing.T) {
	raw, err := ParseShopListing([]byte(sampleListingHTML))
	require.NoError(t, err)

	out := Result(raw)
	require.Len(t, out, 2) // BrickBarn's two rows collapse to one

	var brickBarn *float64
	for _, o := range out {
		if o.ShopName == "BrickBarn" {
			qty := float64(o.QuantityAvail)
			brickBarn = &qty
		}
	}
	require.NotNil(t, brickBarn)
	assert.Equal(t, float64(10), *brickBarn) // kept the qty=10 row, not qty=5
}

func TestResultSortsAscendingByUnitPrice(t *testing.T) {
	raw, err := ParseShopListing([]byte(sampleListingHTML))
	require.NoError(t, err)

	out := Result(raw)
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i-1].UnitPrice, out[i].UnitPrice)
	}
}

func TestSearchURLMatchesTemplate(t *testing.T) {
	b := NewBrickLink(defaultTestRateLimit(), 500)
	item := newTestPart("3001", 11)
	url := b.searchURL(item)
	assert.Contains(t, url, "q=3001")
	assert.Contains(t, url, "colorID=11")
	assert.Contains(t, url, "sz=500")
	assert.Contains(t, url, "searchSort=P")
}

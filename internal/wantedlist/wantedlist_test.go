package wantedlist

import (
	"strings"
	"testing"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<INVENTORY>
 <ITEM>
  <ITEMTYPE>P</ITEMTYPE>
  <ITEMID>3001</ITEMID>
  <COLOR>5</COLOR>
  <MINQTY>3</MINQTY>
  <NOTIFY>N</NOTIFY>
  <CONDITION>N</CONDITION>
 </ITEM>
 <ITEM>
  <ITEMTYPE>P</ITEMTYPE>
  <ITEMID>3002</ITEMID>
  <COLOR>11</COLOR>
  <MINQTY>2</MINQTY>
  <NOTIFY>N</NOTIFY>
 </ITEM>
 <ITEM>
  <ITEMTYPE>I</ITEMTYPE>
  <ITEMID>6028990</ITEMID>
  <COLOR>0</COLOR>
  <MINQTY>1</MINQTY>
  <NOTIFY>N</NOTIFY>
  <CONDITION>U</CONDITION>
 </ITEM>
</INVENTORY>
`

func TestReadParsesPartsAndCondition(t *testing.T) {
	entries, err := Read(strings.NewReader(sampleXML))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, catalog.NewPart("3001", 5, catalog.ConditionNew), entries[0].Item)
	assert.Equal(t, 3, entries[0].Qty)

	// No CONDITION tag present means "any" per BrickLink's own convention.
	assert.Equal(t, catalog.ConditionAny, entries[1].Item.Condition)

	assert.Equal(t, catalog.New(catalog.KindInstruction, "6028990", catalog.ConditionUsed), entries[2].Item)
}

func TestReadMissingMinQtyDefaultsToOne(t *testing.T) {
	const xmlNoQty = `<INVENTORY>
 <ITEM>
  <ITEMTYPE>P</ITEMTYPE>
  <ITEMID>3001</ITEMID>
  <COLOR>5</COLOR>
 </ITEM>
</INVENTORY>`
	entries, err := Read(strings.NewReader(xmlNoQty))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Qty)
}

func TestToPartsNeededAccumulatesDuplicates(t *testing.T) {
	item := catalog.NewPart("3001", 5, catalog.ConditionNew)
	entries := []Entry{{Item: item, Qty: 2}, {Item: item, Qty: 3}}

	needed := ToPartsNeeded(entries)
	assert.Equal(t, 5, needed[item])
}

func TestWriteRoundTripsThroughRead(t *testing.T) {
	itemA := catalog.NewPart("3001", 5, catalog.ConditionNew)
	itemB := catalog.NewPart("3002", 11, catalog.ConditionAny)

	needed := ToPartsNeeded([]Entry{{Item: itemA, Qty: 3}, {Item: itemB, Qty: 2}})

	var sb strings.Builder
	err := Write(&sb, needed, map[catalog.Item]bool{itemB: true})
	require.NoError(t, err)

	entries, err := Read(strings.NewReader(sb.String()))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	roundTripped := ToPartsNeeded(entries)
	assert.Equal(t, 3, roundTripped[itemA])
	assert.Equal(t, 2, roundTripped[catalog.NewPart("3002", 11, catalog.ConditionAny)])
}

func TestWriteOmitsColorForNonParts(t *testing.T) {
	needed := ToPartsNeeded([]Entry{{Item: catalog.New(catalog.KindSet, "7965-1", catalog.ConditionNew), Qty: 1}})

	var sb strings.Builder
	require.NoError(t, Write(&sb, needed, nil))
	assert.NotContains(t, sb.String(), "<COLOR>")
	assert.Contains(t, sb.String(), "<ITEMTYPE>S</ITEMTYPE>")
}

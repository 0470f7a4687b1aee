// Package wantedlist reads and writes BrickLink's XML wanted-list format:
// an <INVENTORY> of <ITEM> elements, each naming a part/instruction/set/box,
// its color, the quantity still wanted, and the condition that will satisfy
// it. Grounded on the original lfxml.py/wanted_list.py pair and the teacher's
// charset-aware decoding in internal/parsers/charset.
package wantedlist

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/parsers/charset"
	"github.com/dornbi/bltools-go/internal/parts"
)

// itemType is BrickLink's single-letter catalog-line discriminator.
type itemType string

const (
	itemTypePart        itemType = "P"
	itemTypeInstruction itemType = "I"
	itemTypeSet         itemType = "S"
	itemTypeBox         itemType = "B"
)

var typeToKind = map[itemType]catalog.Kind{
	itemTypePart:        catalog.KindPart,
	itemTypeInstruction: catalog.KindInstruction,
	itemTypeSet:         catalog.KindSet,
	itemTypeBox:         catalog.KindBox,
}

var kindToType = map[catalog.Kind]itemType{
	catalog.KindPart:        itemTypePart,
	catalog.KindInstruction: itemTypeInstruction,
	catalog.KindSet:         itemTypeSet,
	catalog.KindBox:         itemTypeBox,
}

// xmlInventory and xmlItem mirror BrickLink's wire schema directly; field
// order matches what BrickLink itself emits.
type xmlInventory struct {
	XMLName xml.Name  `xml:"INVENTORY"`
	Items   []xmlItem `xml:"ITEM"`
}

type xmlItem struct {
	ItemType     string `xml:"ITEMTYPE"`
	ItemID       string `xml:"ITEMID"`
	Color        string `xml:"COLOR"`
	MinQty       int    `xml:"MINQTY"`
	Notify       string `xml:"NOTIFY"`
	Condition    string `xml:"CONDITION"`
	WantedListID string `xml:"WANTEDLISTID,omitempty"`
}

// Entry is one parsed wanted-list line, prior to any demand scaling or
// inventory subtraction.
type Entry struct {
	Item catalog.Item
	Qty  int
}

// Read decodes a BrickLink wanted-list XML document. BrickLink exports
// commonly declare legacy 8-bit encodings (ISO-8859-1, occasionally
// Windows-1250 for European sellers); raw bytes are decoded to UTF-8 before
// being handed to encoding/xml so that part/color text content round-trips
// correctly regardless of the source encoding.
func Read(r io.Reader) ([]Entry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("wantedlist: read: %w", err)
	}

	decoded, err := charset.Decode(raw, detectEncoding(raw))
	if err != nil {
		return nil, fmt.Errorf("wantedlist: decode: %w", err)
	}

	var inv xmlInventory
	dec := xml.NewDecoder(strings.NewReader(decoded))
	// decoded is already UTF-8, so the prolog's declared encoding is ignored.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	if err := dec.Decode(&inv); err != nil {
		return nil, fmt.Errorf("wantedlist: parse: %w", err)
	}

	entries := make([]Entry, 0, len(inv.Items))
	for _, it := range inv.Items {
		entry, ok := entryFromXML(it)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// detectEncoding looks for the encoding declared in the XML prolog and
// otherwise assumes ISO-8859-1, BrickLink's own default export encoding.
func detectEncoding(data []byte) charset.Encoding {
	head := data
	if len(head) > 256 {
		head = head[:256]
	}
	lower := strings.ToLower(string(head))
	switch {
	case strings.Contains(lower, "utf-8"):
		return charset.EncodingUTF8
	case strings.Contains(lower, "windows-1250"), strings.Contains(lower, "cp1250"):
		return charset.EncodingWindows1250
	case strings.Contains(lower, "iso-8859-2"):
		return charset.EncodingISO88592
	default:
		return charset.EncodingISO88591
	}
}

func entryFromXML(it xmlItem) (Entry, bool) {
	kind, ok := typeToKind[itemType(strings.ToUpper(it.ItemType))]
	if !ok {
		return Entry{}, false
	}

	condition := catalog.ConditionAny
	switch strings.ToUpper(it.Condition) {
	case "N":
		condition = catalog.ConditionNew
	case "U":
		condition = catalog.ConditionUsed
	}

	var item catalog.Item
	if kind == catalog.KindPart {
		colorID, _ := strconv.Atoi(it.Color)
		item = catalog.NewPart(it.ItemID, colorID, condition)
	} else {
		item = catalog.New(kind, it.ItemID, condition)
	}

	qty := it.MinQty
	if qty <= 0 {
		qty = 1
	}
	return Entry{Item: item, Qty: qty}, true
}

// ToPartsNeeded converts wanted-list entries into a parts.Needed, applying
// each entry's own condition tag per spec.md §3's Item definition. Duplicate
// entries for the same item accumulate rather than overwrite.
func ToPartsNeeded(entries []Entry) parts.Needed {
	needed := parts.New()
	for _, e := range entries {
		needed.Add(e.Item, e.Qty)
	}
	return needed
}

// Write emits a wanted list in BrickLink's XML import/export format, the
// inverse of Read. Items are written in the demand's own stable sort order so
// output is deterministic across runs. allowUsed names items whose CONDITION
// tag should be omitted (BrickLink then accepts either condition); items not
// in allowUsed are written with an explicit "N" (new-only) condition, mirroring
// the original wanted_list.py output.
func Write(w io.Writer, demand parts.Needed, allowUsed map[catalog.Item]bool) error {
	var buf bytes.Buffer
	buf.WriteString("<INVENTORY>\n")
	for _, item := range demand.Items() {
		qty := demand[item]
		buf.WriteString(" <ITEM>\n")
		fmt.Fprintf(&buf, "  <ITEMTYPE>%s</ITEMTYPE>\n", kindToType[item.Kind])
		fmt.Fprintf(&buf, "  <ITEMID>%s</ITEMID>\n", xmlEscape(item.PartID))
		if item.Kind == catalog.KindPart {
			fmt.Fprintf(&buf, "  <COLOR>%d</COLOR>\n", item.ColorID)
		}
		fmt.Fprintf(&buf, "  <MINQTY>%d</MINQTY>\n", qty)
		buf.WriteString("  <NOTIFY>N</NOTIFY>\n")
		if !allowUsed[item] {
			buf.WriteString("  <CONDITION>N</CONDITION>\n")
		}
		buf.WriteString(" </ITEM>\n")
	}
	buf.WriteString("</INVENTORY>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

package offersource

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/parts"
)

// modelFileEntry is the inner part-list file inside a zip-compressed model
// file, matching the original CollectBricklinkParts' fixed entry name.
const modelFileEntry = "IMAGE100.LXFML"

// lddColorToBrickLink translates LEGO Digital Designer material/color ids to
// BrickLink color ids, copied from the original TRANSLATE_COLORS table.
var lddColorToBrickLink = map[string]int{
	"1": 1, "100": 26, "101": 25, "102": 42, "103": 49, "104": 24, "105": 31,
	"106": 4, "107": 39, "11": 72, "111": 13, "112": 43, "113": 50, "114": 114,
	"115": 76, "116": 40, "117": 101, "118": 41, "119": 34, "12": 29, "120": 35,
	"124": 71, "126": 51, "127": 61, "129": 102, "131": 66, "132": 111,
	"135": 55, "136": 54, "138": 69, "139": 84, "140": 63, "141": 80,
	"143": 74, "145": 78, "148": 77, "151": 48, "153": 58, "154": 59, "18": 28,
	"182": 98, "191": 110, "192": 88, "194": 86, "195": 97, "196": 109,
	"198": 93, "199": 85, "2": 9, "20": 60, "208": 99, "21": 5, "212": 105,
	"217": 91, "22": 47, "222": 104, "226": 103, "23": 7, "232": 87, "24": 3,
	"25": 8, "26": 11, "268": 89, "27": 10, "28": 6, "283": 90, "29": 37,
	"294": 118, "297": 115, "3": 33, "301": 22, "308": 120, "36": 96, "37": 36,
	"38": 68, "39": 44, "40": 12, "41": 17, "42": 15, "43": 14, "44": 19,
	"45": 62, "47": 18, "48": 20, "49": 16, "5": 2, "50": 46, "6": 38, "9": 23,
}

// lddPartTranslate remaps a handful of LEGO Digital Designer part ids to
// their BrickLink catalog equivalents, copied from the original
// TRANSLATE_PARTS table (LDD and BrickLink occasionally split one mold into
// different ids, e.g. sub-parts with molded variants).
var lddPartTranslate = map[string]string{
	"2362": "2362b", "2412": "2412b", "2429": "2429c01", "2431": "2431",
	"2476": "2476a", "2748": "3857", "2780": "4459", "30027": "30027b",
	"30133": "x97", "30359": "30359b", "30389": "30389a", "3046": "3046A",
	"30552": "481", "30553": "482", "3062": "3062b", "3068": "3068b",
	"3069": "3069B", "3070": "3070b", "3190": "3192", "3191": "3193",
	"32123": "4265c", "3475": "3475b", "3626": "3626b", "3709": "3709b",
	"3729": "3731", "3816": "3817", "3829": "3829c01", "3839": "3839B",
	"3942": "3942B", "4025": "4092", "40620": "71137", "4081": "4081b",
	"4085": "4085c", "41239": "32277", "41532": "x241", "41762": "42022",
	"42022": "464", "42023": "500", "42611": "51011", "4285": "4285B",
	"43093": "3749", "4343": "73436", "4345": "4345b", "44237": "2456",
	"44676": "405", "4486": "73312", "45244": "3626bps9", "4530": "6093",
	"4592": "298c02", "4697": "4696b", "48183": "4859", "50254": "2927",
	"50746": "54200", "55298": "6246a", "56750": "3742c01", "58123": "58123c01",
	"59275": "2599", "59443": "6538c", "6014": "6014b", "60797": "60797c02",
	"6093": "x104", "6141": "4073", "6143": "3941", "6211": "73590c02a",
	"6238": "6238a", "6255": "x8", "64414": "64415", "6538": "6538A",
	"6562": "3749", "6590": "3713", "70358": "590", "70750": "38",
	"73081": "3829", "73200": "970c00", "73587": "4592c01", "74746": "2865",
	"74784": "2878c01", "76382": "973p1b", "83447": "3626ap01",
	"83608": "3069bp0c", "86035": "4485", "99999992": "2878C01",
}

// lxfmlPart is one <Part designID=... materials=...> element inside the
// model's IMAGE100.LXFML entry. materials is a comma-separated list of
// color ids; only the first (the part's primary color) matters here.
type lxfmlPart struct {
	DesignID  string `xml:"designID,attr"`
	Materials string `xml:"materials,attr"`
}

// ReadModelFile expands a zip-compressed model file, parses the part list
// out of its IMAGE100.LXFML entry, and returns a first-pass parts.Needed —
// one unit per <Part> element, so a (part, color) used N times in the model
// has demand N, condition "new".
// Demand scaling ("multiple" builds) and inventory subtraction are the
// caller's responsibility, same as wantedlist.ToPartsNeeded.
func ReadModelFile(content []byte) (parts.Needed, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("offersource: open model file: %w", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == modelFileEntry {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("offersource: model file has no %s entry", modelFileEntry)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("offersource: open %s: %w", modelFileEntry, err)
	}
	defer rc.Close()

	return parsePartList(rc)
}

// parsePartList walks the LXFML token stream looking for <Part> elements,
// the Go equivalent of the original's xml.sax ContentHandler.startElement.
func parsePartList(r io.Reader) (parts.Needed, error) {
	needed := parts.New()
	decoder := xml.NewDecoder(r)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("offersource: parse model XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Part" {
			continue
		}

		var part lxfmlPart
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "designID":
				part.DesignID = a.Value
			case "materials":
				part.Materials = a.Value
			}
		}
		if part.DesignID == "" || part.Materials == "" {
			continue
		}

		lddColor := strings.Split(part.Materials, ",")[0]
		colorID, ok := lddColorToBrickLink[lddColor]
		if !ok {
			continue // unknown color, same as the original's silent skip-and-warn
		}

		partID := part.DesignID
		if translated, ok := lddPartTranslate[partID]; ok {
			partID = translated
		}

		needed.Add(catalog.NewPart(partID, colorID, catalog.ConditionNew), 1)
	}

	return needed, nil
}

// Package offersource scrapes marketplace offer listings for catalog items
// and caches the results. Out of scope for the optimizer's correctness (the
// optimizer only needs an offers.ByItem, however it was obtained) but a
// deployable service needs a real implementation to feed it.
package offersource

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dornbi/bltools-go/internal/catalog"
	httpclient "github.com/dornbi/bltools-go/internal/http"
	"github.com/dornbi/bltools-go/internal/http/ratelimit"
	"github.com/dornbi/bltools-go/internal/offers"
	"golang.org/x/net/html"
)

// RawOffer is the wire shape scraped from a marketplace's per-item listing
// page, before it is cast into offers.Offer.
type RawOffer struct {
	ShopName      string
	Condition     string // "N" or "U"
	Quantity      int
	UnitPrice     float64
	Location      string
	MinBuy        float64
}

// Slug identifies one marketplace adapter in a Registry.
const Slug = "bricklink"

// BrickLink scrapes per-item shop offers from bricklink.com's search page,
// adapted from the teacher's BaseChainAdapter shape (rate-limited HTTP
// client, html-link scraping) but fetching one item at a time rather than
// discovering a batch of files.
type BrickLink struct {
	httpClient *httpclient.Client
	numShops   int
}

// NewBrickLink builds an adapter with the given rate limit config. numShops
// mirrors the Python original's --num_shops flag (BrickLink caps it at 500).
func NewBrickLink(rateLimit ratelimit.Config, numShops int) *BrickLink {
	if numShops <= 0 || numShops > 500 {
		numShops = 500
	}
	return &BrickLink{
		httpClient: httpclient.NewClient(rateLimit),
		numShops:   numShops,
	}
}

// searchURL builds the BrickLink catalog search URL for one item, matching
// the original SHOP_LIST_URL template exactly (pg=1, sorted by price).
func (b *BrickLink) searchURL(item catalog.Item) string {
	return fmt.Sprintf(
		"https://www.bricklink.com/search.asp?pg=1&q=%s&colorID=%d&sz=%d&searchSort=P",
		url.QueryEscape(item.PartID), item.ColorID, b.numShops)
}

// FetchOffers fetches and parses the current shop listing for one item.
func (b *BrickLink) FetchOffers(item catalog.Item) ([]RawOffer, error) {
	body, err := b.httpClient.GetBytes(b.searchURL(item))
	if err != nil {
		return nil, fmt.Errorf("bricklink: fetch offers for %s: %w", item.Key(), err)
	}
	return ParseShopListing(body)
}

// shopNamePattern extracts the shop name out of a store.asp link, matching
// the original SHOP_NAME_REGEX (`/store\.asp\?p=(.*)&itemID=.*`).
var shopNamePattern = regexp.MustCompile(`/store\.asp\?p=([^&]*)&itemID=.*`)

// locationPattern splits a "Loc: X, Min Buy: Y" label.
var locationPattern = regexp.MustCompile(`(?s)Loc: (.*), Min Buy: (.*)`)

// parseState walks the same seven states as the original ResultHtmlParser:
// 0 idle, 1 inside a blcatimg anchor collecting condition/location/qty
// labels, 2 saw "Qty:" waiting for the <b> quantity, 3 inside that <b>,
// 4 waiting for the <b> unit price, 5 inside that <b>, 6 waiting for the
// shop's store.asp link that closes out the row.
type parseState int

const (
	stateIdle parseState = iota
	stateRow
	stateAwaitQtyBold
	stateInQtyBold
	stateAwaitPriceBold
	stateInPriceBold
	stateAwaitShopLink
)

// ParseShopListing parses a BrickLink catalog search results page into raw
// offers, mirroring the original ResultHtmlParser state machine field for
// field (condition/quantity/unit_price/location/min_buy/shop_name).
func ParseShopListing(body []byte) ([]RawOffer, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))

	var results []RawOffer
	state := stateIdle
	var current RawOffer

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := tokenizer.Token()
			switch {
			case state == stateIdle && tok.Data == "a" && attrVal(tok, "rel") == "blcatimg":
				state = stateRow
				current = RawOffer{}
			case state == stateAwaitQtyBold && tok.Data == "b":
				state = stateInQtyBold
			case state == stateAwaitPriceBold && tok.Data == "b":
				state = stateInPriceBold
			case state == stateAwaitShopLink && tok.Data == "a":
				if href := attrVal(tok, "href"); href != "" {
					if m := shopNamePattern.FindStringSubmatch(href); m != nil {
						current.ShopName = m[1]
						results = append(results, current)
					}
				}
				state = stateIdle
			}

		case html.TextToken:
			data := strings.TrimSpace(string(tokenizer.Text()))
			switch {
			case state == stateRow && strings.HasPrefix(data, "Used"):
				current.Condition = "U"
			case state == stateRow && strings.HasPrefix(data, "New"):
				current.Condition = "N"
			case state == stateRow && strings.HasPrefix(data, "Loc:"):
				if m := locationPattern.FindStringSubmatch(data); m != nil {
					current.Location = strings.TrimSpace(m[1])
					current.MinBuy = extractFloat(m[2])
				}
			case state == stateRow && strings.HasPrefix(data, "Qty:"):
				state = stateAwaitQtyBold
			case state == stateInQtyBold:
				current.Quantity = extractInt(data)
				state = stateAwaitPriceBold
			case state == stateInPriceBold:
				current.UnitPrice = extractPrice(data)
				state = stateAwaitShopLink
			}
		}
	}

	return results, nil
}

func attrVal(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractInt(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, _ := strconv.Atoi(b.String())
	return n
}

func extractFloat(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	f, _ := strconv.ParseFloat(b.String(), 64)
	return f
}

// extractPrice pulls the numeric unit price out of a "US $1.23" label,
// taking the second whitespace-delimited field as the original does.
func extractPrice(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return extractFloat(s)
	}
	return extractFloat(fields[1])
}

// Result converts scraped raw offers into offers.Offer, deduplicating by
// shop name (keeping the larger quantity) and sorting ascending by unit
// price — the same two steps as the original Result() method, which
// offers.Normalize also performs for a whole ByItem at once.
func Result(raw []RawOffer) []offers.Offer {
	bySeller := make(map[string]RawOffer, len(raw))
	for _, r := range raw {
		existing, ok := bySeller[r.ShopName]
		if !ok || r.Quantity > existing.Quantity {
			bySeller[r.ShopName] = r
		}
	}

	out := make([]offers.Offer, 0, len(bySeller))
	for _, r := range bySeller {
		cond := offers.ConditionNew
		if r.Condition == "U" {
			cond = offers.ConditionUsed
		}
		out = append(out, offers.Offer{
			ShopName:      r.ShopName,
			UnitPrice:     r.UnitPrice,
			QuantityAvail: r.Quantity,
			Condition:     cond,
			Location:      r.Location,
			MinBuy:        r.MinBuy,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitPrice != out[j].UnitPrice {
			return out[i].UnitPrice < out[j].UnitPrice
		}
		return out[i].ShopName < out[j].ShopName
	})
	return out
}

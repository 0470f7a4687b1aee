package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/dornbi/bltools-go/internal/lp"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/offersource"
	"github.com/dornbi/bltools-go/internal/pipeline"
	"github.com/dornbi/bltools-go/internal/sourcing"
)

// ============================================================================
// Optimize endpoint — replaces the teacher's basket optimization surface
// (single/multi store shopping) with BrickLink-style purchasing optimization
// over a posted wanted list.
// ============================================================================

// OptimizeRequest is the POST /optimize request body: the wanted-list XML
// inline plus the filter overrides from spec.md §6. All fields besides
// WantedListXML are optional; zero values mean "no restriction".
type OptimizeRequest struct {
	WantedListXML    string   `json:"wantedListXml" binding:"required" jsonschema:"required"`
	Marketplace      string   `json:"marketplace,omitempty"`
	IncludeShops     []string `json:"includeShops,omitempty"`
	ExcludeShops     []string `json:"excludeShops,omitempty"`
	DontExcludeShops []string `json:"dontExcludeShops,omitempty"`
	IncludeCountries []string `json:"includeCountries,omitempty"`
	ExcludeCountries []string `json:"excludeCountries,omitempty"`
	IncludeUsedAll   bool     `json:"includeUsedAll,omitempty"`
}

// SellerAllocation is one seller's share of an OptimizeResponse.
type SellerAllocation struct {
	ShopName string         `json:"shopName" jsonschema:"required"`
	Items    map[string]int `json:"items" jsonschema:"required"` // catalog.Item.Key() -> quantity
	NetTotal float64        `json:"netTotal" jsonschema:"required"`
}

// OptimizeResponse is the POST /optimize response: the persisted run ID plus
// the per-seller allocation and totals from sourcing.Result.
type OptimizeResponse struct {
	RunID      string             `json:"runId" jsonschema:"required"`
	Mode       string             `json:"mode" jsonschema:"required"`
	Sellers    []SellerAllocation `json:"sellers" jsonschema:"required"`
	GrandTotal float64            `json:"grandTotal" jsonschema:"required"`
	GrossTotal float64            `json:"grossTotal" jsonschema:"required"`
}

// optimizeDeps bundles the configuration and shared cache handle the
// /optimize route needs; set once at startup by InitOptimizeHandler,
// mirroring the teacher's InitOptimizers package-level wiring.
var optimizeDeps struct {
	sourcingCfg *sourcing.Config
	lpCfg       *lp.Config
	cache       *offersource.Cache
}

// InitOptimizeHandler wires the dependencies the Optimize handler needs.
// Must be called once during application startup before routes serve
// traffic.
func InitOptimizeHandler(sourcingCfg *sourcing.Config, lpCfg *lp.Config, cache *offersource.Cache) {
	optimizeDeps.sourcingCfg = sourcingCfg
	optimizeDeps.lpCfg = lpCfg
	optimizeDeps.cache = cache
}

// Optimize runs a full purchasing optimization for a posted wanted list.
// POST /optimize
// @Summary Optimize a wanted list
// @Description Reads a BrickLink wanted-list XML document, fetches or reuses cached marketplace offers, and returns the least-cost seller allocation
// @Tags optimize
// @Accept json
// @Produce json
// @Param request body OptimizeRequest true "Wanted list and filter options"
// @Success 200 {object} OptimizeResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 422 {object} map[string]string "No offers satisfy demand"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /optimize [post]
func Optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if optimizeDeps.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "optimizer not initialized"})
		return
	}

	marketplace := req.Marketplace
	if marketplace == "" {
		marketplace = offersource.Slug
	}

	filterOpts := offers.Options{
		IncludeShops:     toSet(req.IncludeShops),
		ExcludeShops:     toSet(req.ExcludeShops),
		DontExcludeShops: toSet(req.DontExcludeShops),
		IncludeCountries: toSet(req.IncludeCountries),
		ExcludeCountries: toSet(req.ExcludeCountries),
		IncludeUsedAll:   req.IncludeUsedAll,
	}

	result, err := pipeline.Optimize(
		c.Request.Context(),
		strings.NewReader(req.WantedListXML),
		marketplace,
		optimizeDeps.sourcingCfg,
		optimizeDeps.lpCfg,
		filterOpts,
		optimizeDeps.cache,
	)
	if err != nil {
		var noOffers offers.ErrNoOffers
		if errors.As(err, &noOffers) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	sellers := make([]SellerAllocation, 0, len(result.Result.Allocation))
	for shop, items := range result.Result.Allocation {
		keyed := make(map[string]int, len(items))
		for item, qty := range items {
			keyed[item.Key()] = qty
		}
		sellers = append(sellers, SellerAllocation{
			ShopName: shop,
			Items:    keyed,
			NetTotal: result.Result.SellerNetTotal(shop),
		})
	}

	c.JSON(http.StatusOK, OptimizeResponse{
		RunID:      result.Run.ID,
		Mode:       result.Run.Mode,
		Sellers:    sellers,
		GrandTotal: result.Result.GrandNetTotal(),
		GrossTotal: result.Result.GrossTotal(),
	})
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

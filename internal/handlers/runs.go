package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/dornbi/bltools-go/internal/database"
)

// ListRunsRequest represents query parameters for listing optimizer runs.
type ListRunsRequest struct {
	Limit  int `form:"limit" json:"limit" binding:"omitempty,min=1,max=100" jsonschema:"minimum=1,maximum=100"`
	Offset int `form:"offset" json:"offset" binding:"min=0" jsonschema:"minimum=0"`
}

// ListRunsResponse represents the response for listing optimizer runs.
type ListRunsResponse struct {
	Runs  []RunSummary `json:"runs" jsonschema:"required"`
	Total int          `json:"total" jsonschema:"required"`
}

// RunSummary is the handler-facing view of a database.Run.
type RunSummary struct {
	ID         string     `json:"id" jsonschema:"required"`
	Mode       string     `json:"mode" jsonschema:"required,enum=builtin,enum=glpk"`
	Status     string     `json:"status" jsonschema:"required,enum=pending,enum=running,enum=completed,enum=failed"`
	GrandTotal *float64   `json:"grandTotal"`
	GrossTotal *float64   `json:"grossTotal"`
	Error      *string    `json:"error"`
	CreatedAt  time.Time  `json:"createdAt" jsonschema:"required"`
	FinishedAt *time.Time `json:"finishedAt"`
}

func toRunSummary(r database.Run) RunSummary {
	return RunSummary{
		ID:         r.ID,
		Mode:       r.Mode,
		Status:     r.Status,
		GrandTotal: r.GrandTotal,
		GrossTotal: r.GrossTotal,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
		FinishedAt: r.FinishedAt,
	}
}

// ListRuns returns a paginated list of optimizer runs, newest first.
// @Summary List optimizer runs
// @Description Returns a paginated list of past optimizer runs
// @Tags runs
// @Accept json
// @Produce json
// @Param limit query int false "Number of items to return" default(20) minimum(1) maximum(100)
// @Param offset query int false "Number of items to skip" default(0) minimum(0)
// @Success 200 {object} ListRunsResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/runs [get]
func ListRuns(c *gin.Context) {
	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	runs, err := database.ListRuns(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch runs"})
		return
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, toRunSummary(r))
	}

	c.JSON(http.StatusOK, ListRunsResponse{Runs: summaries, Total: len(summaries)})
}

// GetRun returns a single optimizer run by ID.
// @Summary Get optimizer run
// @Description Returns a single optimizer run by its ID
// @Tags runs
// @Accept json
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} RunSummary
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Run not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/runs/{runId} [get]
func GetRun(c *gin.Context) {
	runID := c.Param("runId")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "runId is required"})
		return
	}

	run, err := database.GetRun(c.Request.Context(), runID)
	if err == pgx.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run"})
		return
	}

	c.JSON(http.StatusOK, toRunSummary(*run))
}

// CachedOfferView is the handler-facing view of a database.CachedOffer.
type CachedOfferView struct {
	ShopName      string    `json:"shopName" jsonschema:"required"`
	UnitPrice     float64   `json:"unitPrice" jsonschema:"required"`
	QuantityAvail int       `json:"quantityAvail" jsonschema:"required"`
	Condition     string    `json:"condition" jsonschema:"required,enum=N,enum=U"`
	Location      string    `json:"location"`
	MinBuy        float64   `json:"minBuy"`
	FetchedAt     time.Time `json:"fetchedAt" jsonschema:"required"`
}

// ListCachedOffers returns the last cached offer set for one item, keyed by
// catalog.Item.Key(), without triggering a fresh scrape.
// @Summary Get cached offers
// @Description Returns the last cached marketplace offers for one catalog item key
// @Tags offers
// @Accept json
// @Produce json
// @Param itemKey path string true "Item key, e.g. part:3001:new:11"
// @Success 200 {array} CachedOfferView
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/offers/{itemKey} [get]
func ListCachedOffers(c *gin.Context) {
	itemKey := c.Param("itemKey")
	if itemKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemKey is required"})
		return
	}

	rows, err := database.GetCachedOffers(c.Request.Context(), itemKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cached offers"})
		return
	}

	views := make([]CachedOfferView, 0, len(rows))
	for _, r := range rows {
		views = append(views, CachedOfferView{
			ShopName:      r.ShopName,
			UnitPrice:     r.UnitPrice,
			QuantityAvail: r.QuantityAvail,
			Condition:     r.Condition,
			Location:      r.Location,
			MinBuy:        r.MinBuy,
			FetchedAt:     r.FetchedAt,
		})
	}

	c.JSON(http.StatusOK, views)
}

// DeleteOldRuns removes completed/failed runs older than the given number of
// days, replacing the teacher's chain-scoped DeleteRun with a retention sweep
// matching internal/jobs.cleanupRuns's own cutoff convention.
// @Summary Delete old runs
// @Description Deletes completed or failed runs older than olderThanDays
// @Tags runs
// @Accept json
// @Produce json
// @Param olderThanDays query int false "Age cutoff in days" default(30) minimum(1)
// @Success 200 {object} map[string]int64 "deleted"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/runs [delete]
func DeleteOldRuns(c *gin.Context) {
	days := 30
	if raw := c.Query("olderThanDays"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := database.DeleteRunsOlderThan(c.Request.Context(), cutoff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete old runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

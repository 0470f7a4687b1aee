package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/dornbi/bltools-go/config"
	"github.com/dornbi/bltools-go/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	// Check database connection
	if database.Pool() != nil {
		err := database.Status(c.Request.Context())
		if err != nil {
			response.Database = "disconnected"

			// A pgx-pool outage and a fully unreachable Postgres look
			// identical from the pool alone; confirm with a second,
			// independent driver path before reporting the instance
			// itself as down.
			if dbURL := config.GetDatabaseURL(); dbURL != "" {
				if legacyErr := database.StatusLegacy(c.Request.Context(), dbURL); legacyErr == nil {
					response.Database = "disconnected (pool only, instance reachable)"
				}
			}

			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
	} else {
		response.Database = "not configured"
	}

	c.JSON(http.StatusOK, response)
}

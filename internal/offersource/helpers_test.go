package offersource

import (
	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/http/ratelimit"
)

func defaultTestRateLimit() ratelimit.Config {
	return ratelimit.DefaultConfig()
}

func newTestPart(partID string, colorID int) catalog.Item {
	return catalog.NewPart(partID, colorID, catalog.ConditionNew)
}

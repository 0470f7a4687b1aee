package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOptimizeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/optimize", Optimize)
	return router
}

func TestOptimizeRejectsMissingWantedList(t *testing.T) {
	router := setupOptimizeRouter()

	body, err := json.Marshal(OptimizeRequest{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/optimize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeRejectsMalformedJSON(t *testing.T) {
	router := setupOptimizeRouter()

	req := httptest.NewRequest(http.MethodPost, "/optimize", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeReturnsServiceUnavailableWhenUninitialized(t *testing.T) {
	optimizeDeps.cache = nil // ensure InitOptimizeHandler hasn't run in this test binary
	router := setupOptimizeRouter()

	body, err := json.Marshal(OptimizeRequest{WantedListXML: "<INVENTORY></INVENTORY>"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/optimize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestToSetEmptyIsNil(t *testing.T) {
	assert.Nil(t, toSet(nil))
	assert.Nil(t, toSet([]string{}))
}

func TestToSetBuildsMembershipSet(t *testing.T) {
	set := toSet([]string{"BrickBarn", "MapleBricks"})
	assert.True(t, set["BrickBarn"])
	assert.True(t, set["MapleBricks"])
	assert.False(t, set["Other"])
}

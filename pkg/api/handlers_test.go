package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/orchestrator"
	"github.com/quranlabs/tadabbur/pkg/services"
	"github.com/quranlabs/tadabbur/pkg/session"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	orch := orchestrator.New(services.Set{}, session.NewCheckpointer(10))
	return NewServer(orch, nil, time.Minute).Router()
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestStreamRejectsBadRequests(t *testing.T) {
	router := testRouter()

	w := postJSON(router, "/api/discovery/stream", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/api/discovery/stream", `{"query": "x", "mode": "chaotic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamEmitsSSEFrames(t *testing.T) {
	router := testRouter()
	w := postJSON(router, "/api/discovery/stream", `{"query": "الماء في القرآن الكريم", "mode": "guided"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))

	body := w.Body.String()
	names := sseEventNames(body)
	require.NotEmpty(t, names)
	assert.Equal(t, "session_start", names[0])
	assert.Equal(t, "complete", names[len(names)-1])
	assert.Contains(t, names, "quran_found")
	assert.Contains(t, names, "synthesis_token")

	// Arabic stays raw UTF-8 in the data lines, never \u-escaped.
	assert.Contains(t, body, "الماء")
	assert.NotContains(t, body, "\\u0627")
}

func sseEventNames(body string) []string {
	var names []string
	for _, line := range strings.Split(body, "\n") {
		if rest, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, rest)
		}
	}
	return names
}

func TestTimedOutStreamEndsWithErrorEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	orch := orchestrator.New(services.Set{}, session.NewCheckpointer(10))
	router := NewServer(orch, nil, time.Nanosecond).Router()

	w := postJSON(router, "/api/discovery/stream", `{"query": "الماء في القرآن الكريم"}`)
	require.Equal(t, http.StatusOK, w.Code)

	names := sseEventNames(w.Body.String())
	require.NotEmpty(t, names)
	assert.Equal(t, "session_start", names[0])
	assert.Equal(t, "error", names[len(names)-1])
}

func TestExploreReturnsTerminalSummary(t *testing.T) {
	router := testRouter()
	w := postJSON(router, "/api/discovery/explore", `{"query": "الماء في القرآن الكريم"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.NotEmpty(t, body["session_id"])
	assert.NotEmpty(t, body["synthesis"])
	assert.Equal(t, "tier_2", body["confidence_tier"])
	assert.Equal(t, float64(1), body["verses_count"])
	assert.GreaterOrEqual(t, body["science_findings_count"].(float64), float64(1))
	_, present := body["discovery_id"]
	assert.False(t, present)
}

func TestListDiscoveriesWithNullStore(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/discovery/discoveries?tier=tier_1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Discoveries []any  `json:"discoveries"`
		Filter      string `json:"filter"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Discoveries)
	assert.Equal(t, "tier_1", body.Filter)
}

type limitRecordingStore struct {
	services.NullStore
	tier  string
	limit int
}

func (s *limitRecordingStore) List(ctx context.Context, tier string, limit int) ([]models.Discovery, error) {
	s.tier = tier
	s.limit = limit
	return []models.Discovery{}, nil
}

func TestListDiscoveriesPageSize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &limitRecordingStore{}
	orch := orchestrator.New(services.Set{}, session.NewCheckpointer(10))
	router := NewServer(orch, store, time.Minute).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/discovery/discoveries?tier=tier_2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tier_2", store.tier)
	assert.Equal(t, 20, store.limit)
}

func TestListDiscoveriesRejectsInvalidTier(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/discovery/discoveries?tier=tier_9", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEventCommitted("IngredientCreated")
	c.RecordEventCommitted("IngredientCreated")
	c.RecordOutboxPublished("IngredientCreated")
	c.RecordOutboxFailed("IngredientDeleted")
	c.RecordSessionsAbandoned(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.eventsCommitted.WithLabelValues("IngredientCreated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outboxPublished.WithLabelValues("IngredientCreated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outboxFailed.WithLabelValues("IngredientDeleted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.sessionsAbandoned))
}

func TestCollector_HTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", "/api/v1/ingredients", 200, 15*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/v1/ingredients", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/v1/ingredients", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.httpLatency))
}

func TestSetupMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSessionsAbandoned(1)

	srv := httptest.NewServer(SetupMetricsRoute(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pantry_sessions_abandoned_total 1")
}

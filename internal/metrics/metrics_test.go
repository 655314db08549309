package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheCounters(t *testing.T) {
	before := testutil.ToFloat64(CacheLookups.WithLabelValues("unit", ResultHit))
	CacheHit("unit")
	CacheHit("unit")
	CacheMiss("unit")

	if got := testutil.ToFloat64(CacheLookups.WithLabelValues("unit", ResultHit)); got != before+2 {
		t.Fatalf("expected %v hits, got %v", before+2, got)
	}
	if got := testutil.ToFloat64(CacheLookups.WithLabelValues("unit", ResultMiss)); got < 1 {
		t.Fatalf("expected at least one miss, got %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `tribuna_http_requests_total{method="GET",route="/ping",status="200"}`) {
		t.Fatalf("expected request counter in exposition, got:\n%s", w.Body.String())
	}
}

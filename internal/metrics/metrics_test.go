package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/recipe/tags", "200"))
	RecordAPIRequest("GET", "/api/recipe/tags", http.StatusOK, 10*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/recipe/tags", "200"))

	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("expected %v in flight, got %v", before+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("expected %v in flight, got %v", before, got)
	}
}

func TestRecordCatalogOperation(t *testing.T) {
	before := testutil.ToFloat64(CatalogOperations.WithLabelValues("recipe", "create"))
	RecordCatalogOperation("recipe", "create")
	if got := testutil.ToFloat64(CatalogOperations.WithLabelValues("recipe", "create")); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}

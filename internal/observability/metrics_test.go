package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitMetrics(reg)
	if m == nil {
		t.Fatal("InitMetrics returned nil")
	}

	// Double registration must panic through MustRegister.
	defer func() {
		if recover() == nil {
			t.Error("second InitMetrics on the same registry should panic")
		}
	}()
	InitMetrics(reg)
}

func TestMetrics_TransitionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitMetrics(reg)

	m.RecordTransition("submitted", "assigned", "head_of_programs")
	m.RecordTransition("submitted", "assigned", "head_of_programs")
	m.RecordTransitionDenial("under_review", "manager_review", "VERIFICATION_INCOMPLETE")
	m.RecordRequestCompleted("completed")

	if got := testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("submitted", "assigned", "head_of_programs")); got != 2 {
		t.Errorf("transitions counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TransitionDenials.WithLabelValues("under_review", "manager_review", "VERIFICATION_INCOMPLETE")); got != 1 {
		t.Errorf("denial counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequestsCompleted.WithLabelValues("completed")); got != 1 {
		t.Errorf("completed counter = %v, want 1", got)
	}
}

func TestMetrics_CacheAndRouteCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitMetrics(reg)

	m.RecordCapabilityCacheHit()
	m.RecordCapabilityCacheHit()
	m.RecordCapabilityCacheMiss()
	m.RecordCacheFlush("roles")
	m.RecordRouteDenial("settings", "field_officer")

	if got := testutil.ToFloat64(m.CapabilityCacheHitsTotal); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CapabilityCacheMissesTotal); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RouteDenialsTotal.WithLabelValues("settings", "field_officer")); got != 1 {
		t.Errorf("route denials = %v, want 1", got)
	}
}

func TestMetrics_FieldVisitCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitMetrics(reg)

	m.RecordFieldVisitEvent("scheduled")
	m.RecordFieldVisitEvent("completed")
	m.RecordVisitReport()

	if got := testutil.ToFloat64(m.FieldVisitsTotal.WithLabelValues("scheduled")); got != 1 {
		t.Errorf("scheduled = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.VisitReportsTotal); got != 1 {
		t.Errorf("reports = %v, want 1", got)
	}
}

func TestMetrics_RecordRequestCreated_EmptyRegion(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitMetrics(reg)

	m.RecordRequestCreated("")
	if got := testutil.ToFloat64(m.RequestsCreatedTotal.WithLabelValues("unspecified")); got != 1 {
		t.Errorf("unspecified region counter = %v, want 1", got)
	}
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.MetricsMiddleware)
	r.Get("/requests/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/requests/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	// Both requests collapse into one labeled series.
	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/requests/{id}", "200"))
	if got != 2 {
		t.Errorf("pattern counter = %v, want 2", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitMetrics(reg)

	m.RecordHTTPRequest("POST", "/requests", 201, 10*time.Millisecond, 128, 256)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/requests", "201")); got != 1 {
		t.Errorf("http counter = %v, want 1", got)
	}
}

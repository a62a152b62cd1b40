package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHealth()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func readyResponse(t *testing.T, checks ReadinessChecks) (int, ReadinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	HandleReady(checks)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body ReadinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return rec.Code, body
}

func TestHandleReady_AllChecksPass(t *testing.T) {
	code, body := readyResponse(t, ReadinessChecks{
		RolesLoaded:   func() bool { return true },
		RoutesLoaded:  func() bool { return true },
		WorkflowStore: fakePinger{},
	})

	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if body.Status != "ready" {
		t.Errorf("status = %q, want ready", body.Status)
	}
	if len(body.Checks) != 3 {
		t.Errorf("checks = %d, want 3", len(body.Checks))
	}
}

func TestHandleReady_StoreDown(t *testing.T) {
	code, body := readyResponse(t, ReadinessChecks{
		RolesLoaded:   func() bool { return true },
		RoutesLoaded:  func() bool { return true },
		WorkflowStore: fakePinger{err: errors.New("connection refused")},
	})

	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
	if body.Status != "not_ready" {
		t.Errorf("status = %q, want not_ready", body.Status)
	}
	if body.Checks["workflow_store"].Error == "" {
		t.Error("workflow_store check should carry the error message")
	}
}

func TestHandleReady_MissingRequiredCheck(t *testing.T) {
	code, _ := readyResponse(t, ReadinessChecks{
		RolesLoaded: func() bool { return true },
		// RoutesLoaded nil: treated as failing.
	})

	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 for missing required check", code)
	}
}

func TestHandleReady_StoreOptional(t *testing.T) {
	code, body := readyResponse(t, ReadinessChecks{
		RolesLoaded:  func() bool { return true },
		RoutesLoaded: func() bool { return true },
	})

	if code != http.StatusOK {
		t.Errorf("status = %d, want 200 without a store", code)
	}
	if _, present := body.Checks["workflow_store"]; present {
		t.Error("workflow_store check should be absent when no store is wired")
	}
}

package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pitabwire/msaada/model"
)

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) *model.ErrorEnvelope {
	t.Helper()
	var body struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error == nil {
		t.Fatal("response has no error field")
	}
	return body.Error
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"hello": "world"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad request", model.NewBadRequestError("nope"), http.StatusBadRequest, model.ErrBadRequest},
		{"unauthenticated", model.NewUnauthenticatedError("no token"), http.StatusUnauthorized, model.ErrUnauthenticated},
		{"forbidden", model.NewForbiddenError("denied"), http.StatusForbidden, model.ErrForbidden},
		{"not found", model.NewNotFoundError("gone"), http.StatusNotFound, model.ErrNotFound},
		{"conflict", model.NewConflictError("stale"), http.StatusConflict, model.ErrConflict},
		{"validation", model.NewValidationError(nil), http.StatusUnprocessableEntity, model.ErrValidationError},
		{"invalid transition", model.NewInvalidTransitionError("no edge"), http.StatusUnprocessableEntity, model.ErrInvalidTransition},
		{"unauthorized role", model.NewUnauthorizedError("wrong role"), http.StatusForbidden, model.ErrUnauthorized},
		{"comment required", model.NewCommentRequiredError("say why"), http.StatusUnprocessableEntity, model.ErrCommentRequired},
		{"verification incomplete", model.NewVerificationIncompleteError("no report"), http.StatusConflict, model.ErrVerificationIncomplete},
		{"internal", model.NewInternalError(), http.StatusInternalServerError, model.ErrInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ee := decodeErrorBody(t, rec); ee.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", ee.Code, tt.wantCode)
			}
		})
	}
}

func TestWriteError_PlainErrorBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("disk on fire"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	ee := decodeErrorBody(t, rec)
	if ee.Code != model.ErrInternalError {
		t.Errorf("code = %q, want %q", ee.Code, model.ErrInternalError)
	}
}

func TestWriteValidationError_CarriesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, []model.FieldError{
		{Field: "title", Code: "required", Message: "a title is required"},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	ee := decodeErrorBody(t, rec)
	if len(ee.Details) != 1 || ee.Details[0].Field != "title" {
		t.Errorf("details = %+v", ee.Details)
	}
}

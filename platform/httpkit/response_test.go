package httpkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gearbox_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func recordError(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if !HandleError(c, err) {
		t.Fatalf("HandleError returned false for %v", err)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return w, body
}

func TestHandleErrorNil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if HandleError(c, nil) {
		t.Fatal("HandleError(nil) = true, want false")
	}
}

func TestHandleErrorDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperr.NotFound("quote not found"), http.StatusNotFound, "not_found"},
		{"conflict", apperr.Conflict("request already has an active estimate"), http.StatusConflict, "conflict"},
		{"conflict with code", apperr.Conflict("provider already quoted this request").WithCode("duplicate_quote"), http.StatusConflict, "duplicate_quote"},
		{"invalid state", apperr.InvalidState("request is completed and cannot change status"), http.StatusBadRequest, "invalid_state"},
		{"invalid transition", apperr.InvalidTransition("cannot transition request from pending to completed"), http.StatusBadRequest, "invalid_transition"},
		{"expired", apperr.Expired("quote validity window has passed"), http.StatusGone, "expired"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, body := recordError(t, tc.err)
			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if body.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tc.wantCode)
			}
		})
	}
}

// An error that is not a typed domain error is an infrastructure failure.
// It must come back as a 500 with a generic body; the internal message
// (query text, connection state) must never reach the client.
func TestHandleErrorInfrastructureFailure(t *testing.T) {
	cause := errors.New("conn closed")
	err := fmt.Errorf("failed to get service request: %w", cause)

	w, body := recordError(t, err)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if body.Code != "internal" {
		t.Errorf("code = %q, want %q", body.Code, "internal")
	}
	if strings.Contains(body.Error, "conn closed") || strings.Contains(body.Error, "service request") {
		t.Errorf("response leaks internal error text: %q", body.Error)
	}
}

// A typed domain error wrapped by an upper layer still maps through its Kind.
func TestHandleErrorWrappedDomainError(t *testing.T) {
	err := fmt.Errorf("accept quote: %w", apperr.NotFound("quote not found"))

	w, body := recordError(t, err)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if body.Code != "not_found" {
		t.Errorf("code = %q, want %q", body.Code, "not_found")
	}
}

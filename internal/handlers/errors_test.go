package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"udan-bangla-backend/internal/models"
	"udan-bangla-backend/internal/quiz"
	"udan-bangla-backend/internal/services"
)

func TestHandleServiceError_Mapping(t *testing.T) {
	upstream := &services.UpstreamError{Message: "Question generator failed", Err: errors.New("quota")}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"class": "bad"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "missing"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "no"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "no"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"upstream", upstream, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"wrapped not found", fmt.Errorf("load: %w", &services.NotFoundError{Message: "gone"}), http.StatusNotFound, "NOT_FOUND"},
		{"option out of range", quiz.ErrInvalidOptionIndex, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"already answered", quiz.ErrAlreadyAnswered, http.StatusConflict, "QUIZ_STATE_CONFLICT"},
		{"not yet answered", quiz.ErrNotYetAnswered, http.StatusConflict, "QUIZ_STATE_CONFLICT"},
		{"no selection", quiz.ErrNoSelection, http.StatusConflict, "QUIZ_STATE_CONFLICT"},
		{"finished", quiz.ErrInvalidState, http.StatusConflict, "QUIZ_STATE_CONFLICT"},
		{"empty bank", fmt.Errorf("%w: no valid questions", quiz.ErrInvalidQuestionSet), http.StatusUnprocessableEntity, "NO_QUESTIONS"},
		{"generation failed", fmt.Errorf("%w: question generation failed: %w", quiz.ErrInvalidQuestionSet, upstream), http.StatusBadGateway, "QUESTION_GENERATION_FAILED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/anything", nil)
			req.Header.Set("X-Request-ID", "req-1")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-1" {
				t.Errorf("expected request id to be echoed, got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
	rr := httptest.NewRecorder()

	handleServiceError(rr, req, &services.ValidationError{Fields: map[string]string{"email": "Email is required"}})

	var resp models.ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Error.Fields["email"] != "Email is required" {
		t.Fatalf("expected field error to be returned, got %v", resp.Error.Fields)
	}
}

func TestDecodeBody_RejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", stringsReader("{not json"))
	rr := httptest.NewRecorder()

	var v map[string]string
	if decodeBody(rr, req, &v) {
		t.Fatal("expected decode to fail")
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

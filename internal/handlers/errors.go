package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"udan-bangla-backend/internal/models"
	"udan-bangla-backend/internal/quiz"
	"udan-bangla-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return errorRespWithFields(code, message, nil, r)
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid "+name, r))
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service and quiz errors onto the JSON error
// envelope. Errors may arrive wrapped, so matching walks the chain.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if handleQuizError(w, r, err) {
		return
	}

	var (
		validation   *services.ValidationError
		conflict     *services.ConflictError
		notFound     *services.NotFoundError
		unauthorized *services.UnauthorizedError
		forbidden    *services.ForbiddenError
		rateLimit    *services.RateLimitError
		upstream     *services.UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validation.Fields, r))
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", conflict.Message, r))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFound.Message, r))
	case errors.As(err, &unauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", unauthorized.Message, r))
	case errors.As(err, &forbidden):
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", forbidden.Message, r))
	case errors.As(err, &rateLimit):
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", rateLimit.Message, r))
	case errors.As(err, &upstream):
		log.Printf("Upstream failure on %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", upstream.Message, r))
	default:
		log.Printf("Unhandled error on %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// handleQuizError writes a response for quiz session errors and reports
// whether err was one.
func handleQuizError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, quiz.ErrInvalidOptionIndex):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"option_index": "Option index is out of range"}, r))
	case errors.Is(err, quiz.ErrInvalidState),
		errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrNotYetAnswered),
		errors.Is(err, quiz.ErrNoSelection):
		writeJSON(w, http.StatusConflict, errorResp("QUIZ_STATE_CONFLICT", quizStateMessage(err), r))
	case errors.Is(err, quiz.ErrInvalidQuestionSet):
		var upstream *services.UpstreamError
		if errors.As(err, &upstream) {
			log.Printf("Question generation failed: %v", err)
			writeJSON(w, http.StatusBadGateway, errorResp("QUESTION_GENERATION_FAILED", "Could not generate questions right now. Please try again.", r))
			return true
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("NO_QUESTIONS", "No questions are available for this topic yet", r))
	default:
		return false
	}
	return true
}

func quizStateMessage(err error) string {
	switch {
	case errors.Is(err, quiz.ErrAlreadyAnswered):
		return "This question has already been answered"
	case errors.Is(err, quiz.ErrNotYetAnswered):
		return "Submit an answer before moving on"
	case errors.Is(err, quiz.ErrNoSelection):
		return "Select an option first"
	default:
		return "The quiz is already finished or not in progress"
	}
}

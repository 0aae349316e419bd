package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"udan-bangla-backend/internal/middleware"
	"udan-bangla-backend/internal/models"
)

type quizService interface {
	Start(ctx context.Context, userID uuid.UUID, req models.StartQuizRequest) (*models.QuizSessionView, error)
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizSessionView, error)
	SelectOption(ctx context.Context, userID, sessionID uuid.UUID, index int) (*models.QuizSessionView, error)
	Submit(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizSessionView, error)
	Advance(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizSessionView, error)
	Result(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizResultView, error)
}

type QuizHandler struct {
	quiz quizService
}

func NewQuizHandler(quiz quizService) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.quiz.Start(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.quiz.Get)
}

func (h *QuizHandler) SelectOption(w http.ResponseWriter, r *http.Request) {
	var req models.SelectOptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.OptionIndex == nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"option_index": "Option index is required"}, r))
		return
	}

	h.sessionAction(w, r, func(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizSessionView, error) {
		return h.quiz.SelectOption(ctx, userID, sessionID, *req.OptionIndex)
	})
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.quiz.Submit)
}

func (h *QuizHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.quiz.Advance)
}

func (h *QuizHandler) Result(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	result, err := h.quiz.Result(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *QuizHandler) sessionAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizSessionView, error)) {
	sessionID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	view, err := action(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"udan-bangla-backend/internal/middleware"
	"udan-bangla-backend/internal/models"
)

const maxCSVBytes = 2 << 20

type adminService interface {
	Overview(ctx context.Context) (*models.AdminOverview, error)
	ListQuestions(ctx context.Context, topicID string) ([]models.Question, error)
	AddQuestion(ctx context.Context, topicID string, req models.AddQuestionRequest) (*models.Question, error)
	ImportCSV(ctx context.Context, topicID string, body io.Reader) (*models.ImportSummary, error)
	DeleteQuestion(ctx context.Context, topicID string, questionID uuid.UUID) error
	ClearTopic(ctx context.Context, topicID string) (int64, error)
	GenerateBank(ctx context.Context, adminID uuid.UUID, topicID string, req models.GenerateBankRequest) (*models.Job, error)
}

type AdminHandler struct {
	admin adminService
}

func NewAdminHandler(admin adminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.admin.Overview(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicID")
	questions, err := h.admin.ListQuestions(r.Context(), topicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topic_id":  topicID,
		"questions": questions,
		"total":     len(questions),
	})
}

func (h *AdminHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.AddQuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q, err := h.admin.AddQuestion(r.Context(), chi.URLParam(r, "topicID"), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, q)
}

// ImportCSV accepts either a raw text/csv body or JSON {"csv": "..."}.
func (h *AdminHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCSVBytes)

	var body io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req struct {
			CSV string `json:"csv"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
		body = strings.NewReader(req.CSV)
	}

	summary, err := h.admin.ImportCSV(r.Context(), chi.URLParam(r, "topicID"), body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := uuidParam(w, r, "questionID")
	if !ok {
		return
	}

	if err := h.admin.DeleteQuestion(r.Context(), chi.URLParam(r, "topicID"), questionID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ClearTopic(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicID")
	deleted, err := h.admin.ClearTopic(r.Context(), topicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topic_id": topicID,
		"deleted":  deleted,
	})
}

func (h *AdminHandler) GenerateBank(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateBankRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := h.admin.GenerateBank(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "topicID"), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"udan-bangla-backend/internal/middleware"
	"udan-bangla-backend/internal/models"
)

type profileService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error)
	Stats(ctx context.Context, userID uuid.UUID) (*models.UserProfileStats, error)
	RecentResults(ctx context.Context, userID uuid.UUID) ([]*models.QuizResult, error)
}

type ProfileHandler struct {
	profile profileService
}

func NewProfileHandler(profile profileService) *ProfileHandler {
	return &ProfileHandler{profile: profile}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.profile.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":     user,
		"is_admin": middleware.GetRole(r.Context()) == middleware.RoleAdmin,
	})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.profile.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profile.Stats(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *ProfileHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.profile.RecentResults(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"udan-bangla-backend/internal/models"
)

const (
	maxDisplayNameLength = 80
	recentResultsLimit   = 20
)

type profileUserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

type statsReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserProfileStats, error)
}

type resultLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizResult, error)
}

type ProfileService struct {
	users   profileUserStore
	stats   statsReader
	results resultLister
}

func NewProfileService(users profileUserStore, stats statsReader, results resultLister) *ProfileService {
	return &ProfileService{users: users, stats: stats, results: results}
}

func (s *ProfileService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" || len([]rune(name)) > maxDisplayNameLength {
		return nil, &ValidationError{Fields: map[string]string{"display_name": "Display name must be 1-80 characters"}}
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.DisplayName = name
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Stats returns the user's profile stats, or a zero record on the user's
// plan when no quiz has been recorded yet.
func (s *ProfileService) Stats(ctx context.Context, userID uuid.UUID) (*models.UserProfileStats, error) {
	st, err := s.stats.Get(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	plan := defaultPlan
	if user, err := s.users.GetByID(ctx, userID); err == nil && user.Plan != "" {
		plan = user.Plan
	}
	return &models.UserProfileStats{
		UserID:           userID,
		TargetExam:       defaultTargetExam,
		SubscriptionPlan: plan,
		SubjectWise:      []models.SubjectPerformance{},
		WeakChapters:     []string{},
		RecentScores:     []int{},
	}, nil
}

func (s *ProfileService) RecentResults(ctx context.Context, userID uuid.UUID) ([]*models.QuizResult, error) {
	return s.results.ListByUser(ctx, userID, recentResultsLimit)
}

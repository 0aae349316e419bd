package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"udan-bangla-backend/internal/models"
)

type stubStatsReader struct {
	stats *models.UserProfileStats
}

func (s *stubStatsReader) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfileStats, error) {
	if s.stats == nil {
		return nil, pgx.ErrNoRows
	}
	return s.stats, nil
}

type stubProfileUsers struct {
	user    *models.User
	updated *models.User
}

func (s *stubProfileUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, pgx.ErrNoRows
	}
	cp := *s.user
	return &cp, nil
}

func (s *stubProfileUsers) UpdateProfile(ctx context.Context, user *models.User) error {
	s.updated = user
	return nil
}

type noResults struct{}

func (noResults) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizResult, error) {
	return []*models.QuizResult{}, nil
}

func TestProfileStats_DefaultsForNewUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), Plan: "Pro"}
	svc := NewProfileService(&stubProfileUsers{user: user}, &stubStatsReader{}, noResults{})

	st, err := svc.Stats(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TestsAttempted != 0 || st.TargetExam != "WBJEE" || st.SubscriptionPlan != "Pro" {
		t.Fatalf("unexpected default stats %+v", st)
	}
	if st.RecentScores == nil || st.SubjectWise == nil || st.WeakChapters == nil {
		t.Fatal("expected empty slices, not nil, so JSON renders []")
	}
}

func TestUpdateProfile(t *testing.T) {
	user := &models.User{ID: uuid.New(), DisplayName: "Old"}
	users := &stubProfileUsers{user: user}
	svc := NewProfileService(users, &stubStatsReader{}, noResults{})

	got, err := svc.UpdateProfile(context.Background(), user.ID, models.UpdateProfileRequest{DisplayName: "  Ananya  "})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.DisplayName != "Ananya" || users.updated == nil || users.updated.DisplayName != "Ananya" {
		t.Fatalf("expected trimmed name to be stored, got %+v", users.updated)
	}

	for _, name := range []string{"", "   ", strings.Repeat("ক", 81)} {
		_, err := svc.UpdateProfile(context.Background(), user.ID, models.UpdateProfileRequest{DisplayName: name})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("name %q: expected ValidationError, got %v", name, err)
		}
	}

	_, err = svc.UpdateProfile(context.Background(), uuid.New(), models.UpdateProfileRequest{DisplayName: "X"})
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

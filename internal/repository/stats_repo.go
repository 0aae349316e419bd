package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"udan-bangla-backend/internal/models"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

const statsColumns = `s.user_id, s.target_exam, s.tests_attempted, s.average_score, s.subscription_plan,
	s.subject_wise, s.weak_chapters, s.recent_scores, s.updated_at`

// Get loads a user's stats. The global rank is derived from average score
// among users with at least one attempt; users without attempts rank 0.
func (r *StatsRepo) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfileStats, error) {
	query := `
		SELECT ` + statsColumns + `,
			CASE WHEN s.tests_attempted = 0 THEN 0 ELSE (
				SELECT COUNT(*) + 1 FROM user_stats o
				WHERE o.tests_attempted > 0 AND o.average_score > s.average_score
			) END AS global_rank
		FROM user_stats s WHERE s.user_id = $1`

	var rank int
	st, err := scanStats(r.pool.QueryRow(ctx, query, userID), &rank)
	if err != nil {
		return nil, err
	}
	st.GlobalRank = rank
	return st, nil
}

func scanStats(row pgx.Row, extra ...any) (*models.UserProfileStats, error) {
	var (
		st                              models.UserProfileStats
		subjectWise, weak, recentScores []byte
	)
	dest := append([]any{
		&st.UserID, &st.TargetExam, &st.TestsAttempted, &st.AverageScore, &st.SubscriptionPlan,
		&subjectWise, &weak, &recentScores, &st.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(subjectWise, &st.SubjectWise); err != nil {
		return nil, fmt.Errorf("failed to decode subject_wise: %w", err)
	}
	if err := json.Unmarshal(weak, &st.WeakChapters); err != nil {
		return nil, fmt.Errorf("failed to decode weak_chapters: %w", err)
	}
	if err := json.Unmarshal(recentScores, &st.RecentScores); err != nil {
		return nil, fmt.Errorf("failed to decode recent_scores: %w", err)
	}
	return &st, nil
}

func upsertStats(ctx context.Context, db dbtx, st *models.UserProfileStats) error {
	subjectWise, _ := json.Marshal(nonNil(st.SubjectWise))
	weak, _ := json.Marshal(nonNil(st.WeakChapters))
	recentScores, _ := json.Marshal(nonNil(st.RecentScores))

	_, err := db.Exec(ctx, `
		INSERT INTO user_stats (user_id, target_exam, tests_attempted, average_score, subscription_plan,
			subject_wise, weak_chapters, recent_scores, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			target_exam = EXCLUDED.target_exam,
			tests_attempted = EXCLUDED.tests_attempted,
			average_score = EXCLUDED.average_score,
			subscription_plan = EXCLUDED.subscription_plan,
			subject_wise = EXCLUDED.subject_wise,
			weak_chapters = EXCLUDED.weak_chapters,
			recent_scores = EXCLUDED.recent_scores,
			updated_at = NOW()`,
		st.UserID, st.TargetExam, st.TestsAttempted, st.AverageScore, st.SubscriptionPlan,
		string(subjectWise), string(weak), string(recentScores),
	)
	return err
}

// RecordResult stores a finished session and folds it into the user's stats
// in one transaction. The stats row is locked while apply runs. When a
// result for the session already exists nothing changes and it reports false.
func (r *StatsRepo) RecordResult(ctx context.Context, res *models.QuizResult, apply func(prev *models.UserProfileStats) models.UserProfileStats) (*models.UserProfileStats, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin result transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted, err := insertResult(ctx, tx, res)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert result: %w", err)
	}
	if !inserted {
		return nil, false, nil
	}

	prev, err := scanStats(tx.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM user_stats s WHERE s.user_id = $1 FOR UPDATE`, res.UserID))
	if errors.Is(err, pgx.ErrNoRows) {
		prev, err = nil, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load stats: %w", err)
	}

	next := apply(prev)
	if err := upsertStats(ctx, tx, &next); err != nil {
		return nil, false, fmt.Errorf("failed to save stats: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit result: %w", err)
	}
	return &next, true, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

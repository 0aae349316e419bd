package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"udan-bangla-backend/internal/models"
)

type QuizResultRepo struct {
	pool *pgxpool.Pool
}

func NewQuizResultRepo(pool *pgxpool.Pool) *QuizResultRepo {
	return &QuizResultRepo{pool: pool}
}

// insertResult stores a finished session. It reports false when a result
// for the same session already exists, so a retried job does not count twice.
func insertResult(ctx context.Context, db dbtx, res *models.QuizResult) (bool, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}

	query := `INSERT INTO quiz_results (id, user_id, session_id, topic_id, topic_title, exam, score, total_questions, percentage, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id) DO NOTHING`

	tag, err := db.Exec(ctx, query,
		res.ID, res.UserID, res.SessionID, res.TopicID, res.TopicTitle, res.Exam,
		res.Score, res.TotalQuestions, res.Percentage, res.FinishedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *QuizResultRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizResult, error) {
	query := `SELECT id, user_id, session_id, topic_id, topic_title, exam, score, total_questions, percentage, finished_at
		FROM quiz_results WHERE user_id = $1 ORDER BY finished_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*models.QuizResult, 0)
	for rows.Next() {
		res := &models.QuizResult{}
		err := rows.Scan(&res.ID, &res.UserID, &res.SessionID, &res.TopicID, &res.TopicTitle, &res.Exam,
			&res.Score, &res.TotalQuestions, &res.Percentage, &res.FinishedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// CountFinishedSince counts results recorded at or after since.
func (r *QuizResultRepo) CountFinishedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quiz_results WHERE finished_at >= $1", since).Scan(&n)
	return n, err
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"udan-bangla-backend/internal/models"
)

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

const questionColumns = `id, topic_id, question_text, options, correct_index, explanation, created_at`

func scanQuestion(row pgx.Row) (models.Question, error) {
	var (
		q  models.Question
		id uuid.UUID
	)
	err := row.Scan(&id, &q.TopicID, &q.Text, &q.Options, &q.CorrectIndex, &q.Explanation, &q.CreatedAt)
	q.ID = id.String()
	return q, err
}

// FetchQuestions returns every stored question for a topic, oldest first.
func (r *QuestionRepo) FetchQuestions(ctx context.Context, topicID string) ([]models.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE topic_id = $1 ORDER BY created_at, id`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]models.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepo) Create(ctx context.Context, q *models.Question) error {
	id := uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (id, topic_id, question_text, options, correct_index, explanation)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		id, q.TopicID, q.Text, q.Options, q.CorrectIndex, q.Explanation,
	).Scan(&q.CreatedAt)
	if err != nil {
		return err
	}
	q.ID = id.String()
	return nil
}

// BulkCreate inserts all questions for topicID in one transaction.
func (r *QuestionRepo) BulkCreate(ctx context.Context, topicID string, questions []models.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(
			`INSERT INTO questions (id, topic_id, question_text, options, correct_index, explanation)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), topicID, q.Text, q.Options, q.CorrectIndex, q.Explanation,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range questions {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to insert question %d: %w", i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit bulk insert: %w", err)
	}
	return len(questions), nil
}

func (r *QuestionRepo) Delete(ctx context.Context, topicID string, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM questions WHERE id = $1 AND topic_id = $2", id, topicID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *QuestionRepo) ClearTopic(ctx context.Context, topicID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM questions WHERE topic_id = $1", topicID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *QuestionRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM questions").Scan(&n)
	return n, err
}

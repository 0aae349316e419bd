package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"udan-bangla-backend/internal/catalog"
	"udan-bangla-backend/internal/models"
)

const (
	activeSessionWindow = 10 * time.Minute
	maxGeneratedPerJob  = 50
)

type questionBank interface {
	FetchQuestions(ctx context.Context, topicID string) ([]models.Question, error)
	Create(ctx context.Context, q *models.Question) error
	BulkCreate(ctx context.Context, topicID string, questions []models.Question) (int, error)
	Delete(ctx context.Context, topicID string, id uuid.UUID) (bool, error)
	ClearTopic(ctx context.Context, topicID string) (int64, error)
	CountAll(ctx context.Context) (int, error)
}

type userCounter interface {
	CountAll(ctx context.Context) (int, error)
}

type recentResultCounter interface {
	CountFinishedSince(ctx context.Context, since time.Time) (int, error)
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, userID uuid.UUID, jobType, referenceID string, config any) (*models.Job, error)
}

type AdminService struct {
	questions questionBank
	users     userCounter
	results   recentResultCounter
	jobs      jobEnqueuer
	now       func() time.Time
}

func NewAdminService(questions questionBank, users userCounter, results recentResultCounter, jobs jobEnqueuer) *AdminService {
	return &AdminService{
		questions: questions,
		users:     users,
		results:   results,
		jobs:      jobs,
		now:       time.Now,
	}
}

// Overview gathers the dashboard counters concurrently. Active sessions are
// results recorded in the last ten minutes.
func (s *AdminService) Overview(ctx context.Context) (*models.AdminOverview, error) {
	var overview models.AdminOverview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.users.CountAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		overview.TotalUsers = n
		return nil
	})
	g.Go(func() error {
		n, err := s.results.CountFinishedSince(gctx, s.now().Add(-activeSessionWindow))
		if err != nil {
			return fmt.Errorf("failed to count recent results: %w", err)
		}
		overview.ActiveSessions = n
		return nil
	})
	g.Go(func() error {
		n, err := s.questions.CountAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}
		overview.TotalQuestions = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}

func lookupTopic(topicID string) (models.Topic, error) {
	topic, ok := catalog.Lookup(topicID)
	if !ok {
		return models.Topic{}, &NotFoundError{Message: "Topic not found"}
	}
	return topic, nil
}

func (s *AdminService) ListQuestions(ctx context.Context, topicID string) ([]models.Question, error) {
	if _, err := lookupTopic(topicID); err != nil {
		return nil, err
	}
	return s.questions.FetchQuestions(ctx, topicID)
}

func (s *AdminService) AddQuestion(ctx context.Context, topicID string, req models.AddQuestionRequest) (*models.Question, error) {
	if _, err := lookupTopic(topicID); err != nil {
		return nil, err
	}
	q, err := BuildManualQuestion(req)
	if err != nil {
		return nil, err
	}
	q.TopicID = topicID
	if err := s.questions.Create(ctx, &q); err != nil {
		return nil, fmt.Errorf("failed to save question: %w", err)
	}
	return &q, nil
}

func (s *AdminService) ImportCSV(ctx context.Context, topicID string, body io.Reader) (*models.ImportSummary, error) {
	if _, err := lookupTopic(topicID); err != nil {
		return nil, err
	}
	report, err := ParseQuestionCSV(body)
	if err != nil {
		return nil, err
	}
	added, err := s.questions.BulkCreate(ctx, topicID, report.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to import questions: %w", err)
	}
	log.Printf("Imported %d questions into %s (%d rows skipped)", added, topicID, report.Skipped)
	return &models.ImportSummary{TopicID: topicID, Added: added, Skipped: report.Skipped}, nil
}

func (s *AdminService) DeleteQuestion(ctx context.Context, topicID string, questionID uuid.UUID) error {
	if _, err := lookupTopic(topicID); err != nil {
		return err
	}
	deleted, err := s.questions.Delete(ctx, topicID, questionID)
	if err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Message: "Question not found"}
	}
	return nil
}

func (s *AdminService) ClearTopic(ctx context.Context, topicID string) (int64, error) {
	if _, err := lookupTopic(topicID); err != nil {
		return 0, err
	}
	n, err := s.questions.ClearTopic(ctx, topicID)
	if err != nil {
		return 0, err
	}
	log.Printf("Cleared %d questions from %s", n, topicID)
	return n, nil
}

// GenerateBank queues a background job that asks the generator for count
// questions and stores the valid ones in the topic's bank.
func (s *AdminService) GenerateBank(ctx context.Context, adminID uuid.UUID, topicID string, req models.GenerateBankRequest) (*models.Job, error) {
	topic, err := lookupTopic(topicID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if req.Count < 1 || req.Count > maxGeneratedPerJob {
		fields["count"] = fmt.Sprintf("Count must be between 1 and %d", maxGeneratedPerJob)
	}
	if !catalog.ValidClass(req.Class) {
		fields["class"] = "Class must be 8-12 or WBJEE"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	config := models.BankGenerationConfig{
		TopicID:       topic.ID,
		PromptContext: catalog.PromptContext(topic, req.Class),
		Count:         req.Count,
	}
	return s.jobs.Enqueue(ctx, adminID, JobBankGeneration, topic.ID, config)
}

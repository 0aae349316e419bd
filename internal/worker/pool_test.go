package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"udan-bangla-backend/internal/models"
	"udan-bangla-backend/internal/services"
)

type statusLog struct {
	mu       sync.Mutex
	statuses []string
	lastErr  string
	retries  int
}

func (s *statusLog) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *statusLog) UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr, s.retries = errMsg, retryCount
	return nil
}

func (s *statusLog) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[len(s.statuses)-1]
}

type stubRecorder struct {
	seen map[uuid.UUID]bool
	prev *models.UserProfileStats
	got  *models.QuizResult
}

func (r *stubRecorder) RecordResult(ctx context.Context, res *models.QuizResult, apply func(prev *models.UserProfileStats) models.UserProfileStats) (*models.UserProfileStats, bool, error) {
	if r.seen == nil {
		r.seen = map[uuid.UUID]bool{}
	}
	if r.seen[res.SessionID] {
		return nil, false, nil
	}
	r.seen[res.SessionID] = true
	res.ID = uuid.New()
	r.got = res
	next := apply(r.prev)
	r.prev = &next
	return &next, true, nil
}

type stubBankWriter struct {
	topic string
	added []models.Question
}

func (b *stubBankWriter) BulkCreate(ctx context.Context, topicID string, questions []models.Question) (int, error) {
	b.topic = topicID
	b.added = append(b.added, questions...)
	return len(questions), nil
}

type stubGenerator struct {
	questions []models.Question
	err       error
}

func (g *stubGenerator) GenerateQuestions(ctx context.Context, promptContext string, count int) ([]models.Question, error) {
	return g.questions, g.err
}

type capturePublisher struct {
	mu   sync.Mutex
	msgs []models.WSMessage
}

func (c *capturePublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *capturePublisher) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = m.Type
	}
	return out
}

type capturePusher struct {
	mu     sync.Mutex
	pushed []string
}

func (c *capturePusher) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushed = append(c.pushed, key)
	return redis.NewIntResult(1, nil)
}

func newTestPool(gen *stubGenerator) (*Pool, *statusLog, *stubRecorder, *stubBankWriter, *capturePublisher, *capturePusher) {
	jobs := &statusLog{}
	rec := &stubRecorder{}
	bank := &stubBankWriter{}
	pub := &capturePublisher{}
	push := &capturePusher{}
	return &Pool{
		queue:     push,
		jobRepo:   jobs,
		results:   rec,
		bank:      bank,
		generator: gen,
		notifier:  pub,
		stopChan:  make(chan struct{}),
	}, jobs, rec, bank, pub, push
}

func makeJob(t *testing.T, jobType string, config any) *models.Job {
	t.Helper()
	data, err := json.Marshal(config)
	if err != nil {
		t.Fatal(err)
	}
	return &models.Job{ID: uuid.New(), UserID: uuid.New(), Type: jobType, ConfigJSON: data}
}

func TestRun_ResultRecording(t *testing.T) {
	pool, jobs, rec, _, pub, _ := newTestPool(&stubGenerator{})
	outcome := models.QuizOutcome{
		SessionID:  uuid.New(),
		UserID:     uuid.New(),
		TopicID:    "wbjee-math",
		TopicTitle: "Mathematics",
		Class:      "WBJEE",
		Score:      3,
		Total:      5,
		FinishedAt: time.Now(),
	}

	pool.run(context.Background(), makeJob(t, services.JobResultRecording, outcome))

	if jobs.last() != "completed" {
		t.Fatalf("expected completed, got %v", jobs.statuses)
	}
	if rec.got.Percentage != 60 || rec.got.Exam == nil || *rec.got.Exam != "WBJEE" {
		t.Fatalf("unexpected result row %+v", rec.got)
	}
	if rec.prev.TestsAttempted != 1 || rec.prev.AverageScore != 60 {
		t.Fatalf("unexpected stats %+v", rec.prev)
	}
	if got := pub.types(); len(got) != 2 || got[0] != services.MsgResultRecorded || got[1] != services.MsgStatsUpdated {
		t.Fatalf("unexpected notifications %v", got)
	}

	// A redelivered job must not count twice.
	pool.run(context.Background(), makeJob(t, services.JobResultRecording, outcome))
	if rec.prev.TestsAttempted != 1 || len(pub.types()) != 2 {
		t.Fatalf("duplicate job changed stats: %+v", rec.prev)
	}
}

func TestRun_BankGeneration(t *testing.T) {
	questions := []models.Question{
		{ID: "gen-1", Text: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
		{ID: "gen-2", Text: "Q2", Options: []string{"a", "b"}, CorrectIndex: 0},
		{ID: "gen-3", Text: "Q3", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3},
		{ID: "gen-4", Text: "Q4", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0},
	}
	pool, jobs, _, bank, pub, _ := newTestPool(&stubGenerator{questions: questions})

	pool.run(context.Background(), makeJob(t, services.JobBankGeneration, models.BankGenerationConfig{
		TopicID: "science", PromptContext: "General Science", Count: 2,
	}))

	if jobs.last() != "completed" {
		t.Fatalf("expected completed, got %v", jobs.statuses)
	}
	if bank.topic != "science" || len(bank.added) != 2 || bank.added[1].ID != "gen-3" {
		t.Fatalf("expected two valid questions stored, got %+v", bank.added)
	}
	if got := pub.types(); len(got) != 1 || got[0] != services.MsgQuestionBankUpdated {
		t.Fatalf("unexpected notifications %v", got)
	}
}

func TestRun_RetryThenFail(t *testing.T) {
	pool, jobs, _, _, pub, push := newTestPool(&stubGenerator{err: errors.New("quota exceeded")})
	job := makeJob(t, services.JobBankGeneration, models.BankGenerationConfig{TopicID: "math", Count: 5})

	pool.run(context.Background(), job)
	if jobs.last() != "pending" || jobs.retries != 1 {
		t.Fatalf("expected retry scheduling, got %v (retries %d)", jobs.statuses, jobs.retries)
	}

	job.RetryCount = maxAttempts - 1
	pool.run(context.Background(), job)
	if jobs.last() != "failed" || jobs.lastErr != "quota exceeded" {
		t.Fatalf("expected permanent failure, got %v (%s)", jobs.statuses, jobs.lastErr)
	}
	if got := pub.types(); len(got) != 1 || got[0] != services.MsgJobFailed {
		t.Fatalf("expected failure notification, got %v", got)
	}

	// The first failure requeues after a two second backoff.
	deadline := time.Now().Add(4 * time.Second)
	for time.Now().Before(deadline) {
		push.mu.Lock()
		n := len(push.pushed)
		push.mu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("expected job to be requeued on %s", services.QueueName(services.JobBankGeneration))
}

func TestRun_UnknownType(t *testing.T) {
	pool, jobs, _, _, _, _ := newTestPool(&stubGenerator{})
	job := &models.Job{ID: uuid.New(), Type: "mystery", RetryCount: maxAttempts - 1}
	pool.run(context.Background(), job)
	if jobs.last() != "failed" {
		t.Fatalf("expected unknown job type to fail, got %v", jobs.statuses)
	}
}

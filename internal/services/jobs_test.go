package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"udan-bangla-backend/internal/models"
)

type stubJobStore struct {
	created []*models.Job
	err     error
}

func (s *stubJobStore) Create(ctx context.Context, j *models.Job) error {
	if s.err != nil {
		return s.err
	}
	j.ID = uuid.New()
	j.Status = "pending"
	s.created = append(s.created, j)
	return nil
}

type stubPusher struct {
	pushed map[string][]string
}

func (p *stubPusher) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if p.pushed == nil {
		p.pushed = map[string][]string{}
	}
	for _, v := range values {
		p.pushed[key] = append(p.pushed[key], v.(string))
	}
	return redis.NewIntResult(int64(len(p.pushed[key])), nil)
}

func TestResultReporter_EnqueuesRecordingJob(t *testing.T) {
	store := &stubJobStore{}
	pusher := &stubPusher{}
	reporter := NewResultReporter(NewJobQueue(store, pusher))

	outcome := models.QuizOutcome{
		SessionID:  uuid.New(),
		UserID:     uuid.New(),
		TopicID:    "wb-geo",
		TopicTitle: "WB Geography",
		Score:      4,
		Total:      5,
		FinishedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := reporter.ReportResult(context.Background(), outcome); err != nil {
		t.Fatalf("ReportResult: %v", err)
	}

	if len(store.created) != 1 || store.created[0].Type != JobResultRecording || store.created[0].ReferenceID != outcome.SessionID.String() {
		t.Fatalf("unexpected job rows %+v", store.created)
	}

	queued := pusher.pushed["queue:result-recording"]
	if len(queued) != 1 {
		t.Fatalf("expected one queued job, got %v", pusher.pushed)
	}

	var job models.Job
	if err := json.Unmarshal([]byte(queued[0]), &job); err != nil {
		t.Fatalf("queued payload is not a job: %v", err)
	}
	var decoded models.QuizOutcome
	if err := json.Unmarshal(job.ConfigJSON, &decoded); err != nil {
		t.Fatalf("job config is not an outcome: %v", err)
	}
	if decoded.SessionID != outcome.SessionID || decoded.Score != 4 || decoded.Total != 5 || !decoded.FinishedAt.Equal(outcome.FinishedAt) {
		t.Errorf("outcome changed in transit: %+v", decoded)
	}
}

func TestJobQueue_StoreFailureSkipsPush(t *testing.T) {
	pusher := &stubPusher{}
	queue := NewJobQueue(&stubJobStore{err: errors.New("db down")}, pusher)

	if _, err := queue.Enqueue(context.Background(), uuid.New(), JobBankGeneration, "polity", models.BankGenerationConfig{}); err == nil {
		t.Fatal("expected error")
	}
	if len(pusher.pushed) != 0 {
		t.Fatalf("expected nothing queued, got %v", pusher.pushed)
	}
}

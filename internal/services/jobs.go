package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"udan-bangla-backend/internal/models"
)

const (
	JobResultRecording = "result-recording"
	JobBankGeneration  = "bank-generation"
)

// JobTypes lists every queue the worker pool drains.
var JobTypes = []string{JobResultRecording, JobBankGeneration}

func QueueName(jobType string) string {
	return "queue:" + jobType
}

type jobStore interface {
	Create(ctx context.Context, j *models.Job) error
}

// listPusher is the slice of the Redis client the queue needs.
type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// JobQueue records a job row and pushes it onto its Redis list.
type JobQueue struct {
	jobs  jobStore
	redis listPusher
}

func NewJobQueue(jobs jobStore, redisClient listPusher) *JobQueue {
	return &JobQueue{jobs: jobs, redis: redisClient}
}

func (q *JobQueue) Enqueue(ctx context.Context, userID uuid.UUID, jobType, referenceID string, config any) (*models.Job, error) {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s config: %w", jobType, err)
	}

	job := &models.Job{
		UserID:      userID,
		Type:        jobType,
		ReferenceID: referenceID,
		ConfigJSON:  configJSON,
	}
	if err := q.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create %s job: %w", jobType, err)
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.redis.LPush(ctx, QueueName(jobType), string(jobBytes)).Err(); err != nil {
		return nil, fmt.Errorf("failed to queue %s job: %w", jobType, err)
	}
	return job, nil
}

// ResultReporter hands completed sessions to the worker pool for recording.
type ResultReporter struct {
	queue *JobQueue
}

func NewResultReporter(queue *JobQueue) *ResultReporter {
	return &ResultReporter{queue: queue}
}

func (r *ResultReporter) ReportResult(ctx context.Context, outcome models.QuizOutcome) error {
	_, err := r.queue.Enqueue(ctx, outcome.UserID, JobResultRecording, outcome.SessionID.String(), outcome)
	return err
}

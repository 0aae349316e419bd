package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"udan-bangla-backend/internal/catalog"
	"udan-bangla-backend/internal/metrics"
	"udan-bangla-backend/internal/models"
	"udan-bangla-backend/internal/quiz"
	"udan-bangla-backend/internal/services"
)

const maxAttempts = 3

type jobStatusStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

type resultRecorder interface {
	RecordResult(ctx context.Context, res *models.QuizResult, apply func(prev *models.UserProfileStats) models.UserProfileStats) (*models.UserProfileStats, bool, error)
}

type bankWriter interface {
	BulkCreate(ctx context.Context, topicID string, questions []models.Question) (int, error)
}

type publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type Pool struct {
	redis       *redis.Client
	queue       listPusher
	jobRepo     jobStatusStore
	results     resultRecorder
	bank        bankWriter
	generator   quiz.QuestionGenerator
	notifier    publisher
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	jobRepo jobStatusStore,
	results resultRecorder,
	bank bankWriter,
	generator quiz.QuestionGenerator,
	notifier publisher,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		queue:       redisClient,
		jobRepo:     jobRepo,
		results:     results,
		bank:        bank,
		generator:   generator,
		notifier:    notifier,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := make([]string, len(services.JobTypes))
	for i, t := range services.JobTypes {
		queues[i] = services.QueueName(t)
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 5s timeout so Stop is noticed promptly
		result, err := p.redis.BLPop(ctx, 5*time.Second, queues...).Result()
		if err != nil || len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)
		p.run(ctx, &job)

		p.redis.Del(ctx, lockKey)
	}
}

// run executes one job and records its outcome.
func (p *Pool) run(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

	var processErr error
	switch job.Type {
	case services.JobResultRecording:
		processErr = p.processResult(ctx, job)
	case services.JobBankGeneration:
		processErr = p.processBank(ctx, job)
	default:
		processErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if processErr != nil {
		p.handleFailure(ctx, job, processErr)
		return
	}
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")
	metrics.JobsProcessed.WithLabelValues(job.Type, "completed").Inc()
	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) processResult(ctx context.Context, job *models.Job) error {
	var outcome models.QuizOutcome
	if err := json.Unmarshal(job.ConfigJSON, &outcome); err != nil {
		return fmt.Errorf("invalid result payload: %w", err)
	}

	pct := services.Percentage(outcome.Score, outcome.Total)
	res := &models.QuizResult{
		UserID:         outcome.UserID,
		SessionID:      outcome.SessionID,
		TopicID:        outcome.TopicID,
		TopicTitle:     outcome.TopicTitle,
		Exam:           catalog.ExamLabel(outcome.Class),
		Score:          outcome.Score,
		TotalQuestions: outcome.Total,
		Percentage:     float64(pct),
		FinishedAt:     outcome.FinishedAt,
	}

	stats, recorded, err := p.results.RecordResult(ctx, res, func(prev *models.UserProfileStats) models.UserProfileStats {
		return services.ApplyQuizResult(prev, outcome.UserID, outcome.TopicTitle, outcome.Score, outcome.Total)
	})
	if err != nil {
		return err
	}
	if !recorded {
		log.Printf("Result for session %s already recorded, skipping", outcome.SessionID)
		return nil
	}

	p.notifier.Publish(ctx, outcome.UserID, models.WSMessage{
		Type: services.MsgResultRecorded,
		Payload: models.ResultRecordedEvent{
			ResultID:   res.ID,
			SessionID:  outcome.SessionID,
			Score:      outcome.Score,
			Total:      outcome.Total,
			Percentage: res.Percentage,
		},
	})
	p.notifier.Publish(ctx, outcome.UserID, models.WSMessage{Type: services.MsgStatsUpdated, Payload: stats})
	return nil
}

func (p *Pool) processBank(ctx context.Context, job *models.Job) error {
	var cfg models.BankGenerationConfig
	if err := json.Unmarshal(job.ConfigJSON, &cfg); err != nil {
		return fmt.Errorf("invalid generation payload: %w", err)
	}
	if cfg.Count < 1 {
		return fmt.Errorf("invalid generation count %d", cfg.Count)
	}

	if p.generator == nil {
		return services.ErrGeneratorUnavailable
	}

	generated, err := p.generator.GenerateQuestions(ctx, cfg.PromptContext, cfg.Count)
	if err != nil {
		return err
	}
	valid := quiz.FilterValid(generated)
	if len(valid) == 0 {
		return fmt.Errorf("generator returned no well-formed questions for %s", cfg.TopicID)
	}
	if len(valid) > cfg.Count {
		valid = valid[:cfg.Count]
	}

	added, err := p.bank.BulkCreate(ctx, cfg.TopicID, valid)
	if err != nil {
		return err
	}
	log.Printf("Added %d generated questions to %s (%d discarded)", added, cfg.TopicID, len(generated)-len(valid))

	p.notifier.Publish(ctx, job.UserID, models.WSMessage{
		Type:    services.MsgQuestionBankUpdated,
		Payload: models.BankUpdatedEvent{JobID: job.ID, TopicID: cfg.TopicID, Added: added},
	})
	return nil
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < maxAttempts {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
		metrics.JobsProcessed.WithLabelValues(job.Type, "retried").Inc()

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.queue.LPush(context.Background(), services.QueueName(job.Type), string(jobBytes))
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
	metrics.JobsProcessed.WithLabelValues(job.Type, "failed").Inc()

	p.notifier.Publish(ctx, job.UserID, models.WSMessage{
		Type: services.MsgJobFailed,
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    "JOB_FAILED",
			ErrorMessage: errMsg,
		},
	})
}

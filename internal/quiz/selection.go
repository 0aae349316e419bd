package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"udan-bangla-backend/internal/models"
)

// DefaultQuestionCount is the number of questions in a session when no
// other count is configured.
const DefaultQuestionCount = 5

const (
	SourceBank      = "bank"
	SourceGenerated = "generated"
)

// QuestionSource returns every stored question for a topic. An empty result
// is not an error.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, topicID string) ([]models.Question, error)
}

// QuestionGenerator synthesizes count questions for a prompt context.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, promptContext string, count int) ([]models.Question, error)
}

type Selection struct {
	Questions []models.Question
	Source    string
}

// Selector produces the question sequence that seeds a session: a uniform
// random permutation of the stored bank truncated to the target count, or a
// generated set when the bank is empty.
type Selector struct {
	source    QuestionSource
	generator QuestionGenerator
	count     int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewSelector builds a selector. A nil rng seeds one from the clock; a
// count below one falls back to DefaultQuestionCount.
func NewSelector(source QuestionSource, generator QuestionGenerator, count int, rng *rand.Rand) *Selector {
	if count < 1 {
		count = DefaultQuestionCount
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{
		source:    source,
		generator: generator,
		count:     count,
		rng:       rng,
	}
}

func (s *Selector) Count() int { return s.count }

// Select fetches the bank for topicID and samples from it. promptContext is
// only used when the bank has no usable questions.
func (s *Selector) Select(ctx context.Context, topicID, promptContext string) (*Selection, error) {
	bank, err := s.source.FetchQuestions(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions for topic %s: %w", topicID, err)
	}

	pool := FilterValid(bank)
	if len(pool) > 0 {
		return &Selection{Questions: s.sample(pool), Source: SourceBank}, nil
	}

	if s.generator == nil {
		return nil, fmt.Errorf("%w: topic %s has no stored questions", ErrInvalidQuestionSet, topicID)
	}

	generated, err := s.generator.GenerateQuestions(ctx, promptContext, s.count)
	if err != nil {
		return nil, fmt.Errorf("%w: question generation failed: %w", ErrInvalidQuestionSet, err)
	}

	valid := FilterValid(generated)
	if len(valid) < s.count {
		return nil, fmt.Errorf("%w: generator returned %d of %d well-formed questions", ErrInvalidQuestionSet, len(valid), s.count)
	}
	if len(valid) > s.count {
		valid = valid[:s.count]
	}

	return &Selection{Questions: valid, Source: SourceGenerated}, nil
}

// sample shuffles a copy of pool (Fisher-Yates) and keeps the first count.
func (s *Selector) sample(pool []models.Question) []models.Question {
	shuffled := make([]models.Question, len(pool))
	copy(shuffled, pool)

	s.mu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	limit := s.count
	if limit > len(shuffled) {
		limit = len(shuffled)
	}
	return shuffled[:limit]
}

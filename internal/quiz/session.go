package quiz

import (
	"fmt"

	"udan-bangla-backend/internal/models"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

const unanswered = -1

// Session is one learner's attempt at a fixed sequence of questions.
// It is not safe for concurrent use; callers serialize access.
type Session struct {
	questions    []models.Question
	currentIndex int
	selected     *int
	answered     bool
	answers      []int // locked-in option per question, unanswered until submit
	score        int
	status       Status
}

// Start validates questions and returns a session positioned on the first one.
func Start(questions []models.Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidQuestionSet)
	}

	for _, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			return nil, err
		}
	}
	owned := cloneQuestions(questions)

	answers := make([]int, len(owned))
	for i := range answers {
		answers[i] = unanswered
	}

	return &Session{
		questions: owned,
		answers:   answers,
		status:    StatusInProgress,
	}, nil
}

// cloneQuestions deep-copies questions so no caller shares an Options slice
// with a session.
func cloneQuestions(questions []models.Question) []models.Question {
	out := make([]models.Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func (s *Session) Status() Status {
	if s.status == "" {
		return StatusNotStarted
	}
	return s.status
}

func (s *Session) CurrentIndex() int { return s.currentIndex }

func (s *Session) Score() int { return s.score }

func (s *Session) Total() int { return len(s.questions) }

func (s *Session) AnsweredCurrent() bool { return s.answered }

// Selected returns the tentative choice for the current question, if any.
func (s *Session) Selected() (int, bool) {
	if s.selected == nil {
		return 0, false
	}
	return *s.selected, true
}

// CurrentQuestion returns a copy of the question at the current index.
func (s *Session) CurrentQuestion() (models.Question, error) {
	if s.Status() == StatusNotStarted {
		return models.Question{}, ErrInvalidState
	}
	q := s.questions[s.currentIndex]
	q.Options = append([]string(nil), q.Options...)
	return q, nil
}

// SelectOption records a tentative choice. Calling it again before submit
// replaces the previous choice.
func (s *Session) SelectOption(index int) error {
	if s.Status() != StatusInProgress {
		return ErrInvalidState
	}
	if s.answered {
		return ErrAlreadyAnswered
	}
	if index < 0 || index >= len(s.questions[s.currentIndex].Options) {
		return ErrInvalidOptionIndex
	}
	s.selected = &index
	return nil
}

// SubmitAnswer locks in the current selection. It is the only operation that
// changes the score.
func (s *Session) SubmitAnswer() error {
	if s.Status() != StatusInProgress {
		return ErrInvalidState
	}
	if s.answered || s.answers[s.currentIndex] != unanswered {
		return ErrAlreadyAnswered
	}
	if s.selected == nil {
		return ErrNoSelection
	}

	choice := *s.selected
	s.answered = true
	s.answers[s.currentIndex] = choice
	if choice == s.questions[s.currentIndex].CorrectIndex {
		s.score++
	}
	return nil
}

// Advance moves to the next question, or completes the session when the
// current question is the last one.
func (s *Session) Advance() error {
	if s.Status() != StatusInProgress {
		return ErrInvalidState
	}
	if !s.answered {
		return ErrNotYetAnswered
	}

	if s.currentIndex < len(s.questions)-1 {
		s.currentIndex++
		s.selected = nil
		s.answered = false
		return nil
	}

	s.status = StatusCompleted
	return nil
}

// FinalResult returns (score, total). Only valid once the session is completed.
func (s *Session) FinalResult() (int, int, error) {
	if s.Status() != StatusCompleted {
		return 0, 0, ErrInvalidState
	}
	return s.score, len(s.questions), nil
}

// Answers returns the locked-in option per question; -1 marks a question not
// yet answered.
func (s *Session) Answers() []int {
	return append([]int(nil), s.answers...)
}

package quiz

import (
	"fmt"
	"strings"

	"udan-bangla-backend/internal/models"
)

// OptionCount is the number of answer options every question must carry.
const OptionCount = 4

// ValidateQuestion reports whether q can be used in a session.
func ValidateQuestion(q models.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question %q has empty text", ErrInvalidQuestionSet, q.ID)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: question %q has %d options, want %d", ErrInvalidQuestionSet, q.ID, len(q.Options), OptionCount)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: question %q has correct index %d out of range", ErrInvalidQuestionSet, q.ID, q.CorrectIndex)
	}
	return nil
}

// FilterValid returns the questions that pass ValidateQuestion, preserving order.
func FilterValid(questions []models.Question) []models.Question {
	valid := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if ValidateQuestion(q) != nil {
			continue
		}
		valid = append(valid, q)
	}
	return valid
}

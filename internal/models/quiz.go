package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is a single multiple-choice item. Options are referenced by index
// and are never reordered once loaded.
type Question struct {
	ID           string    `json:"id"`
	TopicID      string    `json:"topic_id,omitempty"`
	Text         string    `json:"question_text"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_answer_index"`
	Explanation  string    `json:"explanation"`
	CreatedAt    time.Time `json:"created_at"`
}

type QuizResult struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	SessionID      uuid.UUID `json:"session_id"`
	TopicID        string    `json:"topic_id"`
	TopicTitle     string    `json:"topic_title"`
	Exam           *string   `json:"exam"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	FinishedAt     time.Time `json:"finished_at"`
}

type StartQuizRequest struct {
	TopicID string `json:"topic_id"`
	Class   string `json:"class"`
}

type SelectOptionRequest struct {
	OptionIndex *int `json:"option_index"`
}

type AddQuestionRequest struct {
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_answer_index"`
	Explanation  string   `json:"explanation"`
}

type GenerateBankRequest struct {
	Count int    `json:"count"`
	Class string `json:"class"`
}

// QuestionView is what a learner sees for one question. The correct index and
// explanation are only filled in once the question has been answered.
type QuestionView struct {
	ID           string   `json:"id"`
	Text         string   `json:"question_text"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_answer_index,omitempty"`
	Explanation  *string  `json:"explanation,omitempty"`
}

type QuizSessionView struct {
	SessionID      uuid.UUID    `json:"session_id"`
	TopicID        string       `json:"topic_id"`
	TopicTitle     string       `json:"topic_title"`
	Source         string       `json:"source"`
	Status         string       `json:"status"`
	CurrentIndex   int          `json:"current_index"`
	TotalQuestions int          `json:"total_questions"`
	SelectedOption *int         `json:"selected_option"`
	Answered       bool         `json:"answered"`
	Score          int          `json:"score"`
	Question       QuestionView `json:"question"`
	StartedAt      time.Time    `json:"started_at"`
}

// QuizOutcome is the final result of a completed session, handed to the
// score reporter exactly once.
type QuizOutcome struct {
	SessionID  uuid.UUID `json:"session_id"`
	UserID     uuid.UUID `json:"user_id"`
	TopicID    string    `json:"topic_id"`
	TopicTitle string    `json:"topic_title"`
	Class      string    `json:"class"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	FinishedAt time.Time `json:"finished_at"`
}

type QuizReviewItem struct {
	Question       QuestionView `json:"question"`
	SelectedOption int          `json:"selected_option"`
	Correct        bool         `json:"correct"`
}

type QuizResultView struct {
	SessionID  uuid.UUID        `json:"session_id"`
	TopicID    string           `json:"topic_id"`
	TopicTitle string           `json:"topic_title"`
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percentage int              `json:"percentage"`
	Reported   bool             `json:"reported"`
	Review     []QuizReviewItem `json:"review"`
}

package quiz

import (
	"errors"
	"fmt"
	"testing"

	"udan-bangla-backend/internal/models"
)

func makeQuestions(correct ...int) []models.Question {
	qs := make([]models.Question, len(correct))
	for i, c := range correct {
		qs[i] = models.Question{
			ID:           fmt.Sprintf("Q%d", i),
			Text:         fmt.Sprintf("Question %d", i),
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: c,
			Explanation:  "because",
		}
	}
	return qs
}

func answer(t *testing.T, s *Session, option int) {
	t.Helper()
	if err := s.SelectOption(option); err != nil {
		t.Fatalf("SelectOption(%d): %v", option, err)
	}
	if err := s.SubmitAnswer(); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
}

func TestStart_RejectsInvalidQuestionSets(t *testing.T) {
	tooFew := makeQuestions(0)
	tooFew[0].Options = []string{"A", "B", "C"}

	badIndex := makeQuestions(0)
	badIndex[0].CorrectIndex = 4

	negative := makeQuestions(0)
	negative[0].CorrectIndex = -1

	emptyText := makeQuestions(0)
	emptyText[0].Text = "   "

	tests := []struct {
		name      string
		questions []models.Question
	}{
		{"nil", nil},
		{"empty", []models.Question{}},
		{"three options", tooFew},
		{"correct index too large", badIndex},
		{"negative correct index", negative},
		{"blank text", emptyText},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Start(tc.questions)
			if !errors.Is(err, ErrInvalidQuestionSet) {
				t.Fatalf("expected ErrInvalidQuestionSet, got %v", err)
			}
			if s != nil {
				t.Fatalf("expected nil session on error")
			}
		})
	}
}

func TestStart_InitialState(t *testing.T) {
	s, err := Start(makeQuestions(1, 2))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if s.Status() != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", s.Status())
	}
	if s.CurrentIndex() != 0 || s.Score() != 0 || s.AnsweredCurrent() {
		t.Fatalf("unexpected initial state: index=%d score=%d answered=%v", s.CurrentIndex(), s.Score(), s.AnsweredCurrent())
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("expected no selection")
	}
	if s.Total() != 2 {
		t.Fatalf("expected 2 questions, got %d", s.Total())
	}
}

func TestStart_CopiesQuestions(t *testing.T) {
	qs := makeQuestions(0)
	s, err := Start(qs)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	qs[0].Options[0] = "mutated"
	qs[0].CorrectIndex = 3

	q, _ := s.CurrentQuestion()
	if q.Options[0] != "A" || q.CorrectIndex != 0 {
		t.Fatalf("session questions changed after caller mutation: %+v", q)
	}
}

func TestZeroSession_IsNotStarted(t *testing.T) {
	var s Session

	if s.Status() != StatusNotStarted {
		t.Fatalf("expected not_started, got %s", s.Status())
	}
	if err := s.SelectOption(0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("SelectOption: expected ErrInvalidState, got %v", err)
	}
	if err := s.SubmitAnswer(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("SubmitAnswer: expected ErrInvalidState, got %v", err)
	}
	if err := s.Advance(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Advance: expected ErrInvalidState, got %v", err)
	}
	if _, _, err := s.FinalResult(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("FinalResult: expected ErrInvalidState, got %v", err)
	}
}

func TestSelectOption(t *testing.T) {
	s, _ := Start(makeQuestions(0, 0))

	for _, idx := range []int{-1, 4, 100} {
		if err := s.SelectOption(idx); !errors.Is(err, ErrInvalidOptionIndex) {
			t.Fatalf("SelectOption(%d): expected ErrInvalidOptionIndex, got %v", idx, err)
		}
	}

	if err := s.SelectOption(1); err != nil {
		t.Fatalf("SelectOption(1): %v", err)
	}
	if err := s.SelectOption(3); err != nil {
		t.Fatalf("SelectOption(3): %v", err)
	}
	if got, ok := s.Selected(); !ok || got != 3 {
		t.Fatalf("expected last selection 3 to win, got %d (ok=%v)", got, ok)
	}
	if s.Score() != 0 {
		t.Fatalf("selection must not change score")
	}

	if err := s.SubmitAnswer(); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := s.SelectOption(0); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered after submit, got %v", err)
	}
	if got, _ := s.Selected(); got != 3 {
		t.Fatalf("locked selection changed to %d", got)
	}
}

func TestSubmitAnswer_RequiresSelection(t *testing.T) {
	s, _ := Start(makeQuestions(0))

	if err := s.SubmitAnswer(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if s.AnsweredCurrent() {
		t.Fatalf("failed submit must not lock the question")
	}
}

func TestSubmitAnswer_NoDoubleCount(t *testing.T) {
	s, _ := Start(makeQuestions(2, 0))

	s.SelectOption(2)
	if err := s.SubmitAnswer(); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := s.SubmitAnswer(); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if s.Score() != 1 {
		t.Fatalf("expected score 1, got %d", s.Score())
	}

	// Clearing the lock flag directly must still not allow a second increment.
	s.answered = false
	if err := s.SubmitAnswer(); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered with flag cleared, got %v", err)
	}
	if s.Score() != 1 {
		t.Fatalf("score double counted: %d", s.Score())
	}
}

func TestAdvance_NoSkip(t *testing.T) {
	s, _ := Start(makeQuestions(0, 1))

	if err := s.Advance(); !errors.Is(err, ErrNotYetAnswered) {
		t.Fatalf("expected ErrNotYetAnswered, got %v", err)
	}

	s.SelectOption(0)
	if err := s.Advance(); !errors.Is(err, ErrNotYetAnswered) {
		t.Fatalf("expected ErrNotYetAnswered with selection but no submit, got %v", err)
	}
	if s.CurrentIndex() != 0 || s.Score() != 0 {
		t.Fatalf("failed advance changed state: index=%d score=%d", s.CurrentIndex(), s.Score())
	}
}

func TestAdvance_ResetsPerQuestionState(t *testing.T) {
	s, _ := Start(makeQuestions(0, 1))

	answer(t, s, 0)

	if s.CurrentIndex() != 1 {
		t.Fatalf("expected index 1, got %d", s.CurrentIndex())
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("selection should be cleared on advance")
	}
	if s.AnsweredCurrent() {
		t.Fatalf("answered flag should be cleared on advance")
	}
}

func TestCompletion_IsTerminal(t *testing.T) {
	s, _ := Start(makeQuestions(0, 1))
	answer(t, s, 0)
	answer(t, s, 3)

	if s.Status() != StatusCompleted {
		t.Fatalf("expected completed, got %s", s.Status())
	}
	if s.CurrentIndex() != 1 {
		t.Fatalf("expected index to stay at last question, got %d", s.CurrentIndex())
	}

	if err := s.SelectOption(0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("SelectOption after completion: expected ErrInvalidState, got %v", err)
	}
	if err := s.SubmitAnswer(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("SubmitAnswer after completion: expected ErrInvalidState, got %v", err)
	}
	if err := s.Advance(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Advance after completion: expected ErrInvalidState, got %v", err)
	}

	for i := 0; i < 3; i++ {
		score, total, err := s.FinalResult()
		if err != nil {
			t.Fatalf("FinalResult: %v", err)
		}
		if score != 1 || total != 2 {
			t.Fatalf("expected (1, 2), got (%d, %d)", score, total)
		}
	}
}

func TestFinalResult_BeforeCompletion(t *testing.T) {
	s, _ := Start(makeQuestions(0))
	if _, _, err := s.FinalResult(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestScenario_FourQuestions(t *testing.T) {
	s, err := Start(makeQuestions(0, 1, 2, 3))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	answer(t, s, 0) // correct
	answer(t, s, 2) // wrong
	answer(t, s, 2) // correct
	answer(t, s, 0) // wrong

	score, total, err := s.FinalResult()
	if err != nil {
		t.Fatalf("FinalResult: %v", err)
	}
	if score != 2 || total != 4 {
		t.Fatalf("expected (2, 4), got (%d, %d)", score, total)
	}
}

func TestScenario_SingleQuestion(t *testing.T) {
	s, _ := Start(makeQuestions(1))

	s.SelectOption(1)
	if err := s.SubmitAnswer(); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if s.Status() != StatusCompleted {
		t.Fatalf("expected completed after first advance, got %s", s.Status())
	}
}

// Drives every question through a mix of valid and invalid calls and checks
// the score against an independent count of correct submissions.
func TestScoreBound_RandomizedOperations(t *testing.T) {
	correct := []int{0, 3, 1, 2, 2, 0, 1}
	s, _ := Start(makeQuestions(correct...))

	want := 0
	for step := 0; s.Status() == StatusInProgress; step++ {
		idx := s.CurrentIndex()
		s.Advance() // rejected: not answered
		s.SubmitAnswer()
		pick := (step * 7) % OptionCount
		s.SelectOption(pick)
		s.SelectOption(pick + OptionCount) // rejected
		if err := s.SubmitAnswer(); err != nil {
			t.Fatalf("SubmitAnswer at %d: %v", idx, err)
		}
		if pick == correct[idx] {
			want++
		}
		s.SubmitAnswer()  // rejected
		s.SelectOption(0) // rejected

		if s.Score() < 0 || s.Score() > s.Total() {
			t.Fatalf("score %d out of bounds", s.Score())
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance at %d: %v", idx, err)
		}
	}

	if s.Score() != want {
		t.Fatalf("expected score %d, got %d", want, s.Score())
	}
	for i, a := range s.Answers() {
		if a < 0 {
			t.Fatalf("question %d left unanswered", i)
		}
	}
}

package quiz

import (
	"fmt"

	"udan-bangla-backend/internal/models"
)

// Snapshot is the serializable form of a Session, used to park a session in
// the session store between requests.
type Snapshot struct {
	Questions       []models.Question `json:"questions"`
	CurrentIndex    int               `json:"current_index"`
	SelectedOption  *int              `json:"selected_option"`
	AnsweredCurrent bool              `json:"answered_current"`
	Answers         []int             `json:"answers"`
	Score           int               `json:"score"`
	Status          Status            `json:"status"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Questions:       cloneQuestions(s.questions),
		CurrentIndex:    s.currentIndex,
		AnsweredCurrent: s.answered,
		Answers:         append([]int(nil), s.answers...),
		Score:           s.score,
		Status:          s.Status(),
	}
	if s.selected != nil {
		v := *s.selected
		snap.SelectedOption = &v
	}
	return snap
}

// Restore rebuilds a session from a snapshot, rejecting any snapshot whose
// fields are inconsistent with the session invariants.
func Restore(snap Snapshot) (*Session, error) {
	n := len(snap.Questions)
	if n == 0 {
		return nil, fmt.Errorf("%w: snapshot has no questions", ErrInvalidQuestionSet)
	}
	for _, q := range snap.Questions {
		if err := ValidateQuestion(q); err != nil {
			return nil, err
		}
	}
	if snap.Status != StatusInProgress && snap.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: snapshot status %q", ErrInvalidState, snap.Status)
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= n || len(snap.Answers) != n {
		return nil, fmt.Errorf("%w: snapshot position out of range", ErrInvalidState)
	}

	correct := 0
	for i, a := range snap.Answers {
		switch {
		case a == unanswered:
			if i < snap.CurrentIndex || (i == snap.CurrentIndex && snap.AnsweredCurrent) {
				return nil, fmt.Errorf("%w: question %d skipped", ErrInvalidState, i)
			}
		case a < 0 || a >= len(snap.Questions[i].Options):
			return nil, fmt.Errorf("%w: answer %d out of range", ErrInvalidState, i)
		case i > snap.CurrentIndex || (i == snap.CurrentIndex && !snap.AnsweredCurrent):
			return nil, fmt.Errorf("%w: question %d answered ahead of position", ErrInvalidState, i)
		case a == snap.Questions[i].CorrectIndex:
			correct++
		}
	}
	if correct != snap.Score {
		return nil, fmt.Errorf("%w: score %d does not match answers", ErrInvalidState, snap.Score)
	}
	if snap.Status == StatusCompleted && (snap.CurrentIndex != n-1 || !snap.AnsweredCurrent) {
		return nil, fmt.Errorf("%w: completed snapshot not on last answered question", ErrInvalidState)
	}

	s := &Session{
		questions:    cloneQuestions(snap.Questions),
		currentIndex: snap.CurrentIndex,
		answered:     snap.AnsweredCurrent,
		answers:      append([]int(nil), snap.Answers...),
		score:        snap.Score,
		status:       snap.Status,
	}
	if snap.SelectedOption != nil {
		v := *snap.SelectedOption
		if v < 0 || v >= len(s.questions[s.currentIndex].Options) {
			return nil, fmt.Errorf("%w: selected option out of range", ErrInvalidState)
		}
		s.selected = &v
	}
	return s, nil
}

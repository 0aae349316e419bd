package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"udan-bangla-backend/internal/catalog"
	"udan-bangla-backend/internal/metrics"
	"udan-bangla-backend/internal/models"
	"udan-bangla-backend/internal/quiz"
)

// ScoreReporter receives the outcome of each completed session.
type ScoreReporter interface {
	ReportResult(ctx context.Context, outcome models.QuizOutcome) error
}

type QuizService struct {
	selector *quiz.Selector
	store    *SessionStore
	reporter ScoreReporter
	now      func() time.Time
}

func NewQuizService(selector *quiz.Selector, store *SessionStore, reporter ScoreReporter) *QuizService {
	return &QuizService{
		selector: selector,
		store:    store,
		reporter: reporter,
		now:      time.Now,
	}
}

// Start picks questions for the topic and opens a new session owned by userID.
func (s *QuizService) Start(ctx context.Context, userID uuid.UUID, req models.StartQuizRequest) (*models.QuizSessionView, error) {
	class := strings.TrimSpace(req.Class)
	if !catalog.ValidClass(class) {
		return nil, &ValidationError{Fields: map[string]string{"class": "Class must be 8-12 or WBJEE"}}
	}
	topic, ok := catalog.Lookup(strings.TrimSpace(req.TopicID))
	if !ok {
		return nil, &NotFoundError{Message: "Topic not found"}
	}

	selection, err := s.selector.Select(ctx, topic.ID, catalog.PromptContext(topic, class))
	if err != nil {
		return nil, err
	}

	sess, err := quiz.Start(selection.Questions)
	if err != nil {
		return nil, err
	}

	st := &StoredSession{
		ID:         uuid.New(),
		UserID:     userID,
		TopicID:    topic.ID,
		TopicTitle: topic.Title,
		Class:      class,
		Source:     selection.Source,
		StartedAt:  s.now().UTC(),
		Snapshot:   sess.Snapshot(),
	}
	if err := s.store.Save(ctx, st); err != nil {
		return nil, err
	}

	metrics.SessionsStarted.WithLabelValues(selection.Source).Inc()
	log.Printf("Quiz session %s started for user %s on %s (%d questions, %s)",
		st.ID, userID, topic.ID, sess.Total(), selection.Source)

	view := buildSessionView(st, sess)
	return &view, nil
}

func (s *QuizService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizSessionView, error) {
	st, sess, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	view := buildSessionView(st, sess)
	return &view, nil
}

func (s *QuizService) SelectOption(ctx context.Context, userID, sessionID uuid.UUID, index int) (*models.QuizSessionView, error) {
	return s.mutateView(ctx, userID, sessionID, func(st *StoredSession, sess *quiz.Session) error {
		return sess.SelectOption(index)
	})
}

func (s *QuizService) Submit(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizSessionView, error) {
	return s.mutateView(ctx, userID, sessionID, func(st *StoredSession, sess *quiz.Session) error {
		before := sess.Score()
		if err := sess.SubmitAnswer(); err != nil {
			return err
		}
		metrics.AnswersSubmitted.WithLabelValues(metrics.AnswerResult(sess.Score() > before)).Inc()
		return nil
	})
}

// Advance moves to the next question. Advancing past the last question
// completes the session and reports its result once the completed state
// is saved.
func (s *QuizService) Advance(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizSessionView, error) {
	st, sess, err := s.mutate(ctx, userID, sessionID, func(st *StoredSession, sess *quiz.Session) error {
		if err := sess.Advance(); err != nil {
			return err
		}
		if sess.Status() == quiz.StatusCompleted {
			finished := s.now().UTC()
			st.FinishedAt = &finished
			metrics.SessionsCompleted.Inc()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sess.Status() == quiz.StatusCompleted {
		s.report(ctx, st, sess)
	}

	view := buildSessionView(st, sess)
	return &view, nil
}

// Result returns the final score of a completed session with a per-question
// review. A report that failed at completion is retried here.
func (s *QuizService) Result(ctx context.Context, userID, sessionID uuid.UUID) (*models.QuizResultView, error) {
	st, sess, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	score, total, err := sess.FinalResult()
	if err != nil {
		return nil, err
	}
	s.report(ctx, st, sess)
	return buildResultView(st, sess, score, total), nil
}

// report hands the outcome to the reporter outside the session lock, then
// marks the stored session as reported. A failure leaves Reported unset so
// a later call can retry. Two racing callers may both report; recording
// is keyed by session ID so the second is dropped downstream.
func (s *QuizService) report(ctx context.Context, st *StoredSession, sess *quiz.Session) {
	if s.reporter == nil || st.Reported {
		return
	}
	score, total, err := sess.FinalResult()
	if err != nil {
		log.Printf("Cannot report session %s: %v", st.ID, err)
		return
	}

	finished := s.now().UTC()
	if st.FinishedAt != nil {
		finished = *st.FinishedAt
	}
	outcome := models.QuizOutcome{
		SessionID:  st.ID,
		UserID:     st.UserID,
		TopicID:    st.TopicID,
		TopicTitle: st.TopicTitle,
		Class:      st.Class,
		Score:      score,
		Total:      total,
		FinishedAt: finished,
	}
	if err := s.reporter.ReportResult(ctx, outcome); err != nil {
		log.Printf("Failed to report result for session %s: %v", st.ID, err)
		return
	}

	_, _, err = s.mutate(ctx, st.UserID, st.ID, func(stored *StoredSession, _ *quiz.Session) error {
		stored.Reported = true
		return nil
	})
	if err != nil {
		log.Printf("Reported session %s but could not mark it: %v", st.ID, err)
		return
	}
	st.Reported = true
}

func (s *QuizService) load(ctx context.Context, userID, sessionID uuid.UUID) (*StoredSession, *quiz.Session, error) {
	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if st.UserID != userID {
		return nil, nil, &ForbiddenError{Message: "This quiz session belongs to another user"}
	}
	sess, err := quiz.Restore(st.Snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("stored session %s is corrupt: %w", sessionID, err)
	}
	return st, sess, nil
}

// mutate runs fn against the session under its lock and persists the result.
// Nothing is saved when fn fails. fn must not block on other services.
func (s *QuizService) mutate(ctx context.Context, userID, sessionID uuid.UUID, fn func(*StoredSession, *quiz.Session) error) (*StoredSession, *quiz.Session, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	st, sess, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if err := fn(st, sess); err != nil {
		return nil, nil, err
	}

	st.Snapshot = sess.Snapshot()
	if err := s.store.Save(ctx, st); err != nil {
		return nil, nil, err
	}
	return st, sess, nil
}

func (s *QuizService) mutateView(ctx context.Context, userID, sessionID uuid.UUID, fn func(*StoredSession, *quiz.Session) error) (*models.QuizSessionView, error) {
	st, sess, err := s.mutate(ctx, userID, sessionID, fn)
	if err != nil {
		return nil, err
	}
	view := buildSessionView(st, sess)
	return &view, nil
}

func buildSessionView(st *StoredSession, sess *quiz.Session) models.QuizSessionView {
	view := models.QuizSessionView{
		SessionID:      st.ID,
		TopicID:        st.TopicID,
		TopicTitle:     st.TopicTitle,
		Source:         st.Source,
		Status:         string(sess.Status()),
		CurrentIndex:   sess.CurrentIndex(),
		TotalQuestions: sess.Total(),
		Answered:       sess.AnsweredCurrent(),
		Score:          sess.Score(),
		StartedAt:      st.StartedAt,
	}
	if sel, ok := sess.Selected(); ok {
		view.SelectedOption = &sel
	}
	if q, err := sess.CurrentQuestion(); err == nil {
		view.Question = questionView(q, sess.AnsweredCurrent())
	}
	return view
}

// questionView hides the answer key until reveal is set.
func questionView(q models.Question, reveal bool) models.QuestionView {
	v := models.QuestionView{
		ID:      q.ID,
		Text:    q.Text,
		Options: append([]string(nil), q.Options...),
	}
	if reveal {
		idx := q.CorrectIndex
		explanation := q.Explanation
		v.CorrectIndex = &idx
		v.Explanation = &explanation
	}
	return v
}

func buildResultView(st *StoredSession, sess *quiz.Session, score, total int) *models.QuizResultView {
	snap := sess.Snapshot()
	review := make([]models.QuizReviewItem, len(snap.Questions))
	for i, q := range snap.Questions {
		review[i] = models.QuizReviewItem{
			Question:       questionView(q, true),
			SelectedOption: snap.Answers[i],
			Correct:        snap.Answers[i] == q.CorrectIndex,
		}
	}
	return &models.QuizResultView{
		SessionID:  st.ID,
		TopicID:    st.TopicID,
		TopicTitle: st.TopicTitle,
		Score:      score,
		Total:      total,
		Percentage: Percentage(score, total),
		Reported:   st.Reported,
		Review:     review,
	}
}

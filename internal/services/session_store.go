package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"udan-bangla-backend/internal/quiz"
)

const (
	sessionLockTTL      = 5 * time.Second
	sessionLockAttempts = 20
	sessionLockBackoff  = 50 * time.Millisecond
)

// StoredSession is a quiz session parked between requests along with the
// context it was started in.
type StoredSession struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	TopicID    string        `json:"topic_id"`
	TopicTitle string        `json:"topic_title"`
	Class      string        `json:"class"`
	Source     string        `json:"source"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Reported   bool          `json:"reported"`
	Snapshot   quiz.Snapshot `json:"snapshot"`
}

// SessionStore keeps quiz sessions in the key-value store under
// quiz_session:<id>. Each save refreshes the TTL, so an abandoned session
// simply expires.
type SessionStore struct {
	kv  KeyValueStore
	ttl time.Duration
}

func NewSessionStore(kv KeyValueStore, ttl time.Duration) *SessionStore {
	return &SessionStore{kv: kv, ttl: ttl}
}

func sessionKey(id uuid.UUID) string     { return "quiz_session:" + id.String() }
func sessionLockKey(id uuid.UUID) string { return "quiz_session_lock:" + id.String() }

func (s *SessionStore) Save(ctx context.Context, st *StoredSession) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey(st.ID), string(data), s.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id uuid.UUID) (*StoredSession, error) {
	raw, err := s.kv.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, &NotFoundError{Message: "Quiz session not found or expired"}
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var st StoredSession
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &st, nil
}

// Lock serializes operations on one session across requests and server
// instances. The returned func releases the lock only if it is still ours.
func (s *SessionStore) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	token := uuid.NewString()
	key := sessionLockKey(id)

	for attempt := 0; attempt < sessionLockAttempts; attempt++ {
		acquired, err := s.kv.SetNX(ctx, key, token, sessionLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if acquired {
			return func() {
				if err := s.kv.DelIfEqual(context.Background(), key, token); err != nil {
					log.Printf("Failed to release lock for session %s: %v", id, err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sessionLockBackoff):
		}
	}

	return nil, &ConflictError{Message: "Quiz session is busy, try again"}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"udan-bangla-backend/internal/models"
)

// WebSocket message types pushed to learners.
const (
	MsgResultRecorded      = "result_recorded"
	MsgStatsUpdated        = "stats_updated"
	MsgQuestionBankUpdated = "question_bank_updated"
	MsgJobFailed           = "error"
)

// UpdateChannel is the pub/sub channel the WebSocket hub listens on for a user.
func UpdateChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID.String())
}

// Notifier publishes live updates for a user over Redis pub/sub.
type Notifier struct {
	redis *redis.Client
}

func NewNotifier(redisClient *redis.Client) *Notifier {
	return &Notifier{redis: redisClient}
}

func (n *Notifier) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to encode %s update for user %s: %v", msg.Type, userID, err)
		return
	}
	if err := n.redis.Publish(ctx, UpdateChannel(userID), string(data)).Err(); err != nil {
		log.Printf("Failed to publish %s update for user %s: %v", msg.Type, userID, err)
	}
}

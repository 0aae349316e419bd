package models

import (
	"time"

	"github.com/google/uuid"
)

type SubjectPerformance struct {
	Subject        string `json:"subject"`
	Accuracy       int    `json:"accuracy"` // 0-100
	TotalQuestions int    `json:"total_questions"`
	Color          string `json:"color"`
}

type UserProfileStats struct {
	UserID           uuid.UUID            `json:"user_id"`
	TargetExam       string               `json:"target_exam"`
	TestsAttempted   int                  `json:"tests_attempted"`
	AverageScore     int                  `json:"average_score"`
	GlobalRank       int                  `json:"global_rank"`
	SubscriptionPlan string               `json:"subscription_plan"`
	SubjectWise      []SubjectPerformance `json:"subject_wise"`
	WeakChapters     []string             `json:"weak_chapters"`
	RecentScores     []int                `json:"recent_scores"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type AdminOverview struct {
	TotalUsers     int `json:"total_users"`
	ActiveSessions int `json:"active_sessions"`
	TotalQuestions int `json:"total_questions"`
}

type ImportSummary struct {
	TopicID string `json:"topic_id"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
}

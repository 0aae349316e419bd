package services

import (
	"math"

	"github.com/google/uuid"

	"udan-bangla-backend/internal/models"
)

const (
	defaultTargetExam   = "WBJEE"
	defaultPlan         = "Free"
	recentScoresKept    = 5
	subjectColor        = "bg-blue-500"
	weakChapterAccuracy = 50
)

// Percentage is score/total as a whole percent, rounded half up.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return roundHalfUp(float64(score) / float64(total) * 100)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// ApplyQuizResult folds one finished quiz into a user's profile stats. prev
// may be nil for a user's first quiz. The returned value shares no slices
// with prev.
func ApplyQuizResult(prev *models.UserProfileStats, userID uuid.UUID, topicTitle string, score, total int) models.UserProfileStats {
	pct := Percentage(score, total)

	next := models.UserProfileStats{
		UserID:           userID,
		TargetExam:       defaultTargetExam,
		SubscriptionPlan: defaultPlan,
	}
	var prevAvg int
	if prev != nil {
		next.TestsAttempted = prev.TestsAttempted
		next.GlobalRank = prev.GlobalRank
		prevAvg = prev.AverageScore
		if prev.TargetExam != "" {
			next.TargetExam = prev.TargetExam
		}
		if prev.SubscriptionPlan != "" {
			next.SubscriptionPlan = prev.SubscriptionPlan
		}
		next.SubjectWise = append([]models.SubjectPerformance(nil), prev.SubjectWise...)
		next.RecentScores = append([]int(nil), prev.RecentScores...)
	}

	next.TestsAttempted++
	n := next.TestsAttempted
	next.AverageScore = roundHalfUp(float64(prevAvg*(n-1)+pct) / float64(n))

	next.RecentScores = append(next.RecentScores, pct)
	if len(next.RecentScores) > recentScoresKept {
		next.RecentScores = next.RecentScores[len(next.RecentScores)-recentScoresKept:]
	}

	found := false
	for i, sub := range next.SubjectWise {
		if sub.Subject != topicTitle {
			continue
		}
		combined := sub.TotalQuestions + total
		if combined > 0 {
			sub.Accuracy = roundHalfUp(float64(sub.Accuracy*sub.TotalQuestions+pct*total) / float64(combined))
		}
		sub.TotalQuestions = combined
		next.SubjectWise[i] = sub
		found = true
		break
	}
	if !found {
		next.SubjectWise = append(next.SubjectWise, models.SubjectPerformance{
			Subject:        topicTitle,
			Accuracy:       pct,
			TotalQuestions: total,
			Color:          subjectColor,
		})
	}

	next.WeakChapters = weakChapters(next.SubjectWise)
	return next
}

// weakChapters lists subjects whose accuracy is below half, in the order
// they were first attempted.
func weakChapters(subjects []models.SubjectPerformance) []string {
	weak := []string{}
	for _, sub := range subjects {
		if sub.Accuracy < weakChapterAccuracy {
			weak = append(weak, sub.Subject)
		}
	}
	return weak
}

// Package trust computes a user's trust score from their task history.
// It is a pure function of the inputs: no I/O, no clock, no external calls.
package trust

import "math"

// MaxScore bounds every computed trust score.
const MaxScore = 100

// Score turns a helper's history into a bounded trust score:
// min(100, completedTasks*5 + averageRating*10), where averageRating is the
// arithmetic mean of ratings (0 when there are none). A user with no history
// scores 0, which deliberately supersedes the registration-time default.
func Score(completedTasks int, ratings []int) int {
	if completedTasks < 0 {
		completedTasks = 0
	}
	raw := float64(completedTasks)*5 + average(ratings)*10
	score := int(math.Round(raw))
	if score > MaxScore {
		return MaxScore
	}
	if score < 0 {
		return 0
	}
	return score
}

func average(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

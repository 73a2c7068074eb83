package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		ratings   []int
		expected  int
	}{
		{
			name:      "no history scores zero",
			completed: 0,
			ratings:   nil,
			expected:  0,
		},
		{
			name:      "completed tasks only",
			completed: 4,
			ratings:   nil,
			expected:  20,
		},
		{
			name:      "ratings only",
			completed: 0,
			ratings:   []int{5, 5, 5},
			expected:  50,
		},
		{
			name:      "mixed history",
			completed: 3,
			ratings:   []int{4, 5},
			expected:  60, // 15 + 4.5*10
		},
		{
			name:      "fractional average rounds",
			completed: 1,
			ratings:   []int{4, 4, 5},
			expected:  48, // 5 + 4.333*10 = 48.33
		},
		{
			name:      "capped at 100",
			completed: 50,
			ratings:   []int{5, 5, 5, 5},
			expected:  100,
		},
		{
			name:      "negative completed count treated as zero",
			completed: -3,
			ratings:   []int{5},
			expected:  50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.completed, tt.ratings))
		})
	}
}

func TestScoreAlwaysBounded(t *testing.T) {
	for completed := 0; completed <= 40; completed += 4 {
		for rating := 1; rating <= 5; rating++ {
			ratings := make([]int, 7)
			for i := range ratings {
				ratings[i] = rating
			}
			got := Score(completed, ratings)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, MaxScore)
		}
	}
}

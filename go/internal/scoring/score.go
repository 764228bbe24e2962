// Package scoring maps a server-measured completion time to a minigame score.
package scoring

import "math"

// GraceSeconds is the window in which a completion earns the full base score.
const GraceSeconds = 60

// Score computes the time-decayed score for a completion.
//
// elapsed is clamped to [0, timerSeconds]. Completions inside the grace window
// earn baseScore, completions at or beyond the budget earn 0, and the band in
// between decays linearly. Budgets of GraceSeconds or less have no partial band.
func Score(elapsed, timerSeconds, baseScore int) int {
	if baseScore <= 0 || timerSeconds <= 0 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > timerSeconds {
		elapsed = timerSeconds
	}

	if timerSeconds <= GraceSeconds {
		if elapsed >= timerSeconds {
			return 0
		}
		return baseScore
	}

	switch {
	case elapsed < GraceSeconds:
		return baseScore
	case elapsed >= timerSeconds:
		return 0
	}

	penalty := float64(elapsed-GraceSeconds) / float64(timerSeconds-GraceSeconds)
	score := int(math.Round(float64(baseScore) * (1 - penalty)))
	if score < 0 {
		return 0
	}
	return score
}

package domain

import "fmt"

// Tier buckets a final score.
type Tier string

const (
	TierPerfect        Tier = "Perfect"
	TierGreat          Tier = "Great"
	TierNiceTry        Tier = "Nice try"
	TierKeepPracticing Tier = "Keep practicing"
)

// Outcome is the presentation of a finished quiz.
type Outcome struct {
	Tier       Tier   `json:"tier"`
	Message    string `json:"message"`
	SubMessage string `json:"subMessage"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Wrong      int    `json:"wrong"`
	Narration  string `json:"narration"`
}

// TierFor maps a final score out of total to its tier.
func TierFor(score, total int) Tier {
	switch {
	case score >= total:
		return TierPerfect
	case score >= 7:
		return TierGreat
	case score <= 3:
		return TierKeepPracticing
	default:
		return TierNiceTry
	}
}

// OutcomeFor builds the result card for a final score.
func OutcomeFor(score, total int) Outcome {
	tier := TierFor(score, total)
	var message, sub string
	switch tier {
	case TierPerfect:
		message, sub = "Perfect!", "You are a world champion"
	case TierGreat:
		message, sub = "Great job!", "Almost perfect!"
	case TierKeepPracticing:
		message, sub = "Keep practicing!", "You'll get there!"
	default:
		message, sub = "Nice try!", "You're on your way"
	}
	return Outcome{
		Tier:       tier,
		Message:    message,
		SubMessage: sub,
		Score:      score,
		Total:      total,
		Wrong:      total - score,
		Narration:  fmt.Sprintf("You scored %d out of %d. %s %s", score, total, message, sub),
	}
}

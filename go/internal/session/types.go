package session

import (
	"github.com/mcdev12/questline/go/internal/models"
)

// View is the client-facing state of a session. RemainingSeconds is derived
// from the server clock at the time the view was built.
type View struct {
	MinigameID       models.MinigameID `json:"minigameId"`
	RemainingSeconds int               `json:"remainingSeconds"`
	TriesLeft        int               `json:"triesLeft"`
	Completed        bool              `json:"completed"`
	Score            int               `json:"score"`
	RewardClaimed    bool              `json:"rewardClaimed"`
}

// CompleteResult is returned by Complete.
type CompleteResult struct {
	Score int `json:"score"`
	// AlreadyCompleted is true when the score was frozen by an earlier call
	AlreadyCompleted bool `json:"alreadyCompleted"`
}

// ClaimResult is returned by ClaimReward. Effects is nil unless this call
// performed the issuance.
type ClaimResult struct {
	Score         int             `json:"score"`
	RewardClaimed bool            `json:"rewardClaimed"`
	Effects       *models.Effects `json:"rewardEffects,omitempty"`
}

package rewards

import (
	"time"

	"github.com/mcdev12/questline/go/internal/models"
)

// Award is one reward application against a profile. Item is optional and
// granted only if the player does not own it yet.
type Award struct {
	UserID      string
	MinigameID  models.MinigameID
	Points      int
	Item        string
	Description string
	AwardedAt   time.Time
}

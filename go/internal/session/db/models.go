package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type MinigameSession struct {
	ID              uuid.UUID             `json:"id"`
	UserID          string                `json:"user_id"`
	MinigameID      string                `json:"minigame_id"`
	TimerSeconds    int32                 `json:"timer_seconds"`
	StartedAt       time.Time             `json:"started_at"`
	TriesLeft       int32                 `json:"tries_left"`
	Completed       bool                  `json:"completed"`
	CompletedAt     sql.NullTime          `json:"completed_at"`
	Score           int32                 `json:"score"`
	RewardClaimed   bool                  `json:"reward_claimed"`
	RewardClaimedAt sql.NullTime          `json:"reward_claimed_at"`
	RewardEffects   pqtype.NullRawMessage `json:"reward_effects"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

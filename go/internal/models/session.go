package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the per-user, per-minigame record of a timed attempt.
// Remaining time is never stored; it is derived from StartedAt on every read.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	UserID          string     `json:"user_id"`
	MinigameID      MinigameID `json:"minigame_id"`
	TimerSeconds    int        `json:"timer_seconds"`
	StartedAt       time.Time  `json:"started_at"`
	TriesLeft       int        `json:"tries_left"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Score           int        `json:"score"`
	RewardClaimed   bool       `json:"reward_claimed"`
	RewardClaimedAt *time.Time `json:"reward_claimed_at,omitempty"`
	RewardEffects   *Effects   `json:"reward_effects,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ElapsedSeconds returns whole seconds elapsed since StartedAt, never negative.
func (s *Session) ElapsedSeconds(now time.Time) int {
	elapsed := int(now.Sub(s.StartedAt) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// RemainingSeconds returns max(0, TimerSeconds - elapsed).
func (s *Session) RemainingSeconds(now time.Time) int {
	remaining := s.TimerSeconds - s.ElapsedSeconds(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

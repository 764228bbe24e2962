package events

import (
	"time"
)

// Event types recorded to the outbox and relayed to the message bus
const (
	TypeSessionStarted   = "SessionStarted"
	TypeSessionCompleted = "SessionCompleted"
	TypeRewardClaimed    = "RewardClaimed"
)

// SessionStartedPayload is the payload for a SessionStarted event. Restarted is
// true when an expired attempt was given a fresh clock.
type SessionStartedPayload struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	MinigameID   string    `json:"minigame_id"`
	StartedAt    time.Time `json:"started_at"`
	TimerSeconds int       `json:"timer_seconds"`
	TriesLeft    int       `json:"tries_left"`
	Restarted    bool      `json:"restarted"`
}

// SessionCompletedPayload is the payload for a SessionCompleted event
type SessionCompletedPayload struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	MinigameID     string    `json:"minigame_id"`
	Score          int       `json:"score"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	CompletedAt    time.Time `json:"completed_at"`
}

// RewardClaimedPayload is the payload for a RewardClaimed event
type RewardClaimedPayload struct {
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	MinigameID string    `json:"minigame_id"`
	Score      int       `json:"score"`
	Points     int       `json:"points"`
	Item       string    `json:"item,omitempty"`
	ClaimedAt  time.Time `json:"claimed_at"`
}

package db

import (
	"time"
)

type PlayerPoint struct {
	UserID    string    `json:"user_id"`
	Points    int32     `json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PlayerInventoryItem struct {
	UserID      string    `json:"user_id"`
	Item        string    `json:"item"`
	Description string    `json:"description"`
	MinigameID  string    `json:"minigame_id"`
	GrantedAt   time.Time `json:"granted_at"`
}

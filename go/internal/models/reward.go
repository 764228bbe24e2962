package models

// Effects describes what a reward issuance applied to a player profile.
type Effects struct {
	Points int    `json:"points"`
	Item   string `json:"item,omitempty"` // empty when no item was granted
}

// Profile is the reward-facing view of a player: points and owned items.
type Profile struct {
	UserID    string          `json:"user_id"`
	Points    int             `json:"points"`
	Inventory map[string]Item `json:"inventory"`
}

// Item is an owned inventory entry.
type Item struct {
	Description string `json:"description"`
}

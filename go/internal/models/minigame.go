package models

// MinigameID identifies one of the event's minigames.
type MinigameID string

const (
	MinigameM1 MinigameID = "M1"
	MinigameM2 MinigameID = "M2"
	MinigameM3 MinigameID = "M3"
	MinigameM4 MinigameID = "M4"
	MinigameM5 MinigameID = "M5"
	MinigameM6 MinigameID = "M6"
	MinigameM7 MinigameID = "M7"
)

func (id MinigameID) String() string {
	return string(id)
}

// Package minigamev1 holds the wire messages of the minigame.v1 API.
//
// Messages are plain structs carried by the JSON codec in codec.go; field
// names follow the JSON shape browser clients already consume.
package minigamev1

// SessionState is the client-facing view of one session.
type SessionState struct {
	MinigameID       string `json:"minigameId"`
	RemainingSeconds int32  `json:"remainingSeconds"`
	TriesLeft        int32  `json:"triesLeft"`
	Completed        bool   `json:"completed"`
	Score            int32  `json:"score"`
	RewardClaimed    bool   `json:"rewardClaimed"`
}

type StartSessionRequest struct {
	MinigameID string `json:"minigameId"`
}

type StartSessionResponse struct {
	SessionState
}

type GetSessionStateRequest struct {
	MinigameID string `json:"minigameId"`
}

type GetSessionStateResponse struct {
	SessionState
}

type DecrementTryRequest struct {
	MinigameID string `json:"minigameId"`
}

type DecrementTryResponse struct {
	TriesLeft int32 `json:"triesLeft"`
}

type CompleteSessionRequest struct {
	MinigameID string `json:"minigameId"`
}

type CompleteSessionResponse struct {
	Score int32 `json:"score"`
	// AlreadyCompleted reports that the score was frozen by an earlier call.
	AlreadyCompleted bool `json:"alreadyCompleted"`
}

type ClaimRewardRequest struct {
	MinigameID string `json:"minigameId"`
}

// RewardEffects are the profile changes applied by a claim.
type RewardEffects struct {
	Points int32  `json:"points"`
	Item   string `json:"item,omitempty"`
}

type ClaimRewardResponse struct {
	Score         int32 `json:"score"`
	RewardClaimed bool  `json:"rewardClaimed"`
	// RewardEffects is only set on the call that issued the reward.
	RewardEffects *RewardEffects `json:"rewardEffects,omitempty"`
}

type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []*SessionState `json:"sessions"`
}

type ListMinigamesRequest struct{}

// Minigame describes one catalog entry.
type Minigame struct {
	MinigameID   string `json:"minigameId"`
	TimerSeconds int32  `json:"timerSeconds"`
	TriesBudget  int32  `json:"triesBudget"`
	BaseScore    int32  `json:"baseScore"`
}

type ListMinigamesResponse struct {
	Minigames []*Minigame `json:"minigames"`
}

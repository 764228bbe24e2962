package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const sessionColumns = `id, user_id, minigame_id, timer_seconds, started_at, tries_left, completed, completed_at, score, reward_claimed, reward_claimed_at, reward_effects, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMinigameSession(row rowScanner) (MinigameSession, error) {
	var i MinigameSession
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.MinigameID,
		&i.TimerSeconds,
		&i.StartedAt,
		&i.TriesLeft,
		&i.Completed,
		&i.CompletedAt,
		&i.Score,
		&i.RewardClaimed,
		&i.RewardClaimedAt,
		&i.RewardEffects,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getSession = `-- name: GetSession :one
SELECT ` + sessionColumns + `
FROM minigame_sessions
WHERE user_id = $1 AND minigame_id = $2
`

type GetSessionParams struct {
	UserID     string `json:"user_id"`
	MinigameID string `json:"minigame_id"`
}

func (q *Queries) GetSession(ctx context.Context, arg GetSessionParams) (MinigameSession, error) {
	row := q.db.QueryRowContext(ctx, getSession, arg.UserID, arg.MinigameID)
	return scanMinigameSession(row)
}

const listSessionsByUser = `-- name: ListSessionsByUser :many
SELECT ` + sessionColumns + `
FROM minigame_sessions
WHERE user_id = $1
ORDER BY minigame_id
`

func (q *Queries) ListSessionsByUser(ctx context.Context, userID string) ([]MinigameSession, error) {
	rows, err := q.db.QueryContext(ctx, listSessionsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MinigameSession
	for rows.Next() {
		i, err := scanMinigameSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertSession = `-- name: InsertSession :one
INSERT INTO minigame_sessions (
  id, user_id, minigame_id, timer_seconds, started_at, tries_left, created_at, updated_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $5, $5
)
ON CONFLICT (user_id, minigame_id) DO NOTHING
RETURNING ` + sessionColumns + `
`

type InsertSessionParams struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	MinigameID   string    `json:"minigame_id"`
	TimerSeconds int32     `json:"timer_seconds"`
	StartedAt    time.Time `json:"started_at"`
	TriesLeft    int32     `json:"tries_left"`
}

// InsertSession returns sql.ErrNoRows when the (user_id, minigame_id) pair already exists.
func (q *Queries) InsertSession(ctx context.Context, arg InsertSessionParams) (MinigameSession, error) {
	row := q.db.QueryRowContext(ctx, insertSession,
		arg.ID,
		arg.UserID,
		arg.MinigameID,
		arg.TimerSeconds,
		arg.StartedAt,
		arg.TriesLeft,
	)
	return scanMinigameSession(row)
}

const restartSession = `-- name: RestartSession :one
UPDATE minigame_sessions
SET started_at = $4, updated_at = $4
WHERE user_id = $1 AND minigame_id = $2
  AND started_at = $3
  AND NOT completed
RETURNING ` + sessionColumns + `
`

type RestartSessionParams struct {
	UserID        string    `json:"user_id"`
	MinigameID    string    `json:"minigame_id"`
	PrevStartedAt time.Time `json:"prev_started_at"`
	StartedAt     time.Time `json:"started_at"`
}

func (q *Queries) RestartSession(ctx context.Context, arg RestartSessionParams) (MinigameSession, error) {
	row := q.db.QueryRowContext(ctx, restartSession, arg.UserID, arg.MinigameID, arg.PrevStartedAt, arg.StartedAt)
	return scanMinigameSession(row)
}

const decrementTry = `-- name: DecrementTry :one
UPDATE minigame_sessions
SET tries_left = tries_left - 1, updated_at = now()
WHERE user_id = $1 AND minigame_id = $2
  AND tries_left > 0
  AND NOT completed
RETURNING ` + sessionColumns + `
`

type DecrementTryParams struct {
	UserID     string `json:"user_id"`
	MinigameID string `json:"minigame_id"`
}

func (q *Queries) DecrementTry(ctx context.Context, arg DecrementTryParams) (MinigameSession, error) {
	row := q.db.QueryRowContext(ctx, decrementTry, arg.UserID, arg.MinigameID)
	return scanMinigameSession(row)
}

const completeSession = `-- name: CompleteSession :one
UPDATE minigame_sessions
SET completed = TRUE, completed_at = $4, score = $5, updated_at = $4
WHERE user_id = $1 AND minigame_id = $2
  AND started_at = $3
  AND NOT completed
RETURNING ` + sessionColumns + `
`

type CompleteSessionParams struct {
	UserID      string    `json:"user_id"`
	MinigameID  string    `json:"minigame_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Score       int32     `json:"score"`
}

func (q *Queries) CompleteSession(ctx context.Context, arg CompleteSessionParams) (MinigameSession, error) {
	row := q.db.QueryRowContext(ctx, completeSession,
		arg.UserID,
		arg.MinigameID,
		arg.StartedAt,
		arg.CompletedAt,
		arg.Score,
	)
	return scanMinigameSession(row)
}

const claimReward = `-- name: ClaimReward :one
UPDATE minigame_sessions
SET reward_claimed = TRUE, reward_claimed_at = $3, updated_at = $3
WHERE user_id = $1 AND minigame_id = $2
  AND completed
  AND NOT reward_claimed
RETURNING ` + sessionColumns + `
`

type ClaimRewardParams struct {
	UserID     string    `json:"user_id"`
	MinigameID string    `json:"minigame_id"`
	ClaimedAt  time.Time `json:"claimed_at"`
}

func (q *Queries) ClaimReward(ctx context.Context, arg ClaimRewardParams) (MinigameSession, error) {
	row := q.db.QueryRowContext(ctx, claimReward, arg.UserID, arg.MinigameID, arg.ClaimedAt)
	return scanMinigameSession(row)
}

const releaseRewardClaim = `-- name: ReleaseRewardClaim :execrows
UPDATE minigame_sessions
SET reward_claimed = FALSE, reward_claimed_at = NULL, updated_at = now()
WHERE user_id = $1 AND minigame_id = $2
  AND reward_claimed
  AND reward_effects IS NULL
`

type ReleaseRewardClaimParams struct {
	UserID     string `json:"user_id"`
	MinigameID string `json:"minigame_id"`
}

func (q *Queries) ReleaseRewardClaim(ctx context.Context, arg ReleaseRewardClaimParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, releaseRewardClaim, arg.UserID, arg.MinigameID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setRewardEffects = `-- name: SetRewardEffects :execrows
UPDATE minigame_sessions
SET reward_effects = $3, updated_at = now()
WHERE user_id = $1 AND minigame_id = $2
  AND reward_claimed
`

type SetRewardEffectsParams struct {
	UserID        string                `json:"user_id"`
	MinigameID    string                `json:"minigame_id"`
	RewardEffects pqtype.NullRawMessage `json:"reward_effects"`
}

func (q *Queries) SetRewardEffects(ctx context.Context, arg SetRewardEffectsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setRewardEffects, arg.UserID, arg.MinigameID, arg.RewardEffects)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

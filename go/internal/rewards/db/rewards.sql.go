package db

import (
	"context"
	"time"
)

const addPoints = `-- name: AddPoints :one
INSERT INTO player_points (user_id, points, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET points = player_points.points + EXCLUDED.points,
    updated_at = EXCLUDED.updated_at
RETURNING user_id, points, updated_at
`

type AddPointsParams struct {
	UserID    string    `json:"user_id"`
	Points    int32     `json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) AddPoints(ctx context.Context, arg AddPointsParams) (PlayerPoint, error) {
	row := q.db.QueryRowContext(ctx, addPoints, arg.UserID, arg.Points, arg.UpdatedAt)
	var i PlayerPoint
	err := row.Scan(&i.UserID, &i.Points, &i.UpdatedAt)
	return i, err
}

const getPoints = `-- name: GetPoints :one
SELECT user_id, points, updated_at
FROM player_points
WHERE user_id = $1
`

func (q *Queries) GetPoints(ctx context.Context, userID string) (PlayerPoint, error) {
	row := q.db.QueryRowContext(ctx, getPoints, userID)
	var i PlayerPoint
	err := row.Scan(&i.UserID, &i.Points, &i.UpdatedAt)
	return i, err
}

const grantItem = `-- name: GrantItem :execrows
INSERT INTO player_inventory (user_id, item, description, minigame_id, granted_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, item) DO NOTHING
`

type GrantItemParams struct {
	UserID      string    `json:"user_id"`
	Item        string    `json:"item"`
	Description string    `json:"description"`
	MinigameID  string    `json:"minigame_id"`
	GrantedAt   time.Time `json:"granted_at"`
}

func (q *Queries) GrantItem(ctx context.Context, arg GrantItemParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, grantItem,
		arg.UserID,
		arg.Item,
		arg.Description,
		arg.MinigameID,
		arg.GrantedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listInventory = `-- name: ListInventory :many
SELECT user_id, item, description, minigame_id, granted_at
FROM player_inventory
WHERE user_id = $1
ORDER BY granted_at, item
`

func (q *Queries) ListInventory(ctx context.Context, userID string) ([]PlayerInventoryItem, error) {
	rows, err := q.db.QueryContext(ctx, listInventory, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlayerInventoryItem
	for rows.Next() {
		var i PlayerInventoryItem
		if err := rows.Scan(
			&i.UserID,
			&i.Item,
			&i.Description,
			&i.MinigameID,
			&i.GrantedAt,
		); err != nil {
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

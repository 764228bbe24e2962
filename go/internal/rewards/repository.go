package rewards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcdev12/questline/go/internal/models"
	"github.com/mcdev12/questline/go/internal/rewards/db"
	"github.com/mcdev12/questline/go/internal/sqlutil"
)

// Repository stores player points and inventory in Postgres
type Repository struct {
	db      *sql.DB
	queries *db.Queries
}

// NewRepository creates a new rewards repository
func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		db:      database,
		queries: db.New(database),
	}
}

var _ ProfileRepository = (*Repository)(nil)

// ApplyReward adds points and grants the item in a single transaction
func (r *Repository) ApplyReward(ctx context.Context, award Award) (bool, error) {
	var granted bool
	err := sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *db.Queries) error {
		if _, err := q.AddPoints(ctx, db.AddPointsParams{
			UserID:    award.UserID,
			Points:    int32(award.Points),
			UpdatedAt: award.AwardedAt,
		}); err != nil {
			return fmt.Errorf("failed to add points: %w", err)
		}

		if award.Item == "" {
			return nil
		}
		n, err := q.GrantItem(ctx, db.GrantItemParams{
			UserID:      award.UserID,
			Item:        award.Item,
			Description: award.Description,
			MinigameID:  award.MinigameID.String(),
			GrantedAt:   award.AwardedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to grant item: %w", err)
		}
		granted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return granted, nil
}

// GetProfile returns the points and owned items of a player. A player that
// never earned anything has an empty profile.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile := &models.Profile{
		UserID:    userID,
		Inventory: make(map[string]models.Item),
	}

	points, err := r.queries.GetPoints(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to get points: %w", err)
	default:
		profile.Points = int(points.Points)
	}

	items, err := r.queries.ListInventory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	for _, item := range items {
		profile.Inventory[item.Item] = models.Item{Description: item.Description}
	}
	return profile, nil
}

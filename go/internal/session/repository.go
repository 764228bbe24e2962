package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/questline/go/internal/models"
	"github.com/mcdev12/questline/go/internal/session/db"
	"github.com/mcdev12/questline/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetSession(ctx context.Context, arg db.GetSessionParams) (db.MinigameSession, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]db.MinigameSession, error)
	InsertSession(ctx context.Context, arg db.InsertSessionParams) (db.MinigameSession, error)
	RestartSession(ctx context.Context, arg db.RestartSessionParams) (db.MinigameSession, error)
	DecrementTry(ctx context.Context, arg db.DecrementTryParams) (db.MinigameSession, error)
	CompleteSession(ctx context.Context, arg db.CompleteSessionParams) (db.MinigameSession, error)
	ClaimReward(ctx context.Context, arg db.ClaimRewardParams) (db.MinigameSession, error)
	ReleaseRewardClaim(ctx context.Context, arg db.ReleaseRewardClaimParams) (int64, error)
	SetRewardEffects(ctx context.Context, arg db.SetRewardEffectsParams) (int64, error)
}

// Repository implements session persistence on Postgres. Every mutation is a
// single conditional UPDATE so concurrent requests cannot both win a transition.
type Repository struct {
	queries Querier
}

// NewRepository creates a new session repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

var _ SessionRepository = (*Repository)(nil)

// GetSession retrieves the session for a user and minigame
func (r *Repository) GetSession(ctx context.Context, userID string, minigameID models.MinigameID) (*models.Session, error) {
	row, err := r.queries.GetSession(ctx, db.GetSessionParams{
		UserID:     userID,
		MinigameID: minigameID.String(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return r.dbSessionToModel(row), nil
}

// ListSessions retrieves all sessions of a user
func (r *Repository) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := r.queries.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	result := make([]models.Session, len(rows))
	for i, row := range rows {
		result[i] = *r.dbSessionToModel(row)
	}
	return result, nil
}

// InsertSession creates a session or returns the one that already exists
func (r *Repository) InsertSession(ctx context.Context, s models.Session) (*models.Session, bool, error) {
	row, err := r.queries.InsertSession(ctx, db.InsertSessionParams{
		ID:           s.ID,
		UserID:       s.UserID,
		MinigameID:   s.MinigameID.String(),
		TimerSeconds: int32(s.TimerSeconds),
		StartedAt:    s.StartedAt,
		TriesLeft:    int32(s.TriesLeft),
	})
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.GetSession(ctx, s.UserID, s.MinigameID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert session: %w", err)
	}
	return r.dbSessionToModel(row), true, nil
}

// RestartSession re-stamps started_at if it still equals prevStartedAt
func (r *Repository) RestartSession(ctx context.Context, userID string, minigameID models.MinigameID, prevStartedAt, startedAt time.Time) (*models.Session, bool, error) {
	row, err := r.queries.RestartSession(ctx, db.RestartSessionParams{
		UserID:        userID,
		MinigameID:    minigameID.String(),
		PrevStartedAt: prevStartedAt,
		StartedAt:     startedAt,
	})
	return r.conditional(row, err, "restart session")
}

// DecrementTry decrements tries_left if it is positive
func (r *Repository) DecrementTry(ctx context.Context, userID string, minigameID models.MinigameID) (*models.Session, bool, error) {
	row, err := r.queries.DecrementTry(ctx, db.DecrementTryParams{
		UserID:     userID,
		MinigameID: minigameID.String(),
	})
	return r.conditional(row, err, "decrement try")
}

// CompleteSession freezes the session if it is incomplete and still on the attempt that began at startedAt
func (r *Repository) CompleteSession(ctx context.Context, userID string, minigameID models.MinigameID, startedAt, completedAt time.Time, score int) (*models.Session, bool, error) {
	row, err := r.queries.CompleteSession(ctx, db.CompleteSessionParams{
		UserID:      userID,
		MinigameID:  minigameID.String(),
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Score:       int32(score),
	})
	return r.conditional(row, err, "complete session")
}

// ClaimReward flips reward_claimed if the session is completed and unclaimed
func (r *Repository) ClaimReward(ctx context.Context, userID string, minigameID models.MinigameID, claimedAt time.Time) (*models.Session, bool, error) {
	row, err := r.queries.ClaimReward(ctx, db.ClaimRewardParams{
		UserID:     userID,
		MinigameID: minigameID.String(),
		ClaimedAt:  claimedAt,
	})
	return r.conditional(row, err, "claim reward")
}

// ReleaseRewardClaim undoes a claim whose issuance failed
func (r *Repository) ReleaseRewardClaim(ctx context.Context, userID string, minigameID models.MinigameID) error {
	n, err := r.queries.ReleaseRewardClaim(ctx, db.ReleaseRewardClaimParams{
		UserID:     userID,
		MinigameID: minigameID.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to release reward claim: %w", err)
	}
	if n == 0 {
		log.Warn().Str("user_id", userID).Str("minigame_id", minigameID.String()).Msg("no reward claim to release")
	}
	return nil
}

// SetRewardEffects stores the effects produced by the issuance
func (r *Repository) SetRewardEffects(ctx context.Context, userID string, minigameID models.MinigameID, effects models.Effects) error {
	raw, err := json.Marshal(effects)
	if err != nil {
		return fmt.Errorf("failed to marshal reward effects: %w", err)
	}

	n, err := r.queries.SetRewardEffects(ctx, db.SetRewardEffectsParams{
		UserID:        userID,
		MinigameID:    minigameID.String(),
		RewardEffects: pqtype.NullRawMessage{RawMessage: raw, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to set reward effects: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to set reward effects: reward not claimed")
	}
	return nil
}

func (r *Repository) conditional(row db.MinigameSession, err error, op string) (*models.Session, bool, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to %s: %w", op, err)
	}
	return r.dbSessionToModel(row), true, nil
}

// dbSessionToModel converts a database session to domain model
func (r *Repository) dbSessionToModel(row db.MinigameSession) *models.Session {
	s := &models.Session{
		ID:              row.ID,
		UserID:          row.UserID,
		MinigameID:      models.MinigameID(row.MinigameID),
		TimerSeconds:    int(row.TimerSeconds),
		StartedAt:       row.StartedAt.UTC(),
		TriesLeft:       int(row.TriesLeft),
		Completed:       row.Completed,
		CompletedAt:     sqlutil.FromSqlTime(row.CompletedAt),
		Score:           int(row.Score),
		RewardClaimed:   row.RewardClaimed,
		RewardClaimedAt: sqlutil.FromSqlTime(row.RewardClaimedAt),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}

	if row.RewardEffects.Valid {
		var effects models.Effects
		if err := json.Unmarshal(row.RewardEffects.RawMessage, &effects); err != nil {
			log.Warn().Err(err).Str("session_id", row.ID.String()).Msg("unreadable reward effects")
		} else {
			s.RewardEffects = &effects
		}
	}
	return s
}

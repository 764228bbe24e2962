// Package rewards applies minigame rewards (points and inventory items) to
// player profiles.
package rewards

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/questline/go/internal/catalog"
	"github.com/mcdev12/questline/go/internal/models"
	"github.com/rs/zerolog/log"
)

// fallbackReward applies to minigames without a configured reward.
var fallbackReward = catalog.Reward{PointsMin: 5, PointsMax: 10}

// ProfileRepository defines what the app layer needs from the repository.
type ProfileRepository interface {
	// ApplyReward adds the points and grants the item in one transaction.
	// It reports whether the item was newly granted.
	ApplyReward(ctx context.Context, award Award) (itemGranted bool, err error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// Random draws the points of an award.
type Random interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type App struct {
	repo    ProfileRepository
	catalog *catalog.Catalog
	random  Random
	clock   clockwork.Clock
}

type Option func(*App)

func WithRandom(r Random) Option {
	return func(a *App) {
		a.random = r
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(a *App) {
		a.clock = clock
	}
}

func NewApp(repo ProfileRepository, cat *catalog.Catalog, opts ...Option) *App {
	a := &App{
		repo:    repo,
		catalog: cat,
		random:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Issue applies the reward policy of minigameID to userID. An unsuccessful
// attempt earns nothing and returns nil effects.
func (a *App) Issue(ctx context.Context, userID string, minigameID models.MinigameID, success bool) (*models.Effects, error) {
	if !success {
		return nil, nil
	}

	policy := fallbackReward
	if mg, ok := a.catalog.Lookup(minigameID); ok {
		policy = mg.Reward
	}

	award := Award{
		UserID:      userID,
		MinigameID:  minigameID,
		Points:      a.drawPoints(policy),
		Item:        policy.Item,
		Description: fmt.Sprintf("Awarded from %s", minigameID),
		AwardedAt:   a.clock.Now().UTC().Truncate(time.Microsecond),
	}

	granted, err := a.repo.ApplyReward(ctx, award)
	if err != nil {
		return nil, fmt.Errorf("failed to apply reward: %w", err)
	}

	effects := &models.Effects{Points: award.Points}
	if granted {
		effects.Item = award.Item
	}

	log.Info().
		Str("user_id", userID).
		Str("minigame_id", minigameID.String()).
		Int("points", effects.Points).
		Str("item", effects.Item).
		Msg("reward applied")
	return effects, nil
}

// Profile returns the points and inventory of userID.
func (a *App) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := a.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// drawPoints returns a uniform value in [PointsMin, PointsMax].
func (a *App) drawPoints(r catalog.Reward) int {
	if r.PointsMax <= r.PointsMin {
		return r.PointsMin
	}
	return r.PointsMin + a.random.IntN(r.PointsMax-r.PointsMin+1)
}

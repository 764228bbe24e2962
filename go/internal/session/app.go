package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/questline/go/internal/catalog"
	"github.com/mcdev12/questline/go/internal/events"
	"github.com/mcdev12/questline/go/internal/models"
	"github.com/mcdev12/questline/go/internal/scoring"
	"github.com/rs/zerolog/log"
)

// maxConflictRetries bounds the re-read loop after a lost compare-and-set.
const maxConflictRetries = 5

// errConflict is returned when a record kept changing under every retry.
var errConflict = errors.New("session modified concurrently")

// SessionRepository defines what the app layer needs from the repository.
//
// Every conditional mutation returns ok=false with a nil error when its
// precondition no longer holds; the caller re-reads and decides.
type SessionRepository interface {
	GetSession(ctx context.Context, userID string, minigameID models.MinigameID) (*models.Session, error)
	ListSessions(ctx context.Context, userID string) ([]models.Session, error)
	// InsertSession creates s unless a session exists for the pair, in which
	// case the existing record is returned with created=false.
	InsertSession(ctx context.Context, s models.Session) (session *models.Session, created bool, err error)
	RestartSession(ctx context.Context, userID string, minigameID models.MinigameID, prevStartedAt, startedAt time.Time) (*models.Session, bool, error)
	DecrementTry(ctx context.Context, userID string, minigameID models.MinigameID) (*models.Session, bool, error)
	CompleteSession(ctx context.Context, userID string, minigameID models.MinigameID, startedAt, completedAt time.Time, score int) (*models.Session, bool, error)
	ClaimReward(ctx context.Context, userID string, minigameID models.MinigameID, claimedAt time.Time) (*models.Session, bool, error)
	ReleaseRewardClaim(ctx context.Context, userID string, minigameID models.MinigameID) error
	SetRewardEffects(ctx context.Context, userID string, minigameID models.MinigameID, effects models.Effects) error
}

// RewardIssuer applies reward effects to a player profile
type RewardIssuer interface {
	Issue(ctx context.Context, userID string, minigameID models.MinigameID, success bool) (*models.Effects, error)
}

// OutboxApp defines what the session app needs from the outbox app
type OutboxApp interface {
	InsertSessionStartedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error
	InsertSessionCompletedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error
	InsertRewardClaimedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error
}

// App is the session lifecycle manager and the sole mutator of sessions.
// All time and score computations use its clock.
type App struct {
	repo    SessionRepository
	catalog *catalog.Catalog
	rewards RewardIssuer
	outbox  OutboxApp
	clock   clockwork.Clock
}

// Option configures an App
type Option func(*App)

// WithClock replaces the real clock, typically with a clockwork.FakeClock in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(a *App) {
		a.clock = clock
	}
}

// WithOutbox enables domain event emission.
func WithOutbox(outbox OutboxApp) Option {
	return func(a *App) {
		a.outbox = outbox
	}
}

// NewApp creates a new session App
func NewApp(repo SessionRepository, cat *catalog.Catalog, rewards RewardIssuer, opts ...Option) *App {
	a := &App{
		repo:    repo,
		catalog: cat,
		rewards: rewards,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// now returns the server time at the precision the store keeps.
func (a *App) now() time.Time {
	return a.clock.Now().UTC().Truncate(time.Microsecond)
}

func (a *App) minigame(id models.MinigameID) (catalog.Minigame, error) {
	mg, ok := a.catalog.Lookup(id)
	if !ok {
		return catalog.Minigame{}, fmt.Errorf("%w: %q", ErrInvalidMinigame, id)
	}
	return mg, nil
}

// StartOrResume creates the session on first call, gives an expired and
// incomplete attempt a fresh clock, and otherwise returns the existing state.
func (a *App) StartOrResume(ctx context.Context, userID string, minigameID models.MinigameID) (*View, error) {
	mg, err := a.minigame(minigameID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		now := a.now()

		existing, err := a.repo.GetSession(ctx, userID, minigameID)
		if errors.Is(err, ErrSessionNotFound) {
			return a.create(ctx, userID, mg, now)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}

		if existing.Completed || existing.RemainingSeconds(now) > 0 {
			return a.view(existing, now), nil
		}

		restarted, ok, err := a.repo.RestartSession(ctx, userID, minigameID, existing.StartedAt, now)
		if err != nil {
			return nil, fmt.Errorf("failed to restart session: %w", err)
		}
		if !ok {
			continue
		}

		log.Info().
			Str("user_id", userID).
			Str("minigame_id", minigameID.String()).
			Int("tries_left", restarted.TriesLeft).
			Msg("expired session restarted")
		a.emitStarted(ctx, restarted, true)
		return a.view(restarted, now), nil
	}
	return nil, fmt.Errorf("failed to start session: %w", errConflict)
}

func (a *App) create(ctx context.Context, userID string, mg catalog.Minigame, now time.Time) (*View, error) {
	s := models.Session{
		ID:           uuid.New(),
		UserID:       userID,
		MinigameID:   mg.ID,
		TimerSeconds: mg.TimerSeconds,
		StartedAt:    now,
		TriesLeft:    mg.TriesBudget,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	stored, created, err := a.repo.InsertSession(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if created {
		log.Info().
			Str("user_id", userID).
			Str("minigame_id", mg.ID.String()).
			Int("timer_seconds", stored.TimerSeconds).
			Int("tries_left", stored.TriesLeft).
			Msg("session created")
		a.emitStarted(ctx, stored, false)
	}
	return a.view(stored, now), nil
}

// GetState returns the session with remaining time recomputed from the
// server clock.
func (a *App) GetState(ctx context.Context, userID string, minigameID models.MinigameID) (*View, error) {
	if _, err := a.minigame(minigameID); err != nil {
		return nil, err
	}

	s, err := a.repo.GetSession(ctx, userID, minigameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return a.view(s, a.now()), nil
}

// ListSessions returns every session of a user in catalog order.
func (a *App) ListSessions(ctx context.Context, userID string) ([]View, error) {
	sessions, err := a.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	rank := func(id models.MinigameID) int {
		if i := a.catalog.Index(id); i >= 0 {
			return i
		}
		return len(sessions) + len(a.catalog.All())
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return rank(sessions[i].MinigameID) < rank(sessions[j].MinigameID)
	})

	now := a.now()
	views := make([]View, len(sessions))
	for i := range sessions {
		views[i] = *a.view(&sessions[i], now)
	}
	return views, nil
}

// ListMinigames returns the read-only catalog.
func (a *App) ListMinigames() []catalog.Minigame {
	return a.catalog.All()
}

// DecrementTry spends one try. It is a voluntary client signal, not derived
// from the timer.
func (a *App) DecrementTry(ctx context.Context, userID string, minigameID models.MinigameID) (int, error) {
	mg, err := a.minigame(minigameID)
	if err != nil {
		return 0, err
	}
	if !mg.UsesTries() {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedOperation, minigameID)
	}

	s, ok, err := a.repo.DecrementTry(ctx, userID, minigameID)
	if err != nil {
		return 0, fmt.Errorf("failed to decrement try: %w", err)
	}
	if ok {
		log.Info().
			Str("user_id", userID).
			Str("minigame_id", minigameID.String()).
			Int("tries_left", s.TriesLeft).
			Msg("try decremented")
		return s.TriesLeft, nil
	}

	current, err := a.repo.GetSession(ctx, userID, minigameID)
	if err != nil {
		return 0, fmt.Errorf("failed to get session: %w", err)
	}
	if current.Completed {
		return 0, ErrSessionCompleted
	}
	return 0, ErrNoTriesLeft
}

// Complete freezes the session with a score computed from the server-measured
// elapsed time. Repeated calls return the frozen score.
func (a *App) Complete(ctx context.Context, userID string, minigameID models.MinigameID) (*CompleteResult, error) {
	mg, err := a.minigame(minigameID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		s, err := a.repo.GetSession(ctx, userID, minigameID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if s.Completed {
			return &CompleteResult{Score: s.Score, AlreadyCompleted: true}, nil
		}

		now := a.now()
		elapsed := s.ElapsedSeconds(now)
		if elapsed > s.TimerSeconds {
			elapsed = s.TimerSeconds
		}
		score := scoring.Score(elapsed, s.TimerSeconds, mg.BaseScore)

		done, ok, err := a.repo.CompleteSession(ctx, userID, minigameID, s.StartedAt, now, score)
		if err != nil {
			return nil, fmt.Errorf("failed to complete session: %w", err)
		}
		if !ok {
			// restarted or completed concurrently
			continue
		}

		log.Info().
			Str("user_id", userID).
			Str("minigame_id", minigameID.String()).
			Int("elapsed_seconds", elapsed).
			Int("score", done.Score).
			Msg("session completed")
		a.emit(ctx, done.ID, events.TypeSessionCompleted, events.SessionCompletedPayload{
			SessionID:      done.ID.String(),
			UserID:         userID,
			MinigameID:     minigameID.String(),
			Score:          done.Score,
			ElapsedSeconds: elapsed,
			CompletedAt:    now,
		})
		return &CompleteResult{Score: done.Score}, nil
	}
	return nil, fmt.Errorf("failed to complete session: %w", errConflict)
}

// ClaimReward issues the reward of a completed session at most once.
func (a *App) ClaimReward(ctx context.Context, userID string, minigameID models.MinigameID) (*ClaimResult, error) {
	if _, err := a.minigame(minigameID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		s, err := a.repo.GetSession(ctx, userID, minigameID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if !s.Completed {
			return nil, ErrNotCompleted
		}
		if s.RewardClaimed {
			return &ClaimResult{Score: s.Score, RewardClaimed: true}, nil
		}

		now := a.now()
		claimed, ok, err := a.repo.ClaimReward(ctx, userID, minigameID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to claim reward: %w", err)
		}
		if !ok {
			continue
		}

		effects, err := a.rewards.Issue(ctx, userID, minigameID, true)
		if err != nil {
			if rerr := a.repo.ReleaseRewardClaim(ctx, userID, minigameID); rerr != nil {
				log.Error().
					Err(rerr).
					Str("user_id", userID).
					Str("minigame_id", minigameID.String()).
					Msg("failed to release reward claim after issuance failure")
			}
			return nil, fmt.Errorf("failed to issue reward: %w", err)
		}

		if effects != nil {
			if err := a.repo.SetRewardEffects(ctx, userID, minigameID, *effects); err != nil {
				// the reward is applied and the claim is held; only the audit copy is missing
				log.Error().Err(err).Str("user_id", userID).Str("minigame_id", minigameID.String()).Msg("failed to record reward effects")
			}
		}

		payload := events.RewardClaimedPayload{
			SessionID:  claimed.ID.String(),
			UserID:     userID,
			MinigameID: minigameID.String(),
			Score:      claimed.Score,
			ClaimedAt:  now,
		}
		if effects != nil {
			payload.Points = effects.Points
			payload.Item = effects.Item
		}

		log.Info().
			Str("user_id", userID).
			Str("minigame_id", minigameID.String()).
			Int("points", payload.Points).
			Str("item", payload.Item).
			Msg("reward claimed")
		a.emit(ctx, claimed.ID, events.TypeRewardClaimed, payload)

		return &ClaimResult{Score: claimed.Score, RewardClaimed: true, Effects: effects}, nil
	}
	return nil, fmt.Errorf("failed to claim reward: %w", errConflict)
}

func (a *App) view(s *models.Session, now time.Time) *View {
	return &View{
		MinigameID:       s.MinigameID,
		RemainingSeconds: s.RemainingSeconds(now),
		TriesLeft:        s.TriesLeft,
		Completed:        s.Completed,
		Score:            s.Score,
		RewardClaimed:    s.RewardClaimed,
	}
}

func (a *App) emitStarted(ctx context.Context, s *models.Session, restarted bool) {
	a.emit(ctx, s.ID, events.TypeSessionStarted, events.SessionStartedPayload{
		SessionID:    s.ID.String(),
		UserID:       s.UserID,
		MinigameID:   s.MinigameID.String(),
		StartedAt:    s.StartedAt,
		TimerSeconds: s.TimerSeconds,
		TriesLeft:    s.TriesLeft,
		Restarted:    restarted,
	})
}

// emit records a domain event. Failures are logged and never fail the
// operation that produced the event.
func (a *App) emit(ctx context.Context, sessionID uuid.UUID, eventType string, payload any) {
	if a.outbox == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}

	switch eventType {
	case events.TypeSessionStarted:
		err = a.outbox.InsertSessionStartedEvent(ctx, sessionID, data)
	case events.TypeSessionCompleted:
		err = a.outbox.InsertSessionCompletedEvent(ctx, sessionID, data)
	case events.TypeRewardClaimed:
		err = a.outbox.InsertRewardClaimedEvent(ctx, sessionID, data)
	default:
		err = fmt.Errorf("unknown event type %q", eventType)
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Str("event_type", eventType).
			Msg("failed to emit event")
	}
}

// Package fakesessionrepo is an in-memory session repository with the same
// conditional-update semantics as the Postgres one.
package fakesessionrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcdev12/questline/go/internal/models"
	"github.com/mcdev12/questline/go/internal/session"
)

var _ session.SessionRepository = (*FakeSessionRepo)(nil)

type key struct {
	userID     string
	minigameID models.MinigameID
}

type FakeSessionRepo struct {
	sessions map[key]*models.Session
	lock     sync.Mutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[key]*models.Session),
	}
}

// copyOf detaches a stored record from the caller.
func copyOf(s *models.Session) *models.Session {
	c := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	if s.RewardClaimedAt != nil {
		t := *s.RewardClaimedAt
		c.RewardClaimedAt = &t
	}
	if s.RewardEffects != nil {
		e := *s.RewardEffects
		c.RewardEffects = &e
	}
	return &c
}

func (r *FakeSessionRepo) GetSession(ctx context.Context, userID string, minigameID models.MinigameID) (*models.Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	s, ok := r.sessions[key{userID, minigameID}]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return copyOf(s), nil
}

func (r *FakeSessionRepo) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var out []models.Session
	for k, s := range r.sessions {
		if k.userID == userID {
			out = append(out, *copyOf(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinigameID < out[j].MinigameID })
	return out, nil
}

func (r *FakeSessionRepo) InsertSession(ctx context.Context, s models.Session) (*models.Session, bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	k := key{s.UserID, s.MinigameID}
	if existing, ok := r.sessions[k]; ok {
		return copyOf(existing), false, nil
	}
	r.sessions[k] = copyOf(&s)
	return copyOf(&s), true, nil
}

// update applies fn under the lock when cond holds for the stored record.
func (r *FakeSessionRepo) update(userID string, minigameID models.MinigameID, cond func(*models.Session) bool, fn func(*models.Session)) (*models.Session, bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	s, ok := r.sessions[key{userID, minigameID}]
	if !ok || !cond(s) {
		return nil, false, nil
	}
	fn(s)
	return copyOf(s), true, nil
}

func (r *FakeSessionRepo) RestartSession(ctx context.Context, userID string, minigameID models.MinigameID, prevStartedAt, startedAt time.Time) (*models.Session, bool, error) {
	return r.update(userID, minigameID,
		func(s *models.Session) bool { return !s.Completed && s.StartedAt.Equal(prevStartedAt) },
		func(s *models.Session) {
			s.StartedAt = startedAt
			s.UpdatedAt = startedAt
		})
}

func (r *FakeSessionRepo) DecrementTry(ctx context.Context, userID string, minigameID models.MinigameID) (*models.Session, bool, error) {
	return r.update(userID, minigameID,
		func(s *models.Session) bool { return !s.Completed && s.TriesLeft > 0 },
		func(s *models.Session) {
			s.TriesLeft--
			s.UpdatedAt = time.Now().UTC()
		})
}

func (r *FakeSessionRepo) CompleteSession(ctx context.Context, userID string, minigameID models.MinigameID, startedAt, completedAt time.Time, score int) (*models.Session, bool, error) {
	return r.update(userID, minigameID,
		func(s *models.Session) bool { return !s.Completed && s.StartedAt.Equal(startedAt) },
		func(s *models.Session) {
			s.Completed = true
			s.CompletedAt = &completedAt
			s.Score = score
			s.UpdatedAt = completedAt
		})
}

func (r *FakeSessionRepo) ClaimReward(ctx context.Context, userID string, minigameID models.MinigameID, claimedAt time.Time) (*models.Session, bool, error) {
	return r.update(userID, minigameID,
		func(s *models.Session) bool { return s.Completed && !s.RewardClaimed },
		func(s *models.Session) {
			s.RewardClaimed = true
			s.RewardClaimedAt = &claimedAt
			s.UpdatedAt = claimedAt
		})
}

func (r *FakeSessionRepo) ReleaseRewardClaim(ctx context.Context, userID string, minigameID models.MinigameID) error {
	_, _, err := r.update(userID, minigameID,
		func(s *models.Session) bool { return s.RewardClaimed && s.RewardEffects == nil },
		func(s *models.Session) {
			s.RewardClaimed = false
			s.RewardClaimedAt = nil
		})
	return err
}

func (r *FakeSessionRepo) SetRewardEffects(ctx context.Context, userID string, minigameID models.MinigameID, effects models.Effects) error {
	_, _, err := r.update(userID, minigameID,
		func(s *models.Session) bool { return s.RewardClaimed },
		func(s *models.Session) { s.RewardEffects = &effects })
	return err
}

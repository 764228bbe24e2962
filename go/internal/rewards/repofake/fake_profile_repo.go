package fakeprofilerepo

import (
	"context"
	"errors"
	"sync"

	"github.com/mcdev12/questline/go/internal/models"
	"github.com/mcdev12/questline/go/internal/rewards"
)

var _ rewards.ProfileRepository = (*FakeProfileRepo)(nil)

// ErrUnavailable is returned by every call after Fail is set.
var ErrUnavailable = errors.New("profile store unavailable")

type FakeProfileRepo struct {
	profiles map[string]*models.Profile
	awards   []rewards.Award
	fail     bool
	lock     sync.Mutex
}

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{
		profiles: make(map[string]*models.Profile),
	}
}

// Fail makes subsequent calls return ErrUnavailable.
func (r *FakeProfileRepo) Fail(fail bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.fail = fail
}

// Awards returns every applied award in order.
func (r *FakeProfileRepo) Awards() []rewards.Award {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]rewards.Award(nil), r.awards...)
}

func (r *FakeProfileRepo) profile(userID string) *models.Profile {
	p, ok := r.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID, Inventory: make(map[string]models.Item)}
		r.profiles[userID] = p
	}
	return p
}

func (r *FakeProfileRepo) ApplyReward(ctx context.Context, award rewards.Award) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.fail {
		return false, ErrUnavailable
	}

	p := r.profile(award.UserID)
	p.Points += award.Points
	r.awards = append(r.awards, award)

	if award.Item == "" {
		return false, nil
	}
	if _, owned := p.Inventory[award.Item]; owned {
		return false, nil
	}
	p.Inventory[award.Item] = models.Item{Description: award.Description}
	return true, nil
}

func (r *FakeProfileRepo) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.fail {
		return nil, ErrUnavailable
	}

	p := r.profile(userID)
	out := &models.Profile{UserID: p.UserID, Points: p.Points, Inventory: make(map[string]models.Item, len(p.Inventory))}
	for k, v := range p.Inventory {
		out.Inventory[k] = v
	}
	return out, nil
}

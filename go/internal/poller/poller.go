// Package poller is a client-side session timer. It renders the state the
// server reports and never computes time on its own; the server stays the
// only authority.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	minigamev1 "github.com/mcdev12/questline/go/internal/api/minigame/v1"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = time.Second

// StateClient is the part of the session service the poller calls.
type StateClient interface {
	GetSessionState(context.Context, *connect.Request[minigamev1.GetSessionStateRequest]) (*connect.Response[minigamev1.GetSessionStateResponse], error)
}

// Callback receives the state that triggered it.
type Callback func(state minigamev1.SessionState)

type Poller struct {
	client     StateClient
	minigameID string
	usesTries  bool
	interval   time.Duration
	clock      clockwork.Clock

	onUpdate     Callback
	onTimeUp     Callback
	onOutOfTries Callback

	mu            sync.Mutex
	lastRemaining int32
	timeUpFired   bool
	triesFired    bool
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		p.interval = d
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(p *Poller) {
		p.clock = clock
	}
}

// WithTries marks the minigame as having a tries budget, which enables
// OnOutOfTries.
func WithTries() Option {
	return func(p *Poller) {
		p.usesTries = true
	}
}

// OnUpdate is called with every polled state.
func OnUpdate(cb Callback) Option {
	return func(p *Poller) {
		p.onUpdate = cb
	}
}

// OnTimeUp is called once per attempt when remaining time reaches zero.
func OnTimeUp(cb Callback) Option {
	return func(p *Poller) {
		p.onTimeUp = cb
	}
}

// OnOutOfTries is called once when the tries budget is exhausted.
func OnOutOfTries(cb Callback) Option {
	return func(p *Poller) {
		p.onOutOfTries = cb
	}
}

func New(client StateClient, minigameID string, opts ...Option) *Poller {
	p := &Poller{
		client:        client,
		minigameID:    minigameID,
		interval:      DefaultInterval,
		clock:         clockwork.NewRealClock(),
		lastRemaining: -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll fetches the state once and fires the callbacks it warrants.
func (p *Poller) Poll(ctx context.Context) (minigamev1.SessionState, error) {
	resp, err := p.client.GetSessionState(ctx, connect.NewRequest(&minigamev1.GetSessionStateRequest{
		MinigameID: p.minigameID,
	}))
	if err != nil {
		return minigamev1.SessionState{}, fmt.Errorf("get session state: %w", err)
	}
	state := resp.Msg.SessionState

	if p.onUpdate != nil {
		p.onUpdate(state)
	}

	for _, cb := range p.observe(state) {
		cb(state)
	}
	return state, nil
}

// observe updates the fired flags and returns the callbacks due for state.
func (p *Poller) observe(state minigamev1.SessionState) []Callback {
	p.mu.Lock()
	defer p.mu.Unlock()

	// remaining time only goes up when the server started a fresh attempt
	if p.lastRemaining >= 0 && state.RemainingSeconds > p.lastRemaining {
		p.timeUpFired = false
	}
	p.lastRemaining = state.RemainingSeconds

	if state.Completed {
		return nil
	}

	var due []Callback
	if state.RemainingSeconds == 0 && !p.timeUpFired {
		p.timeUpFired = true
		if p.onTimeUp != nil {
			due = append(due, p.onTimeUp)
		}
	}
	if p.usesTries && state.TriesLeft == 0 && !p.triesFired {
		p.triesFired = true
		if p.onOutOfTries != nil {
			due = append(due, p.onOutOfTries)
		}
	}
	return due
}

// Run polls immediately and then every interval until ctx is done. Poll
// errors are logged and polling continues.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("minigame_id", p.minigameID).Msg("poll failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}

// Format renders seconds as mm:ss.
func Format(seconds int32) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	minigamev1 "github.com/mcdev12/questline/go/internal/api/minigame/v1"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns states in order and repeats the last one.
type scriptedClient struct {
	mu     sync.Mutex
	states []minigamev1.SessionState
	calls  int
	err    error
}

func (c *scriptedClient) GetSessionState(ctx context.Context, req *connect.Request[minigamev1.GetSessionStateRequest]) (*connect.Response[minigamev1.GetSessionStateResponse], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	i := c.calls
	if i >= len(c.states) {
		i = len(c.states) - 1
	}
	c.calls++
	state := c.states[i]
	state.MinigameID = req.Msg.MinigameID
	return connect.NewResponse(&minigamev1.GetSessionStateResponse{SessionState: state}), nil
}

func (c *scriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) inc(minigamev1.SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *counter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestFormat(t *testing.T) {
	require.Equal(t, "05:00", Format(300))
	require.Equal(t, "01:05", Format(65))
	require.Equal(t, "00:00", Format(0))
	require.Equal(t, "00:00", Format(-3))
}

func TestTimeUpFiresOncePerAttempt(t *testing.T) {
	client := &scriptedClient{states: []minigamev1.SessionState{
		{RemainingSeconds: 2},
		{RemainingSeconds: 0},
		{RemainingSeconds: 0},
		{RemainingSeconds: 300},
		{RemainingSeconds: 0},
	}}
	var timeUp counter
	p := New(client, "M1", OnTimeUp(timeUp.inc))
	ctx := context.Background()

	for i, want := range []int{0, 1, 1, 1, 2} {
		_, err := p.Poll(ctx)
		require.NoError(t, err)
		require.Equal(t, want, timeUp.get(), "poll %d", i)
	}
}

func TestOutOfTriesOnlyForTriesMinigames(t *testing.T) {
	states := []minigamev1.SessionState{
		{RemainingSeconds: 200, TriesLeft: 1},
		{RemainingSeconds: 199, TriesLeft: 0},
		{RemainingSeconds: 198, TriesLeft: 0},
	}
	ctx := context.Background()

	var withTries counter
	p := New(&scriptedClient{states: states}, "M4", WithTries(), OnOutOfTries(withTries.inc))
	for range states {
		_, err := p.Poll(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 1, withTries.get())

	var withoutTries counter
	p = New(&scriptedClient{states: states}, "M1", OnOutOfTries(withoutTries.inc))
	for range states {
		_, err := p.Poll(ctx)
		require.NoError(t, err)
	}
	require.Zero(t, withoutTries.get())
}

func TestCompletedSessionFiresNothing(t *testing.T) {
	client := &scriptedClient{states: []minigamev1.SessionState{
		{RemainingSeconds: 0, TriesLeft: 0, Completed: true, Score: 120},
	}}
	var fired counter
	p := New(client, "M5", WithTries(), OnTimeUp(fired.inc), OnOutOfTries(fired.inc))

	state, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 120, state.Score)
	require.Equal(t, "M5", state.MinigameID)
	require.Zero(t, fired.get())
}

func TestPollReturnsServerError(t *testing.T) {
	client := &scriptedClient{err: connect.NewError(connect.CodeNotFound, errors.New("session not found"))}
	p := New(client, "M2")

	_, err := p.Poll(context.Background())
	require.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestRunPollsOnEveryTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := &scriptedClient{states: []minigamev1.SessionState{{RemainingSeconds: 10}}}
	var updates counter
	p := New(client, "M3", WithClock(clock), WithInterval(time.Second), OnUpdate(updates.inc))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return client.Calls() == 1 }, time.Second, time.Millisecond)
	for i := 2; i <= 4; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second)
		want := i
		require.Eventually(t, func() bool { return client.Calls() == want }, time.Second, time.Millisecond)
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Equal(t, 4, updates.get())
}

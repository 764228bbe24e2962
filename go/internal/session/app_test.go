package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/questline/go/internal/catalog"
	"github.com/mcdev12/questline/go/internal/events"
	"github.com/mcdev12/questline/go/internal/models"
	"github.com/mcdev12/questline/go/internal/session"
	fakesessionrepo "github.com/mcdev12/questline/go/internal/session/repofake"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

type fakeIssuer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeIssuer) Issue(ctx context.Context, userID string, minigameID models.MinigameID, success bool) (*models.Effects, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Effects{Points: 20, Item: "sword"}, nil
}

func (f *fakeIssuer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeOutbox) record(eventType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeOutbox) InsertSessionStartedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return f.record(events.TypeSessionStarted)
}

func (f *fakeOutbox) InsertSessionCompletedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return f.record(events.TypeSessionCompleted)
}

func (f *fakeOutbox) InsertRewardClaimedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return f.record(events.TypeRewardClaimed)
}

func (f *fakeOutbox) Count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type testFixture struct {
	clock  *clockwork.FakeClock
	repo   *fakesessionrepo.FakeSessionRepo
	issuer *fakeIssuer
	outbox *fakeOutbox
	app    *session.App
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		clock:  clockwork.NewFakeClockAt(time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)),
		repo:   fakesessionrepo.NewFakeSessionRepo(),
		issuer: &fakeIssuer{},
		outbox: &fakeOutbox{},
	}
	f.app = session.NewApp(f.repo, catalog.Default(), f.issuer,
		session.WithClock(f.clock),
		session.WithOutbox(f.outbox),
	)
	return f
}

func (f *testFixture) start(t *testing.T, id models.MinigameID) *session.View {
	t.Helper()
	view, err := f.app.StartOrResume(context.Background(), testUserID, id)
	require.NoError(t, err)
	return view
}

func (f *testFixture) stored(t *testing.T, id models.MinigameID) *models.Session {
	t.Helper()
	s, err := f.repo.GetSession(context.Background(), testUserID, id)
	require.NoError(t, err)
	return s
}

func TestStartCreatesSessionFromCatalog(t *testing.T) {
	f := setupTestFixture(t)

	view := f.start(t, models.MinigameM1)
	require.Equal(t, session.View{MinigameID: "M1", RemainingSeconds: 300}, *view)

	view = f.start(t, models.MinigameM4)
	require.Equal(t, 5, view.TriesLeft)
	require.Equal(t, 300, view.RemainingSeconds)

	require.Equal(t, 2, f.outbox.Count(events.TypeSessionStarted))
}

func TestStartRejectsUnknownMinigame(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.app.StartOrResume(context.Background(), testUserID, "M42")
	require.ErrorIs(t, err, session.ErrInvalidMinigame)
	require.Equal(t, "InvalidMinigame", session.Reason(err))
}

func TestStartTwiceBeforeExpiryKeepsState(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.start(t, models.MinigameM5)
	before := f.stored(t, models.MinigameM5)

	_, err := f.app.DecrementTry(ctx, testUserID, models.MinigameM5)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Second)

	view := f.start(t, models.MinigameM5)
	require.Equal(t, 290, view.RemainingSeconds)
	require.Equal(t, 4, view.TriesLeft)
	require.True(t, before.StartedAt.Equal(f.stored(t, models.MinigameM5).StartedAt))
	require.Equal(t, 1, f.outbox.Count(events.TypeSessionStarted))
}

func TestGetStateRequiresStart(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.app.GetState(context.Background(), testUserID, models.MinigameM2)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestRemainingSecondsDerivedFromServerClock(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.start(t, models.MinigameM3)

	prev := 301
	for i := 0; i < 300; i++ {
		view, err := f.app.GetState(ctx, testUserID, models.MinigameM3)
		require.NoError(t, err)
		require.Less(t, view.RemainingSeconds, prev)
		prev = view.RemainingSeconds
		f.clock.Advance(time.Second)
	}

	for i := 0; i < 5; i++ {
		view, err := f.app.GetState(ctx, testUserID, models.MinigameM3)
		require.NoError(t, err)
		require.Zero(t, view.RemainingSeconds)
		f.clock.Advance(time.Minute)
	}
}

func TestStartAfterExpiryGivesFreshClockAndKeepsTries(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.start(t, models.MinigameM6)
	_, err := f.app.DecrementTry(ctx, testUserID, models.MinigameM6)
	require.NoError(t, err)

	f.clock.Advance(301 * time.Second)
	view, err := f.app.GetState(ctx, testUserID, models.MinigameM6)
	require.NoError(t, err)
	require.Zero(t, view.RemainingSeconds)

	view = f.start(t, models.MinigameM6)
	require.Equal(t, 300, view.RemainingSeconds)
	require.Equal(t, 4, view.TriesLeft)
	require.True(t, f.stored(t, models.MinigameM6).StartedAt.Equal(f.clock.Now().UTC()))
	require.Equal(t, 2, f.outbox.Count(events.TypeSessionStarted))
}

func TestDecrementTryUnsupportedWithoutTriesBudget(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	for _, id := range []models.MinigameID{"M1", "M2", "M3", "M7"} {
		_, err := f.app.DecrementTry(ctx, testUserID, id)
		require.ErrorIs(t, err, session.ErrUnsupportedOperation, id)

		f.start(t, id)
		_, err = f.app.DecrementTry(ctx, testUserID, id)
		require.ErrorIs(t, err, session.ErrUnsupportedOperation, id)
	}
}

func TestDecrementTryStopsAtZero(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.start(t, models.MinigameM4)

	for want := 4; want >= 0; want-- {
		left, err := f.app.DecrementTry(ctx, testUserID, models.MinigameM4)
		require.NoError(t, err)
		require.Equal(t, want, left)
	}

	_, err := f.app.DecrementTry(ctx, testUserID, models.MinigameM4)
	require.ErrorIs(t, err, session.ErrNoTriesLeft)
	require.Zero(t, f.stored(t, models.MinigameM4).TriesLeft)
}

func TestDecrementTryBeforeStart(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.app.DecrementTry(context.Background(), testUserID, models.MinigameM4)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestConcurrentDecrementsNeverExceedBudget(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t, models.MinigameM5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		noTries   int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.app.DecrementTry(context.Background(), testUserID, models.MinigameM5)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, session.ErrNoTriesLeft):
				noTries++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 5, successes)
	require.Equal(t, 15, noTries)
	require.Zero(t, f.stored(t, models.MinigameM5).TriesLeft)
}

func TestCompleteScoresFromServerElapsedTime(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.start(t, models.MinigameM1)

	f.clock.Advance(180 * time.Second)
	result, err := f.app.Complete(ctx, testUserID, models.MinigameM1)
	require.NoError(t, err)
	require.Equal(t, 75, result.Score)
	require.False(t, result.AlreadyCompleted)

	view, err := f.app.GetState(ctx, testUserID, models.MinigameM1)
	require.NoError(t, err)
	require.True(t, view.Completed)
	require.Equal(t, 75, view.Score)
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.start(t, models.MinigameM2)

	f.clock.Advance(30 * time.Second)
	first, err := f.app.Complete(ctx, testUserID, models.MinigameM2)
	require.NoError(t, err)
	require.Equal(t, 100, first.Score)
	completedAt := *f.stored(t, models.MinigameM2).CompletedAt

	f.clock.Advance(200 * time.Second)
	second, err := f.app.Complete(ctx, testUserID, models.MinigameM2)
	require.NoError(t, err)
	require.Equal(t, first.Score, second.Score)
	require.True(t, second.AlreadyCompleted)
	require.True(t, completedAt.Equal(*f.stored(t, models.MinigameM2).CompletedAt))
	require.Equal(t, 1, f.outbox.Count(events.TypeSessionCompleted))
}

func TestCompleteBeyondBudgetScoresZero(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t, models.MinigameM3)

	f.clock.Advance(350 * time.Second)
	result, err := f.app.Complete(context.Background(), testUserID, models.MinigameM3)
	require.NoError(t, err)
	require.Zero(t, result.Score)
}

func TestCompleteRequiresStart(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.app.Complete(context.Background(), testUserID, models.MinigameM1)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestConcurrentCompleteHasSingleWinner(t *testing.T) {
	f := setupTestFixture(t)
	f.start(t, models.MinigameM4)
	f.clock.Advance(120 * time.Second)

	var wg sync.WaitGroup
	scores := make([]int, 10)
	for i := range scores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.app.Complete(context.Background(), testUserID, models.MinigameM4)
			if err != nil {
				t.Errorf("complete: %v", err)
				return
			}
			scores[i] = result.Score
		}(i)
	}
	wg.Wait()

	// 250 * (1 - 60/240)
	for _, s := range scores {
		require.Equal(t, 188, s)
	}
	require.Equal(t, 1, f.outbox.Count(events.TypeSessionCompleted))
}

func TestCompletedSessionIsFrozen(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.start(t, models.MinigameM4)

	_, err := f.app.Complete(ctx, testUserID, models.MinigameM4)
	require.NoError(t, err)
	before := f.stored(t, models.MinigameM4)

	f.clock.Advance(time.Hour)
	view := f.start(t, models.MinigameM4)
	require.True(t, view.Completed)
	require.Zero(t, view.RemainingSeconds)

	_, err = f.app.DecrementTry(ctx, testUserID, models.MinigameM4)
	require.ErrorIs(t, err, session.ErrSessionCompleted)

	after := f.stored(t, models.MinigameM4)
	require.True(t, before.StartedAt.Equal(after.StartedAt))
	require.Equal(t, before.TriesLeft, after.TriesLeft)
	require.Equal(t, before.Score, after.Score)
}

func TestClaimRewardRequiresCompletion(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.app.ClaimReward(ctx, testUserID, models.MinigameM1)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	f.start(t, models.MinigameM1)
	_, err = f.app.ClaimReward(ctx, testUserID, models.MinigameM1)
	require.ErrorIs(t, err, session.ErrNotCompleted)
	require.Zero(t, f.issuer.Calls())
}

func TestClaimRewardIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.start(t, models.MinigameM4)
	_, err := f.app.Complete(ctx, testUserID, models.MinigameM4)
	require.NoError(t, err)

	first, err := f.app.ClaimReward(ctx, testUserID, models.MinigameM4)
	require.NoError(t, err)
	require.True(t, first.RewardClaimed)
	require.Equal(t, 250, first.Score)
	require.Equal(t, &models.Effects{Points: 20, Item: "sword"}, first.Effects)

	second, err := f.app.ClaimReward(ctx, testUserID, models.MinigameM4)
	require.NoError(t, err)
	require.True(t, second.RewardClaimed)
	require.Equal(t, 250, second.Score)
	require.Nil(t, second.Effects)

	require.Equal(t, 1, f.issuer.Calls())
	require.Equal(t, 1, f.outbox.Count(events.TypeRewardClaimed))
	require.Equal(t, &models.Effects{Points: 20, Item: "sword"}, f.stored(t, models.MinigameM4).RewardEffects)
}

func TestConcurrentClaimsIssueOnce(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.start(t, models.MinigameM7)
	_, err := f.app.Complete(ctx, testUserID, models.MinigameM7)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.app.ClaimReward(context.Background(), testUserID, models.MinigameM7)
			if err != nil {
				t.Errorf("claim: %v", err)
				return
			}
			if !result.RewardClaimed {
				t.Errorf("expected reward claimed")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, f.issuer.Calls())
}

func TestClaimRewardReleasesClaimWhenIssuanceFails(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.start(t, models.MinigameM1)
	_, err := f.app.Complete(ctx, testUserID, models.MinigameM1)
	require.NoError(t, err)

	f.issuer.err = errors.New("profile store down")
	_, err = f.app.ClaimReward(ctx, testUserID, models.MinigameM1)
	require.Error(t, err)
	require.False(t, f.stored(t, models.MinigameM1).RewardClaimed)

	f.issuer.err = nil
	result, err := f.app.ClaimReward(ctx, testUserID, models.MinigameM1)
	require.NoError(t, err)
	require.NotNil(t, result.Effects)
	require.Equal(t, 2, f.issuer.Calls())
}

func TestOutboxFailureDoesNotFailOperations(t *testing.T) {
	f := setupTestFixture(t)
	f.outbox.err = errors.New("outbox unavailable")
	ctx := context.Background()

	f.start(t, models.MinigameM2)
	_, err := f.app.Complete(ctx, testUserID, models.MinigameM2)
	require.NoError(t, err)
	_, err = f.app.ClaimReward(ctx, testUserID, models.MinigameM2)
	require.NoError(t, err)
}

func TestListSessionsInCatalogOrder(t *testing.T) {
	f := setupTestFixture(t)

	f.start(t, models.MinigameM7)
	f.start(t, models.MinigameM2)
	f.start(t, models.MinigameM4)

	views, err := f.app.ListSessions(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	require.Equal(t, models.MinigameM2, views[0].MinigameID)
	require.Equal(t, models.MinigameM4, views[1].MinigameID)
	require.Equal(t, models.MinigameM7, views[2].MinigameID)

	other, err := f.app.ListSessions(context.Background(), "someone-else")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.start(t, models.MinigameM4)
	_, err := f.app.DecrementTry(ctx, testUserID, models.MinigameM4)
	require.NoError(t, err)

	view, err := f.app.StartOrResume(ctx, "user-2", models.MinigameM4)
	require.NoError(t, err)
	require.Equal(t, 5, view.TriesLeft)
}

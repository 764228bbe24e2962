package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	minigamev1 "github.com/mcdev12/questline/go/internal/api/minigame/v1"
	"github.com/mcdev12/questline/go/internal/api/minigame/v1/minigamev1connect"
	"github.com/mcdev12/questline/go/internal/auth"
	"github.com/mcdev12/questline/go/internal/session"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type serviceFixture struct {
	*testFixture
	server   *httptest.Server
	verifier *auth.Verifier
}

func setupServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := setupTestFixture(t)
	verifier := auth.NewVerifier(testSecret)

	mux := http.NewServeMux()
	path, handler := minigamev1connect.NewSessionServiceHandler(
		session.NewService(f.app),
		connect.WithInterceptors(auth.NewInterceptor(verifier, minigamev1connect.PublicProcedures)),
	)
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &serviceFixture{testFixture: f, server: server, verifier: verifier}
}

func (f *serviceFixture) client(t *testing.T, userID string) minigamev1connect.SessionServiceClient {
	t.Helper()

	var opts []connect.ClientOption
	if userID != "" {
		token, err := f.verifier.Sign(userID, time.Hour)
		require.NoError(t, err)
		opts = append(opts, connect.WithInterceptors(auth.NewBearerInterceptor(token)))
	}
	return minigamev1connect.NewSessionServiceClient(f.server.Client(), f.server.URL, opts...)
}

func requireConnectError(t *testing.T, err error, code connect.Code, reason string) {
	t.Helper()

	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr), "expected connect error, got %v", err)
	require.Equal(t, code, connectErr.Code())
	require.Equal(t, reason, connectErr.Meta().Get(session.ErrorReasonHeader))
}

func TestServiceSessionFlow(t *testing.T) {
	f := setupServiceFixture(t)
	client := f.client(t, testUserID)
	ctx := context.Background()

	start, err := client.StartSession(ctx, connect.NewRequest(&minigamev1.StartSessionRequest{MinigameID: "M4"}))
	require.NoError(t, err)
	require.Equal(t, minigamev1.SessionState{MinigameID: "M4", RemainingSeconds: 300, TriesLeft: 5}, start.Msg.SessionState)

	dec, err := client.DecrementTry(ctx, connect.NewRequest(&minigamev1.DecrementTryRequest{MinigameID: "M4"}))
	require.NoError(t, err)
	require.EqualValues(t, 4, dec.Msg.TriesLeft)

	f.clock.Advance(180 * time.Second)
	state, err := client.GetSessionState(ctx, connect.NewRequest(&minigamev1.GetSessionStateRequest{MinigameID: "M4"}))
	require.NoError(t, err)
	require.EqualValues(t, 120, state.Msg.RemainingSeconds)

	done, err := client.CompleteSession(ctx, connect.NewRequest(&minigamev1.CompleteSessionRequest{MinigameID: "M4"}))
	require.NoError(t, err)
	require.EqualValues(t, 125, done.Msg.Score)
	require.False(t, done.Msg.AlreadyCompleted)

	claim, err := client.ClaimReward(ctx, connect.NewRequest(&minigamev1.ClaimRewardRequest{MinigameID: "M4"}))
	require.NoError(t, err)
	require.True(t, claim.Msg.RewardClaimed)
	require.Equal(t, &minigamev1.RewardEffects{Points: 20, Item: "sword"}, claim.Msg.RewardEffects)

	again, err := client.ClaimReward(ctx, connect.NewRequest(&minigamev1.ClaimRewardRequest{MinigameID: "M4"}))
	require.NoError(t, err)
	require.True(t, again.Msg.RewardClaimed)
	require.EqualValues(t, 125, again.Msg.Score)
	require.Nil(t, again.Msg.RewardEffects)

	list, err := client.ListSessions(ctx, connect.NewRequest(&minigamev1.ListSessionsRequest{}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Sessions, 1)
	require.True(t, list.Msg.Sessions[0].Completed)
	require.True(t, list.Msg.Sessions[0].RewardClaimed)
}

func TestServiceMapsDomainErrors(t *testing.T) {
	f := setupServiceFixture(t)
	client := f.client(t, testUserID)
	ctx := context.Background()

	_, err := client.StartSession(ctx, connect.NewRequest(&minigamev1.StartSessionRequest{MinigameID: "M9"}))
	requireConnectError(t, err, connect.CodeInvalidArgument, "InvalidMinigame")

	_, err = client.GetSessionState(ctx, connect.NewRequest(&minigamev1.GetSessionStateRequest{MinigameID: "M1"}))
	requireConnectError(t, err, connect.CodeNotFound, "SessionNotFound")

	_, err = client.CompleteSession(ctx, connect.NewRequest(&minigamev1.CompleteSessionRequest{MinigameID: "M1"}))
	requireConnectError(t, err, connect.CodeNotFound, "SessionNotFound")

	_, err = client.DecrementTry(ctx, connect.NewRequest(&minigamev1.DecrementTryRequest{MinigameID: "M1"}))
	requireConnectError(t, err, connect.CodeInvalidArgument, "UnsupportedOperation")

	_, err = client.StartSession(ctx, connect.NewRequest(&minigamev1.StartSessionRequest{MinigameID: "M1"}))
	require.NoError(t, err)
	_, err = client.ClaimReward(ctx, connect.NewRequest(&minigamev1.ClaimRewardRequest{MinigameID: "M1"}))
	requireConnectError(t, err, connect.CodeFailedPrecondition, "NotCompleted")

	_, err = client.StartSession(ctx, connect.NewRequest(&minigamev1.StartSessionRequest{MinigameID: "M6"}))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = client.DecrementTry(ctx, connect.NewRequest(&minigamev1.DecrementTryRequest{MinigameID: "M6"}))
		require.NoError(t, err)
	}
	_, err = client.DecrementTry(ctx, connect.NewRequest(&minigamev1.DecrementTryRequest{MinigameID: "M6"}))
	requireConnectError(t, err, connect.CodeFailedPrecondition, "NoTriesLeft")
}

func TestServiceHidesPersistenceErrors(t *testing.T) {
	f := setupServiceFixture(t)
	f.issuer.err = errors.New("connection reset by peer")
	client := f.client(t, testUserID)
	ctx := context.Background()

	_, err := client.StartSession(ctx, connect.NewRequest(&minigamev1.StartSessionRequest{MinigameID: "M2"}))
	require.NoError(t, err)
	_, err = client.CompleteSession(ctx, connect.NewRequest(&minigamev1.CompleteSessionRequest{MinigameID: "M2"}))
	require.NoError(t, err)

	_, err = client.ClaimReward(ctx, connect.NewRequest(&minigamev1.ClaimRewardRequest{MinigameID: "M2"}))
	requireConnectError(t, err, connect.CodeInternal, "")
	require.NotContains(t, err.Error(), "connection reset")
}

func TestServiceRequiresBearerToken(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	_, err := f.client(t, "").StartSession(ctx, connect.NewRequest(&minigamev1.StartSessionRequest{MinigameID: "M1"}))
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	forged := minigamev1connect.NewSessionServiceClient(f.server.Client(), f.server.URL,
		connect.WithInterceptors(auth.NewBearerInterceptor("not-a-jwt")))
	_, err = forged.GetSessionState(ctx, connect.NewRequest(&minigamev1.GetSessionStateRequest{MinigameID: "M1"}))
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	minigames, err := f.client(t, "").ListMinigames(ctx, connect.NewRequest(&minigamev1.ListMinigamesRequest{}))
	require.NoError(t, err)
	require.Len(t, minigames.Msg.Minigames, 7)
	require.Equal(t, &minigamev1.Minigame{MinigameID: "M4", TimerSeconds: 300, TriesBudget: 5, BaseScore: 250}, minigames.Msg.Minigames[3])
}

func TestServiceAcceptsPlainJSONRequests(t *testing.T) {
	f := setupServiceFixture(t)
	token, err := f.verifier.Sign(testUserID, time.Hour)
	require.NoError(t, err)

	post := func(procedure, body string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, f.server.URL+procedure, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := f.server.Client().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := post(minigamev1connect.SessionServiceStartSessionProcedure, `{"minigameId":"M3"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	require.Equal(t, "M3", state["minigameId"])
	require.EqualValues(t, 300, state["remainingSeconds"])

	resp = post(minigamev1connect.SessionServiceListSessionsProcedure, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

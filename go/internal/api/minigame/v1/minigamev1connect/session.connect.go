// Package minigamev1connect wires the minigame.v1 messages to connect
// handlers and clients using the JSON codec.
package minigamev1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	minigamev1 "github.com/mcdev12/questline/go/internal/api/minigame/v1"
)

const (
	// SessionServiceName is the fully-qualified name of the SessionService service.
	SessionServiceName = "minigame.v1.SessionService"
)

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	SessionServiceStartSessionProcedure    = "/minigame.v1.SessionService/StartSession"
	SessionServiceGetSessionStateProcedure = "/minigame.v1.SessionService/GetSessionState"
	SessionServiceDecrementTryProcedure    = "/minigame.v1.SessionService/DecrementTry"
	SessionServiceCompleteSessionProcedure = "/minigame.v1.SessionService/CompleteSession"
	SessionServiceClaimRewardProcedure     = "/minigame.v1.SessionService/ClaimReward"
	SessionServiceListSessionsProcedure    = "/minigame.v1.SessionService/ListSessions"
	SessionServiceListMinigamesProcedure   = "/minigame.v1.SessionService/ListMinigames"
)

// PublicProcedures need no bearer token.
var PublicProcedures = map[string]bool{
	SessionServiceListMinigamesProcedure: true,
}

// SessionServiceClient is a client for the minigame.v1.SessionService service.
type SessionServiceClient interface {
	StartSession(context.Context, *connect.Request[minigamev1.StartSessionRequest]) (*connect.Response[minigamev1.StartSessionResponse], error)
	GetSessionState(context.Context, *connect.Request[minigamev1.GetSessionStateRequest]) (*connect.Response[minigamev1.GetSessionStateResponse], error)
	DecrementTry(context.Context, *connect.Request[minigamev1.DecrementTryRequest]) (*connect.Response[minigamev1.DecrementTryResponse], error)
	CompleteSession(context.Context, *connect.Request[minigamev1.CompleteSessionRequest]) (*connect.Response[minigamev1.CompleteSessionResponse], error)
	ClaimReward(context.Context, *connect.Request[minigamev1.ClaimRewardRequest]) (*connect.Response[minigamev1.ClaimRewardResponse], error)
	ListSessions(context.Context, *connect.Request[minigamev1.ListSessionsRequest]) (*connect.Response[minigamev1.ListSessionsResponse], error)
	ListMinigames(context.Context, *connect.Request[minigamev1.ListMinigamesRequest]) (*connect.Response[minigamev1.ListMinigamesResponse], error)
}

// NewSessionServiceClient constructs a client for the minigame.v1.SessionService service.
//
// The URL supplied here should be the base URL for the server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SessionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(minigamev1.Codec{})}, opts...)
	return &sessionServiceClient{
		startSession: connect.NewClient[minigamev1.StartSessionRequest, minigamev1.StartSessionResponse](
			httpClient,
			baseURL+SessionServiceStartSessionProcedure,
			opts...,
		),
		getSessionState: connect.NewClient[minigamev1.GetSessionStateRequest, minigamev1.GetSessionStateResponse](
			httpClient,
			baseURL+SessionServiceGetSessionStateProcedure,
			opts...,
		),
		decrementTry: connect.NewClient[minigamev1.DecrementTryRequest, minigamev1.DecrementTryResponse](
			httpClient,
			baseURL+SessionServiceDecrementTryProcedure,
			opts...,
		),
		completeSession: connect.NewClient[minigamev1.CompleteSessionRequest, minigamev1.CompleteSessionResponse](
			httpClient,
			baseURL+SessionServiceCompleteSessionProcedure,
			opts...,
		),
		claimReward: connect.NewClient[minigamev1.ClaimRewardRequest, minigamev1.ClaimRewardResponse](
			httpClient,
			baseURL+SessionServiceClaimRewardProcedure,
			opts...,
		),
		listSessions: connect.NewClient[minigamev1.ListSessionsRequest, minigamev1.ListSessionsResponse](
			httpClient,
			baseURL+SessionServiceListSessionsProcedure,
			opts...,
		),
		listMinigames: connect.NewClient[minigamev1.ListMinigamesRequest, minigamev1.ListMinigamesResponse](
			httpClient,
			baseURL+SessionServiceListMinigamesProcedure,
			opts...,
		),
	}
}

// sessionServiceClient implements SessionServiceClient.
type sessionServiceClient struct {
	startSession    *connect.Client[minigamev1.StartSessionRequest, minigamev1.StartSessionResponse]
	getSessionState *connect.Client[minigamev1.GetSessionStateRequest, minigamev1.GetSessionStateResponse]
	decrementTry    *connect.Client[minigamev1.DecrementTryRequest, minigamev1.DecrementTryResponse]
	completeSession *connect.Client[minigamev1.CompleteSessionRequest, minigamev1.CompleteSessionResponse]
	claimReward     *connect.Client[minigamev1.ClaimRewardRequest, minigamev1.ClaimRewardResponse]
	listSessions    *connect.Client[minigamev1.ListSessionsRequest, minigamev1.ListSessionsResponse]
	listMinigames   *connect.Client[minigamev1.ListMinigamesRequest, minigamev1.ListMinigamesResponse]
}

// StartSession calls minigame.v1.SessionService.StartSession.
func (c *sessionServiceClient) StartSession(ctx context.Context, req *connect.Request[minigamev1.StartSessionRequest]) (*connect.Response[minigamev1.StartSessionResponse], error) {
	return c.startSession.CallUnary(ctx, req)
}

// GetSessionState calls minigame.v1.SessionService.GetSessionState.
func (c *sessionServiceClient) GetSessionState(ctx context.Context, req *connect.Request[minigamev1.GetSessionStateRequest]) (*connect.Response[minigamev1.GetSessionStateResponse], error) {
	return c.getSessionState.CallUnary(ctx, req)
}

// DecrementTry calls minigame.v1.SessionService.DecrementTry.
func (c *sessionServiceClient) DecrementTry(ctx context.Context, req *connect.Request[minigamev1.DecrementTryRequest]) (*connect.Response[minigamev1.DecrementTryResponse], error) {
	return c.decrementTry.CallUnary(ctx, req)
}

// CompleteSession calls minigame.v1.SessionService.CompleteSession.
func (c *sessionServiceClient) CompleteSession(ctx context.Context, req *connect.Request[minigamev1.CompleteSessionRequest]) (*connect.Response[minigamev1.CompleteSessionResponse], error) {
	return c.completeSession.CallUnary(ctx, req)
}

// ClaimReward calls minigame.v1.SessionService.ClaimReward.
func (c *sessionServiceClient) ClaimReward(ctx context.Context, req *connect.Request[minigamev1.ClaimRewardRequest]) (*connect.Response[minigamev1.ClaimRewardResponse], error) {
	return c.claimReward.CallUnary(ctx, req)
}

// ListSessions calls minigame.v1.SessionService.ListSessions.
func (c *sessionServiceClient) ListSessions(ctx context.Context, req *connect.Request[minigamev1.ListSessionsRequest]) (*connect.Response[minigamev1.ListSessionsResponse], error) {
	return c.listSessions.CallUnary(ctx, req)
}

// ListMinigames calls minigame.v1.SessionService.ListMinigames.
func (c *sessionServiceClient) ListMinigames(ctx context.Context, req *connect.Request[minigamev1.ListMinigamesRequest]) (*connect.Response[minigamev1.ListMinigamesResponse], error) {
	return c.listMinigames.CallUnary(ctx, req)
}

// SessionServiceHandler is an implementation of the minigame.v1.SessionService service.
type SessionServiceHandler interface {
	StartSession(context.Context, *connect.Request[minigamev1.StartSessionRequest]) (*connect.Response[minigamev1.StartSessionResponse], error)
	GetSessionState(context.Context, *connect.Request[minigamev1.GetSessionStateRequest]) (*connect.Response[minigamev1.GetSessionStateResponse], error)
	DecrementTry(context.Context, *connect.Request[minigamev1.DecrementTryRequest]) (*connect.Response[minigamev1.DecrementTryResponse], error)
	CompleteSession(context.Context, *connect.Request[minigamev1.CompleteSessionRequest]) (*connect.Response[minigamev1.CompleteSessionResponse], error)
	ClaimReward(context.Context, *connect.Request[minigamev1.ClaimRewardRequest]) (*connect.Response[minigamev1.ClaimRewardResponse], error)
	ListSessions(context.Context, *connect.Request[minigamev1.ListSessionsRequest]) (*connect.Response[minigamev1.ListSessionsResponse], error)
	ListMinigames(context.Context, *connect.Request[minigamev1.ListMinigamesRequest]) (*connect.Response[minigamev1.ListMinigamesResponse], error)
}

// NewSessionServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(minigamev1.Codec{})}, opts...)
	sessionServiceStartSessionHandler := connect.NewUnaryHandler(
		SessionServiceStartSessionProcedure,
		svc.StartSession,
		opts...,
	)
	sessionServiceGetSessionStateHandler := connect.NewUnaryHandler(
		SessionServiceGetSessionStateProcedure,
		svc.GetSessionState,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)
	sessionServiceDecrementTryHandler := connect.NewUnaryHandler(
		SessionServiceDecrementTryProcedure,
		svc.DecrementTry,
		opts...,
	)
	sessionServiceCompleteSessionHandler := connect.NewUnaryHandler(
		SessionServiceCompleteSessionProcedure,
		svc.CompleteSession,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...,
	)
	sessionServiceClaimRewardHandler := connect.NewUnaryHandler(
		SessionServiceClaimRewardProcedure,
		svc.ClaimReward,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...,
	)
	sessionServiceListSessionsHandler := connect.NewUnaryHandler(
		SessionServiceListSessionsProcedure,
		svc.ListSessions,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)
	sessionServiceListMinigamesHandler := connect.NewUnaryHandler(
		SessionServiceListMinigamesProcedure,
		svc.ListMinigames,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)
	return "/minigame.v1.SessionService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SessionServiceStartSessionProcedure:
			sessionServiceStartSessionHandler.ServeHTTP(w, r)
		case SessionServiceGetSessionStateProcedure:
			sessionServiceGetSessionStateHandler.ServeHTTP(w, r)
		case SessionServiceDecrementTryProcedure:
			sessionServiceDecrementTryHandler.ServeHTTP(w, r)
		case SessionServiceCompleteSessionProcedure:
			sessionServiceCompleteSessionHandler.ServeHTTP(w, r)
		case SessionServiceClaimRewardProcedure:
			sessionServiceClaimRewardHandler.ServeHTTP(w, r)
		case SessionServiceListSessionsProcedure:
			sessionServiceListSessionsHandler.ServeHTTP(w, r)
		case SessionServiceListMinigamesProcedure:
			sessionServiceListMinigamesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

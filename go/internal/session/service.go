package session

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	minigamev1 "github.com/mcdev12/questline/go/internal/api/minigame/v1"
	"github.com/mcdev12/questline/go/internal/api/minigame/v1/minigamev1connect"
	"github.com/mcdev12/questline/go/internal/auth"
	"github.com/mcdev12/questline/go/internal/catalog"
	"github.com/mcdev12/questline/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrorReasonHeader carries the domain error name on failed responses.
const ErrorReasonHeader = "Minigame-Error"

// SessionApp defines what the service layer needs from the session application
type SessionApp interface {
	StartOrResume(ctx context.Context, userID string, minigameID models.MinigameID) (*View, error)
	GetState(ctx context.Context, userID string, minigameID models.MinigameID) (*View, error)
	DecrementTry(ctx context.Context, userID string, minigameID models.MinigameID) (int, error)
	Complete(ctx context.Context, userID string, minigameID models.MinigameID) (*CompleteResult, error)
	ClaimReward(ctx context.Context, userID string, minigameID models.MinigameID) (*ClaimResult, error)
	ListSessions(ctx context.Context, userID string) ([]View, error)
	ListMinigames() []catalog.Minigame
}

// Service implements the SessionService connect interface
type Service struct {
	app SessionApp
}

// NewService creates a new session connect service
func NewService(app SessionApp) *Service {
	return &Service{
		app: app,
	}
}

// Verify that Service implements the SessionServiceHandler interface
var _ minigamev1connect.SessionServiceHandler = (*Service)(nil)

// StartSession creates or resumes the caller's session
func (s *Service) StartSession(ctx context.Context, req *connect.Request[minigamev1.StartSessionRequest]) (*connect.Response[minigamev1.StartSessionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.app.StartOrResume(ctx, userID, models.MinigameID(req.Msg.MinigameID))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&minigamev1.StartSessionResponse{
		SessionState: viewToProto(view),
	}), nil
}

// GetSessionState returns the caller's session with server-derived remaining time
func (s *Service) GetSessionState(ctx context.Context, req *connect.Request[minigamev1.GetSessionStateRequest]) (*connect.Response[minigamev1.GetSessionStateResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.app.GetState(ctx, userID, models.MinigameID(req.Msg.MinigameID))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&minigamev1.GetSessionStateResponse{
		SessionState: viewToProto(view),
	}), nil
}

// DecrementTry spends one try
func (s *Service) DecrementTry(ctx context.Context, req *connect.Request[minigamev1.DecrementTryRequest]) (*connect.Response[minigamev1.DecrementTryResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	left, err := s.app.DecrementTry(ctx, userID, models.MinigameID(req.Msg.MinigameID))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&minigamev1.DecrementTryResponse{
		TriesLeft: int32(left),
	}), nil
}

// CompleteSession freezes the session and returns its score
func (s *Service) CompleteSession(ctx context.Context, req *connect.Request[minigamev1.CompleteSessionRequest]) (*connect.Response[minigamev1.CompleteSessionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.app.Complete(ctx, userID, models.MinigameID(req.Msg.MinigameID))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&minigamev1.CompleteSessionResponse{
		Score:            int32(result.Score),
		AlreadyCompleted: result.AlreadyCompleted,
	}), nil
}

// ClaimReward issues the session reward at most once
func (s *Service) ClaimReward(ctx context.Context, req *connect.Request[minigamev1.ClaimRewardRequest]) (*connect.Response[minigamev1.ClaimRewardResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.app.ClaimReward(ctx, userID, models.MinigameID(req.Msg.MinigameID))
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &minigamev1.ClaimRewardResponse{
		Score:         int32(result.Score),
		RewardClaimed: result.RewardClaimed,
	}
	if result.Effects != nil {
		resp.RewardEffects = &minigamev1.RewardEffects{
			Points: int32(result.Effects.Points),
			Item:   result.Effects.Item,
		}
	}
	return connect.NewResponse(resp), nil
}

// ListSessions returns every session of the caller
func (s *Service) ListSessions(ctx context.Context, req *connect.Request[minigamev1.ListSessionsRequest]) (*connect.Response[minigamev1.ListSessionsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.app.ListSessions(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	protoSessions := make([]*minigamev1.SessionState, len(views))
	for i := range views {
		state := viewToProto(&views[i])
		protoSessions[i] = &state
	}
	return connect.NewResponse(&minigamev1.ListSessionsResponse{
		Sessions: protoSessions,
	}), nil
}

// ListMinigames returns the minigame catalog
func (s *Service) ListMinigames(ctx context.Context, req *connect.Request[minigamev1.ListMinigamesRequest]) (*connect.Response[minigamev1.ListMinigamesResponse], error) {
	minigames := s.app.ListMinigames()

	protoMinigames := make([]*minigamev1.Minigame, len(minigames))
	for i, mg := range minigames {
		protoMinigames[i] = &minigamev1.Minigame{
			MinigameID:   mg.ID.String(),
			TimerSeconds: int32(mg.TimerSeconds),
			TriesBudget:  int32(mg.TriesBudget),
			BaseScore:    int32(mg.BaseScore),
		}
	}
	return connect.NewResponse(&minigamev1.ListMinigamesResponse{
		Minigames: protoMinigames,
	}), nil
}

func callerID(ctx context.Context) (string, error) {
	userID, ok := auth.UserID(ctx)
	if !ok {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func viewToProto(v *View) minigamev1.SessionState {
	return minigamev1.SessionState{
		MinigameID:       v.MinigameID.String(),
		RemainingSeconds: int32(v.RemainingSeconds),
		TriesLeft:        int32(v.TriesLeft),
		Completed:        v.Completed,
		Score:            int32(v.Score),
		RewardClaimed:    v.RewardClaimed,
	}
}

// toConnectError maps domain errors to connect codes and names the domain
// error in the ErrorReasonHeader metadata.
func toConnectError(err error) error {
	reason := Reason(err)

	var code connect.Code
	switch {
	case errors.Is(err, ErrInvalidMinigame), errors.Is(err, ErrUnsupportedOperation):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ErrSessionNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, ErrNoTriesLeft), errors.Is(err, ErrNotCompleted), errors.Is(err, ErrSessionCompleted):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		log.Error().Err(err).Msg("session request failed")
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}

	connectErr := connect.NewError(code, err)
	if reason != "" {
		connectErr.Meta().Set(ErrorReasonHeader, reason)
	}
	return connectErr
}

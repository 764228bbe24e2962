// Package auth verifies bearer tokens on inbound connect requests and puts
// the opaque user id in the request context.
package auth

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"
)

type userIDKey struct{}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated user id placed in ctx by the interceptor.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// NewInterceptor rejects unary calls without a valid bearer token, except for
// procedures listed in public.
func NewInterceptor(verifier *Verifier, public map[string]bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient || public[req.Spec().Procedure] {
				return next(ctx, req)
			}

			raw, ok := bearerToken(req.Header().Get("Authorization"))
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, ErrMissingToken)
			}
			userID, err := verifier.Verify(raw)
			if err != nil {
				log.Debug().Err(err).Str("procedure", req.Spec().Procedure).Msg("rejected token")
				return nil, connect.NewError(connect.CodeUnauthenticated, ErrInvalidToken)
			}
			return next(WithUserID(ctx, userID), req)
		}
	}
}

// NewBearerInterceptor attaches token to every outbound client call.
func NewBearerInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/apierror"
	"github.com/sbilibin2017/gw-user-account/internal/jwt"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=middlewares

// ErrUnauthorized is rendered for every authentication failure.
var ErrUnauthorized = apierror.Auth(http.StatusUnauthorized, "Unauthorized request.")

// Tokener defines the minimal interface needed by the middleware
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	VerifyAccess(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// UserResolver loads the sanitized user referenced by a verified token.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type userKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user attached by AuthMiddleware, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey{}).(*models.User)
	return user
}

// AuthMiddleware verifies the access token and attaches the resolved user to
// the request context before calling next.
func AuthMiddleware(tokener Tokener, resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.FromContext(ctx)

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				log.Infow("authorization failed", "error", err)
				response.Error(ctx, w, ErrUnauthorized)
				return
			}

			claims, err := tokener.VerifyAccess(ctx, tokenString)
			if err != nil {
				log.Infow("authorization failed", "error", err)
				response.Error(ctx, w, ErrUnauthorized)
				return
			}

			user, err := resolver.ResolveUser(ctx, claims.UserID)
			var apiErr *apierror.Error
			if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindInternal {
				log.Errorw("failed to resolve user", "user_id", claims.UserID, "error", err)
				response.Error(ctx, w, apiErr)
				return
			}
			if err != nil || user == nil {
				log.Infow("authorization failed", "user_id", claims.UserID, "error", err)
				response.Error(ctx, w, ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

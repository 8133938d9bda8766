package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/middlewares"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=logout.go -destination=logout_mock.go -package=handlers

// Logouter defines the interface that the logout service must implement.
type Logouter interface {
	Logout(ctx context.Context, userID uuid.UUID) error
}

// NewLogoutHandler returns an HTTP handler that ends the current session.
// @Summary User logout
// @Description Clears the stored refresh token and both auth cookies.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Success "User logged out"
// @Failure 401 {object} response.Failure "Unauthorized"
// @Router /users/logout [post]
func NewLogoutHandler(svc Logouter, cookies CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user := middlewares.UserFromContext(ctx)
		if user == nil {
			response.Error(ctx, w, middlewares.ErrUnauthorized)
			return
		}

		if err := svc.Logout(ctx, user.UserID); err != nil {
			response.Error(ctx, w, err)
			return
		}

		clearAuthCookies(w, cookies)
		response.JSON(w, http.StatusOK, struct{}{}, "User logged out successfully!")
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/middlewares"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=change_password.go -destination=change_password_mock.go -package=handlers

// PasswordChanger defines the interface that the service must implement.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

// ChangePasswordRequest represents the JSON body of a password change
// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	// required: true
	OldPassword string `json:"oldPassword"`
	// required: true
	NewPassword string `json:"newPassword"`
}

// NewChangePasswordHandler returns an HTTP handler for changing the current user's password.
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param changePasswordRequest body handlers.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} response.Success "Password changed"
// @Failure 400 {object} response.Failure "Invalid old password or missing new password"
// @Failure 401 {object} response.Failure "Unauthorized"
// @Failure 404 {object} response.Failure "User does not exist"
// @Router /users/change-password [patch]
func NewChangePasswordHandler(svc PasswordChanger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user := middlewares.UserFromContext(ctx)
		if user == nil {
			response.Error(ctx, w, middlewares.ErrUnauthorized)
			return
		}

		var req ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(ctx, w, errInvalidBody)
			return
		}

		if err := svc.ChangePassword(ctx, user.UserID, req.OldPassword, req.NewPassword); err != nil {
			response.Error(ctx, w, err)
			return
		}

		response.JSON(w, http.StatusOK, struct{}{}, "Password changed successfully!")
	}
}

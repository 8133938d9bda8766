package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/middlewares"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=update_account.go -destination=update_account_mock.go -package=handlers

// AccountUpdater defines the interface that the service must implement.
type AccountUpdater interface {
	UpdateAccount(ctx context.Context, userID uuid.UUID, in models.AccountUpdateInput) (*models.User, error)
}

// UpdateAccountRequest represents the JSON body of an account update
// swagger:model UpdateAccountRequest
type UpdateAccountRequest struct {
	// New full name
	// default: Alice B
	NewFullname *string `json:"newFullname,omitempty"`
	// New email
	// default: alice@y.com
	NewEmail *string `json:"newEmail,omitempty"`
}

// NewUpdateAccountHandler returns an HTTP handler that updates fullname and/or email.
// @Summary Update account details
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param updateAccountRequest body handlers.UpdateAccountRequest true "Fields to change"
// @Success 200 {object} handlers.UserResponse "Account updated"
// @Failure 400 {object} response.Failure "No field given or invalid email"
// @Failure 401 {object} response.Failure "Unauthorized"
// @Failure 409 {object} response.Failure "Email already in use"
// @Router /users/update-account [patch]
func NewUpdateAccountHandler(svc AccountUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user := middlewares.UserFromContext(ctx)
		if user == nil {
			response.Error(ctx, w, middlewares.ErrUnauthorized)
			return
		}

		var req UpdateAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(ctx, w, errInvalidBody)
			return
		}

		updated, err := svc.UpdateAccount(ctx, user.UserID, models.AccountUpdateInput{
			Fullname: req.NewFullname,
			Email:    req.NewEmail,
		})
		if err != nil {
			response.Error(ctx, w, err)
			return
		}

		response.JSON(w, http.StatusOK, updated, "Account details updated successfully!")
	}
}

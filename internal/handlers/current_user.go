package handlers

import (
	"net/http"

	"github.com/sbilibin2017/gw-user-account/internal/middlewares"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

// NewCurrentUserHandler returns the user resolved by the auth middleware.
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.UserResponse "Current user"
// @Failure 401 {object} response.Failure "Unauthorized"
// @Router /users/current-user [get]
func NewCurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.UserFromContext(r.Context())
		if user == nil {
			response.Error(r.Context(), w, middlewares.ErrUnauthorized)
			return
		}

		response.JSON(w, http.StatusOK, user, "Current user fetched successfully!")
	}
}

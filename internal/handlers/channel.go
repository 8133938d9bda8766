package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/middlewares"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=channel.go -destination=channel_mock.go -package=handlers

// ChannelProfiler defines the interface that the service must implement.
type ChannelProfiler interface {
	GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*models.ChannelProfile, error)
}

// ChannelResponse is the success envelope of a channel profile
// swagger:model ChannelResponse
type ChannelResponse struct {
	StatusCode int                    `json:"statusCode"`
	Data       *models.ChannelProfile `json:"data"`
	Message    string                 `json:"message"`
	Success    bool                   `json:"success"`
}

// NewChannelProfileHandler returns an HTTP handler for a user's public channel profile.
// @Summary Channel profile
// @Description Returns the profile of username with subscriber counters and whether the caller subscribes to it.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Channel username"
// @Success 200 {object} handlers.ChannelResponse "Channel profile"
// @Failure 400 {object} response.Failure "Username is missing"
// @Failure 401 {object} response.Failure "Unauthorized"
// @Failure 404 {object} response.Failure "Channel does not exist"
// @Router /users/channel/{username} [get]
func NewChannelProfileHandler(svc ChannelProfiler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		viewer := middlewares.UserFromContext(ctx)
		if viewer == nil {
			response.Error(ctx, w, middlewares.ErrUnauthorized)
			return
		}

		profile, err := svc.GetChannelProfile(ctx, chi.URLParam(r, "username"), viewer.UserID)
		if err != nil {
			response.Error(ctx, w, err)
			return
		}

		response.JSON(w, http.StatusOK, profile, "Channel profile fetched successfully!")
	}
}

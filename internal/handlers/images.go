package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/middlewares"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=images.go -destination=images_mock.go -package=handlers

// AvatarUpdater defines the interface that the avatar service must implement.
type AvatarUpdater interface {
	UpdateAvatar(ctx context.Context, userID uuid.UUID, file *models.LocalFile) (*models.User, error)
}

// CoverImageUpdater defines the interface that the cover image service must implement.
type CoverImageUpdater interface {
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, file *models.LocalFile) (*models.User, error)
}

type imageUpdateFunc func(ctx context.Context, userID uuid.UUID, file *models.LocalFile) (*models.User, error)

// NewUpdateAvatarHandler returns an HTTP handler that replaces the avatar.
// @Summary Update avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} handlers.UserResponse "Avatar updated"
// @Failure 400 {object} response.Failure "Missing file or upload failure"
// @Failure 401 {object} response.Failure "Unauthorized"
// @Router /users/avatar [patch]
func NewUpdateAvatarHandler(svc AvatarUpdater, uploads UploadOptions) http.HandlerFunc {
	return newImageHandler("avatar", svc.UpdateAvatar, uploads, "Avatar updated successfully!")
}

// NewUpdateCoverImageHandler returns an HTTP handler that replaces the cover image.
// @Summary Update cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} handlers.UserResponse "Cover image updated"
// @Failure 400 {object} response.Failure "Missing file or upload failure"
// @Failure 401 {object} response.Failure "Unauthorized"
// @Router /users/cover-image [patch]
func NewUpdateCoverImageHandler(svc CoverImageUpdater, uploads UploadOptions) http.HandlerFunc {
	return newImageHandler("coverImage", svc.UpdateCoverImage, uploads, "Cover image updated successfully!")
}

func newImageHandler(field string, update imageUpdateFunc, uploads UploadOptions, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user := middlewares.UserFromContext(ctx)
		if user == nil {
			response.Error(ctx, w, middlewares.ErrUnauthorized)
			return
		}

		if err := parseMultipart(w, r, uploads); err != nil {
			response.Error(ctx, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, err := saveFormFile(r, field, uploads)
		if err != nil {
			logger.FromContext(ctx).Errorw("failed to stage upload", "field", field, "error", err)
			response.Error(ctx, w, err)
			return
		}
		defer removeLocalFiles(r, file)

		updated, err := update(ctx, user.UserID, file)
		if err != nil {
			response.Error(ctx, w, err)
			return
		}

		response.JSON(w, http.StatusOK, updated, message)
	}
}

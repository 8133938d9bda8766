package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=register.go -destination=register_mock.go -package=handlers

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.User, error)
}

// UserResponse is the success envelope carrying a sanitized user
// swagger:model UserResponse
type UserResponse struct {
	// default: 200
	StatusCode int          `json:"statusCode"`
	Data       *models.User `json:"data"`
	Message    string       `json:"message"`
	// default: true
	Success bool `json:"success"`
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new user account from a multipart form. Username and email must be unique and lower-case. The avatar file is required.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param username formData string true "Username" default(alice)
// @Param email formData string true "Email" default(alice@x.com)
// @Param fullname formData string true "Full name" default(Alice A)
// @Param password formData string true "Password" default(Secret123!)
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} handlers.UserResponse "User registered"
// @Failure 400 {object} response.Failure "Invalid input or upload failure"
// @Failure 409 {object} response.Failure "Username or email already exists"
// @Failure 500 {object} response.Failure "Internal server error"
// @Router /users/register [post]
func NewRegisterHandler(svc Registerer, uploads UploadOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := parseMultipart(w, r, uploads); err != nil {
			response.Error(ctx, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		avatar, err := saveFormFile(r, "avatar", uploads)
		if err != nil {
			logger.FromContext(ctx).Errorw("failed to stage avatar", "error", err)
			response.Error(ctx, w, err)
			return
		}
		cover, err := saveFormFile(r, "coverImage", uploads)
		defer removeLocalFiles(r, avatar, cover)
		if err != nil {
			logger.FromContext(ctx).Errorw("failed to stage cover image", "error", err)
			response.Error(ctx, w, err)
			return
		}

		user, err := svc.Register(ctx, models.RegisterInput{
			Username:   r.FormValue("username"),
			Email:      r.FormValue("email"),
			Fullname:   r.FormValue("fullname"),
			Password:   r.FormValue("password"),
			Avatar:     avatar,
			CoverImage: cover,
		})
		if err != nil {
			response.Error(ctx, w, err)
			return
		}

		response.JSON(w, http.StatusCreated, user, "User registered successfully!")
	}
}

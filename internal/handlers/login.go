package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-user-account/internal/apierror"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=login.go -destination=login_mock.go -package=handlers

var errInvalidBody = apierror.Validation("Invalid request body.")

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, in models.LoginInput) (*models.LoginResult, error)
}

// LoginRequest represents the JSON body for user login
// swagger:model LoginRequest
type LoginRequest struct {
	// Username, either this or email is required
	// default: alice
	Username string `json:"username"`

	// Email, either this or username is required
	// default: alice@x.com
	Email string `json:"email"`

	// Password
	// required: true
	// default: Secret123!
	Password string `json:"password"`
}

// LoginResponse is the success envelope of a login
// swagger:model LoginResponse
type LoginResponse struct {
	StatusCode int                 `json:"statusCode"`
	Data       *models.LoginResult `json:"data"`
	Message    string              `json:"message"`
	Success    bool                `json:"success"`
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticates by username or email and password. Returns the user and a token pair and sets both as http-only cookies.
// @Tags users
// @Accept json
// @Produce json
// @Param loginRequest body handlers.LoginRequest true "Login Request"
// @Success 200 {object} handlers.LoginResponse "User logged in"
// @Failure 400 {object} response.Failure "Invalid request body or missing fields"
// @Failure 401 {object} response.Failure "Invalid user credentials"
// @Failure 404 {object} response.Failure "User does not exist"
// @Router /users/login [post]
func NewLoginHandler(svc Loginer, cookies CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(ctx, w, errInvalidBody)
			return
		}

		res, err := svc.Login(ctx, models.LoginInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			response.Error(ctx, w, err)
			return
		}

		setAuthCookies(w, cookies, &models.TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
		response.JSON(w, http.StatusOK, res, "User logged in successfully!")
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sbilibin2017/gw-user-account/internal/jwt"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

//go:generate mockgen -source=refresh.go -destination=refresh_mock.go -package=handlers

// maxRefreshBodyBytes caps a refresh body, which only ever carries a token.
const maxRefreshBodyBytes = 16 << 10

// Refresher defines the interface that the refresh service must implement.
type Refresher interface {
	Refresh(ctx context.Context, token string) (*models.TokenPair, error)
}

// RefreshRequest is the optional body of a refresh when no cookie is sent
// swagger:model RefreshRequest
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPairResponse is the success envelope of a refresh
// swagger:model TokenPairResponse
type TokenPairResponse struct {
	StatusCode int               `json:"statusCode"`
	Data       *models.TokenPair `json:"data"`
	Message    string            `json:"message"`
	Success    bool              `json:"success"`
}

// NewRefreshTokenHandler returns an HTTP handler that rotates the session tokens.
// @Summary Refresh access token
// @Description Exchanges the current refresh token (cookie, JSON or form field refreshToken) for a new pair. A used or revoked token is rejected.
// @Tags users
// @Accept json
// @Produce json
// @Param refreshRequest body handlers.RefreshRequest false "Refresh token when not sent as cookie"
// @Success 200 {object} handlers.TokenPairResponse "Access token refreshed"
// @Failure 400 {object} response.Failure "Refresh token is invalid, expired or used"
// @Router /users/refresh-token [post]
func NewRefreshTokenHandler(svc Refresher, cookies CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		pair, err := svc.Refresh(ctx, refreshTokenFromRequest(w, r))
		if err != nil {
			response.Error(ctx, w, err)
			return
		}

		setAuthCookies(w, cookies, pair)
		response.JSON(w, http.StatusOK, pair, "Access token refreshed!")
	}
}

// refreshTokenFromRequest reads the refresh token from the cookie, then a
// JSON body, then a form field. An oversized body yields no token.
func refreshTokenFromRequest(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(jwt.RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRefreshBodyBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			return req.RefreshToken
		}
		return ""
	}

	return r.FormValue("refreshToken")
}

package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/models"
)

// Cookie names shared by the token extractor and the HTTP layer.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

const (
	defaultAccessExp  = 15 * time.Minute
	defaultRefreshExp = 10 * 24 * time.Hour
)

// Token kinds stored in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims of both token kinds. Refresh tokens carry only UserID.
type Claims struct {
	Type     string    `json:"typ"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
	Fullname string    `json:"fullname,omitempty"`
	jwt.RegisteredClaims
}

// JWT mints and verifies access and refresh tokens. It is stateless: persisting
// the refresh token is the caller's job.
type JWT struct {
	accessSecret  []byte        // Secret for access tokens
	refreshSecret []byte        // Secret for refresh tokens
	accessExp     time.Duration // Access token lifetime
	refreshExp    time.Duration // Refresh token lifetime
	now           func() time.Time
}

// Option configures a JWT.
type Option func(*JWT)

func WithAccessSecret(secret string) Option {
	return func(j *JWT) { j.accessSecret = []byte(secret) }
}

func WithRefreshSecret(secret string) Option {
	return func(j *JWT) { j.refreshSecret = []byte(secret) }
}

func WithAccessExpiration(d time.Duration) Option {
	return func(j *JWT) { j.accessExp = d }
}

func WithRefreshExpiration(d time.Duration) Option {
	return func(j *JWT) { j.refreshExp = d }
}

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) { j.now = now }
}

// New creates a new JWT instance
func New(opts ...Option) *JWT {
	j := &JWT{
		accessSecret:  []byte("access_secret"),
		refreshSecret: []byte("refresh_secret"),
		accessExp:     defaultAccessExp,
		refreshExp:    defaultRefreshExp,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// AccessExpiration returns the access token lifetime.
func (j *JWT) AccessExpiration() time.Duration { return j.accessExp }

// RefreshExpiration returns the refresh token lifetime.
func (j *JWT) RefreshExpiration() time.Duration { return j.refreshExp }

// IssuePair creates an access token carrying the user's profile fields and a
// refresh token carrying only the user id.
func (j *JWT) IssuePair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	if user == nil || user.UserID == uuid.Nil {
		return nil, errors.New("user id is required")
	}

	access, err := j.sign(Claims{
		Type:     TypeAccess,
		UserID:   user.UserID,
		Username: user.Username,
		Email:    user.Email,
		Fullname: user.Fullname,
	}, j.accessSecret, j.accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := j.sign(Claims{Type: TypeRefresh, UserID: user.UserID}, j.refreshSecret, j.refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess checks signature and expiry of an access token.
func (j *JWT) VerifyAccess(ctx context.Context, tokenString string) (*Claims, error) {
	return j.parse(tokenString, TypeAccess, j.accessSecret)
}

// VerifyRefresh checks signature and expiry of a refresh token. Whether the
// token is still the one stored for the user is checked by the caller.
func (j *JWT) VerifyRefresh(ctx context.Context, tokenString string) (*Claims, error) {
	return j.parse(tokenString, TypeRefresh, j.refreshSecret)
}

// GetTokenFromRequest extracts the access token from the accessToken cookie,
// falling back to the Authorization header
func (j *JWT) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

func (j *JWT) sign(claims Claims, secret []byte, exp time.Duration) (string, error) {
	now := j.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(exp)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWT) parse(tokenString, kind string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Type != kind || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

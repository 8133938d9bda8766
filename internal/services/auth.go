package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/jwt"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/passwords"
	"github.com/sbilibin2017/gw-user-account/internal/repositories"
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.UserDB, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Create(ctx context.Context, user models.NewUser) (uuid.UUID, error)
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, presented, next string) (bool, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error
}

// PasswordVerifier compares a candidate password with a stored hash.
type PasswordVerifier interface {
	Compare(hash, candidate string) bool
}

// TokenIssuer mints token pairs and verifies refresh tokens.
type TokenIssuer interface {
	IssuePair(ctx context.Context, user *models.User) (*models.TokenPair, error)
	VerifyRefresh(ctx context.Context, token string) (*jwt.Claims, error)
}

// MediaUploader stores local files remotely and removes remote assets.
type MediaUploader interface {
	Upload(ctx context.Context, file models.LocalFile) (*models.Asset, error)
	Delete(ctx context.Context, url string) error
}

// AuthService handles registration and the session lifecycle.
type AuthService struct {
	reader      UserReader
	writer      UserWriter
	passwords   PasswordVerifier
	tokens      TokenIssuer
	media       MediaUploader
	kafkaWriter KafkaWriter
}

// NewAuthService creates a new AuthService instance. kafkaWriter may be nil.
func NewAuthService(
	reader UserReader,
	writer UserWriter,
	passwords PasswordVerifier,
	tokens TokenIssuer,
	media MediaUploader,
	kafkaWriter KafkaWriter,
) *AuthService {
	return &AuthService{
		reader:      reader,
		writer:      writer,
		passwords:   passwords,
		tokens:      tokens,
		media:       media,
		kafkaWriter: kafkaWriter,
	}
}

// Register validates the input, uploads the avatar and optional cover image
// and creates the user.
func (svc *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	log := logger.FromContext(ctx)

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	fullname := strings.TrimSpace(in.Fullname)
	if username == "" || email == "" || fullname == "" || strings.TrimSpace(in.Password) == "" {
		return nil, ErrAllFieldsRequired
	}
	if username != strings.ToLower(username) {
		return nil, ErrUsernameNotLowercase
	}
	if !validEmail(email) || email != strings.ToLower(email) {
		return nil, ErrInvalidEmail
	}
	if passwords.TooLong(in.Password) {
		return nil, ErrPasswordTooLong
	}

	existing, err := svc.reader.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		log.Errorw("failed to check user exists", "error", err)
		return nil, internalError(err)
	}
	if existing != nil {
		log.Infow("user already exists", "username", username, "email", email)
		return nil, ErrUserAlreadyExists
	}

	if in.Avatar == nil || in.Avatar.Path == "" {
		return nil, ErrAvatarRequired
	}
	avatar, err := svc.media.Upload(ctx, *in.Avatar)
	if err != nil || avatar == nil || avatar.URL == "" {
		log.Errorw("failed to upload avatar", "error", err)
		return nil, ErrAvatarRequired
	}

	var coverURL string
	if in.CoverImage != nil && in.CoverImage.Path != "" {
		cover, err := svc.media.Upload(ctx, *in.CoverImage)
		if err != nil || cover == nil || cover.URL == "" {
			log.Errorw("failed to upload cover image", "error", err)
			svc.discard(ctx, avatar.URL)
			return nil, ErrCoverImageUpload
		}
		coverURL = cover.URL
	}

	id, err := svc.writer.Create(ctx, models.NewUser{
		Username:      username,
		Email:         email,
		Fullname:      fullname,
		Password:      in.Password,
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		svc.discard(ctx, avatar.URL, coverURL)
		if errors.Is(err, repositories.ErrUniqueViolation) {
			log.Infow("user created concurrently", "username", username, "email", email)
			return nil, ErrUserAlreadyExists
		}
		log.Errorw("failed to create user", "error", err)
		return nil, internalError(err)
	}

	created, err := svc.reader.GetByID(ctx, id)
	if err != nil || created == nil {
		log.Errorw("created user not found", "user_id", id, "error", err)
		return nil, ErrUserNotCreated
	}

	publishEvent(ctx, svc.kafkaWriter, id, models.EventUserRegistered)
	return created.Sanitize(), nil
}

// Login verifies the credentials, issues a token pair and stores the refresh token.
func (svc *AuthService) Login(ctx context.Context, in models.LoginInput) (*models.LoginResult, error) {
	log := logger.FromContext(ctx)

	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" && email == "" {
		return nil, ErrIdentifierRequired
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}

	user, err := svc.reader.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		log.Errorw("failed to get user", "error", err)
		return nil, internalError(err)
	}
	if user == nil {
		log.Infow("user does not exist", "username", username, "email", email)
		return nil, ErrUserDoesNotExist
	}

	if !svc.passwords.Compare(user.PasswordHash, in.Password) {
		log.Infow("invalid credentials", "user_id", user.UserID)
		return nil, ErrInvalidCredentials
	}

	profile := user.Sanitize()
	pair, err := svc.issue(ctx, profile)
	if err != nil {
		return nil, err
	}

	if err := svc.writer.SetRefreshToken(ctx, user.UserID, &pair.RefreshToken); err != nil {
		log.Errorw("failed to store refresh token", "user_id", user.UserID, "error", err)
		return nil, internalError(err)
	}

	publishEvent(ctx, svc.kafkaWriter, user.UserID, models.EventUserLoggedIn)
	return &models.LoginResult{
		User:         profile,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout clears the stored refresh token of userID.
func (svc *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := svc.writer.SetRefreshToken(ctx, userID, nil); err != nil {
		logger.FromContext(ctx).Errorw("failed to clear refresh token", "user_id", userID, "error", err)
		return internalError(err)
	}

	publishEvent(ctx, svc.kafkaWriter, userID, models.EventUserLoggedOut)
	return nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// still be the stored one; it is swapped for the new token atomically so a
// token is accepted at most once.
func (svc *AuthService) Refresh(ctx context.Context, token string) (*models.TokenPair, error) {
	log := logger.FromContext(ctx)

	if token == "" {
		return nil, ErrInvalidRefreshToken
	}

	claims, err := svc.tokens.VerifyRefresh(ctx, token)
	if err != nil {
		log.Infow("refresh token rejected", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	user, err := svc.reader.GetByID(ctx, claims.UserID)
	if err != nil {
		log.Errorw("failed to get user", "user_id", claims.UserID, "error", err)
		return nil, internalError(err)
	}
	if user == nil {
		log.Infow("refresh token for unknown user", "user_id", claims.UserID)
		return nil, ErrInvalidRefreshToken
	}

	if user.RefreshToken == nil || *user.RefreshToken != token {
		return nil, svc.rejectReplay(ctx, user.UserID)
	}

	pair, err := svc.issue(ctx, user.Sanitize())
	if err != nil {
		return nil, err
	}

	rotated, err := svc.writer.RotateRefreshToken(ctx, user.UserID, token, pair.RefreshToken)
	if err != nil {
		log.Errorw("failed to rotate refresh token", "user_id", user.UserID, "error", err)
		return nil, internalError(err)
	}
	if !rotated {
		return nil, svc.rejectReplay(ctx, user.UserID)
	}

	publishEvent(ctx, svc.kafkaWriter, user.UserID, models.EventSessionRefreshed)
	return pair, nil
}

// ChangePassword replaces the password of userID after verifying the old one.
// The stored refresh token is left in place.
func (svc *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	log := logger.FromContext(ctx)

	if newPassword == "" {
		return ErrNewPasswordRequired
	}
	if passwords.TooLong(newPassword) {
		return ErrPasswordTooLong
	}

	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		log.Errorw("failed to get user", "user_id", userID, "error", err)
		return internalError(err)
	}
	if user == nil {
		return ErrUserDoesNotExist
	}

	if !svc.passwords.Compare(user.PasswordHash, oldPassword) {
		log.Infow("invalid old password", "user_id", userID)
		return ErrInvalidOldPassword
	}

	if err := svc.writer.UpdatePassword(ctx, userID, newPassword); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserDoesNotExist
		}
		log.Errorw("failed to update password", "user_id", userID, "error", err)
		return internalError(err)
	}

	publishEvent(ctx, svc.kafkaWriter, userID, models.EventPasswordChanged)
	return nil
}

func (svc *AuthService) issue(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	pair, err := svc.tokens.IssuePair(ctx, user)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to generate tokens", "user_id", user.UserID, "error", err)
		return nil, ErrTokenGeneration
	}
	return pair, nil
}

func (svc *AuthService) rejectReplay(ctx context.Context, userID uuid.UUID) error {
	logger.FromContext(ctx).Warnw("refresh token does not match stored token", "user_id", userID)
	publishEvent(ctx, svc.kafkaWriter, userID, models.EventSessionRefreshRejected)
	return ErrRefreshTokenReused
}

// discard removes assets uploaded for a registration that did not complete.
func (svc *AuthService) discard(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := svc.media.Delete(ctx, url); err != nil {
			logger.FromContext(ctx).Warnw("failed to delete orphaned media", "url", url, "error", err)
		}
	}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/apierror"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/repositories"
)

//go:generate mockgen -source=profile.go -destination=profile_mock.go -package=services

// ProfileReader defines read operations for profiles.
type ProfileReader interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error)
	GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*models.ChannelProfile, error)
}

// ProfileWriter applies partial profile updates.
type ProfileWriter interface {
	UpdateProfileFields(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.User, error)
}

// UserCache caches sanitized users.
type UserCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	Set(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// ProfileService handles profile reads and updates.
type ProfileService struct {
	reader      ProfileReader
	writer      ProfileWriter
	media       MediaUploader
	cache       UserCache
	kafkaWriter KafkaWriter
}

// NewProfileService creates a new ProfileService. cache and kafkaWriter may be nil.
func NewProfileService(
	reader ProfileReader,
	writer ProfileWriter,
	media MediaUploader,
	cache UserCache,
	kafkaWriter KafkaWriter,
) *ProfileService {
	return &ProfileService{
		reader:      reader,
		writer:      writer,
		media:       media,
		cache:       cache,
		kafkaWriter: kafkaWriter,
	}
}

// ResolveUser returns the sanitized user for userID, reading through the cache.
func (s *ProfileService) ResolveUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	log := logger.FromContext(ctx)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			log.Warnw("failed to read user cache", "user_id", userID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.reader.GetByID(ctx, userID)
	if err != nil {
		log.Errorw("failed to get user", "user_id", userID, "error", err)
		return nil, internalError(err)
	}
	if user == nil {
		return nil, ErrUserDoesNotExist
	}

	profile := user.Sanitize()
	if s.cache != nil {
		if err := s.cache.Set(ctx, profile); err != nil {
			log.Warnw("failed to fill user cache", "user_id", userID, "error", err)
		}
	}
	return profile, nil
}

// UpdateAccount changes the fullname and/or email of userID.
func (s *ProfileService) UpdateAccount(ctx context.Context, userID uuid.UUID, in models.AccountUpdateInput) (*models.User, error) {
	var upd models.ProfileUpdate

	if in.Fullname != nil {
		if fullname := strings.TrimSpace(*in.Fullname); fullname != "" {
			upd.Fullname = &fullname
		}
	}
	if in.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*in.Email)); email != "" {
			if !validEmail(email) {
				return nil, ErrInvalidEmail
			}
			upd.Email = &email
		}
	}
	if upd.Empty() {
		return nil, ErrNoAccountFields
	}

	user, err := s.update(ctx, userID, upd, ErrEmailTaken)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.kafkaWriter, userID, models.EventAccountUpdated)
	return user, nil
}

// UpdateAvatar replaces the avatar of userID.
func (s *ProfileService) UpdateAvatar(ctx context.Context, userID uuid.UUID, file *models.LocalFile) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, avatarImage)
}

// UpdateCoverImage replaces the cover image of userID.
func (s *ProfileService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, file *models.LocalFile) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, coverImage)
}

// GetChannelProfile returns the public profile of username as seen by viewerID.
func (s *ProfileService) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, ErrUsernameRequired
	}

	profile, err := s.reader.GetChannelProfile(ctx, username, viewerID)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to get channel profile", "username", username, "error", err)
		return nil, internalError(err)
	}
	if profile == nil {
		return nil, ErrChannelNotFound
	}
	return profile, nil
}

// imageSlot describes one of the user's replaceable images.
type imageSlot struct {
	name       string
	missing    *apierror.Error
	uploadFail *apierror.Error
	event      string
	current    func(*models.UserDB) string
	set        func(*models.ProfileUpdate, string)
}

var (
	avatarImage = imageSlot{
		name:       "avatar",
		missing:    ErrAvatarFileMissing,
		uploadFail: ErrAvatarUpload,
		event:      models.EventAvatarUpdated,
		current:    func(u *models.UserDB) string { return u.AvatarURL },
		set:        func(p *models.ProfileUpdate, url string) { p.AvatarURL = &url },
	}
	coverImage = imageSlot{
		name:       "cover image",
		missing:    ErrCoverImageFileMissing,
		uploadFail: ErrCoverImageUpdate,
		event:      models.EventCoverImageUpdated,
		current:    func(u *models.UserDB) string { return u.CoverImageURL },
		set:        func(p *models.ProfileUpdate, url string) { p.CoverImageURL = &url },
	}
)

// replaceImage uploads file, points the user record at it and only then
// deletes the previous asset. A failed delete is logged and not returned.
func (s *ProfileService) replaceImage(ctx context.Context, userID uuid.UUID, file *models.LocalFile, slot imageSlot) (*models.User, error) {
	log := logger.FromContext(ctx)

	if file == nil || file.Path == "" {
		return nil, slot.missing
	}

	current, err := s.reader.GetByID(ctx, userID)
	if err != nil {
		log.Errorw("failed to get user", "user_id", userID, "error", err)
		return nil, internalError(err)
	}
	if current == nil {
		return nil, ErrUserDoesNotExist
	}
	previous := slot.current(current)

	asset, err := s.media.Upload(ctx, *file)
	if err != nil || asset == nil || asset.URL == "" {
		log.Errorw("failed to upload "+slot.name, "user_id", userID, "error", err)
		return nil, slot.uploadFail
	}

	var upd models.ProfileUpdate
	slot.set(&upd, asset.URL)

	user, err := s.update(ctx, userID, upd, nil)
	if err != nil {
		if delErr := s.media.Delete(ctx, asset.URL); delErr != nil {
			log.Warnw("failed to delete unreferenced "+slot.name, "url", asset.URL, "error", delErr)
		}
		return nil, err
	}

	if previous != "" && previous != asset.URL {
		if err := s.media.Delete(ctx, previous); err != nil {
			log.Warnw("failed to delete previous "+slot.name, "user_id", userID, "url", previous, "error", err)
		}
	}

	publishEvent(ctx, s.kafkaWriter, userID, slot.event)
	return user, nil
}

// update applies upd, maps repository errors and evicts the cached user.
// conflict is returned on a unique violation; nil means a generic 500.
func (s *ProfileService) update(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate, conflict *apierror.Error) (*models.User, error) {
	log := logger.FromContext(ctx)

	user, err := s.writer.UpdateProfileFields(ctx, userID, upd)
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return nil, ErrUserDoesNotExist
	case errors.Is(err, repositories.ErrUniqueViolation) && conflict != nil:
		return nil, conflict
	case err != nil:
		log.Errorw("failed to update profile", "user_id", userID, "error", err)
		return nil, internalError(err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, userID); err != nil {
			log.Warnw("failed to evict user cache", "user_id", userID, "error", err)
		}
	}
	return user, nil
}

package services

import (
	"net/http"

	"github.com/sbilibin2017/gw-user-account/internal/apierror"
)

// Registration errors
var (
	ErrAllFieldsRequired    = apierror.Validation("All fields are required.")
	ErrUsernameNotLowercase = apierror.Validation("Username should be in lower-case.")
	ErrInvalidEmail         = apierror.Validation("Email is invalid.")
	ErrUserAlreadyExists    = apierror.Conflict("The username or email already exists.")
	ErrAvatarRequired       = apierror.Validation("Avatar is required.")
	ErrCoverImageUpload     = apierror.Validation("Cover image upload failed.")
	ErrUserNotCreated       = apierror.Internal("Internal server error.", nil)
)

// Session errors. The two refresh errors carry the same response so a client
// cannot tell a forged token from a replayed one.
var (
	ErrIdentifierRequired  = apierror.Validation("Username or email is required.")
	ErrPasswordRequired    = apierror.Validation("Password is required.")
	ErrUserDoesNotExist    = apierror.NotFound("User does not exist.")
	ErrInvalidCredentials  = apierror.Auth(http.StatusUnauthorized, "Invalid user credentials.")
	ErrTokenGeneration     = apierror.Internal("Something went wrong while generating tokens.", nil)
	ErrInvalidRefreshToken = apierror.Auth(http.StatusBadRequest, "Refresh token is invalid, expired or used.")
	ErrRefreshTokenReused  = apierror.Auth(http.StatusBadRequest, "Refresh token is invalid, expired or used.")
	ErrNewPasswordRequired = apierror.Validation("New password is required.")
	ErrPasswordTooLong     = apierror.Validation("Password must be at most 72 bytes.")
	ErrInvalidOldPassword  = apierror.Auth(http.StatusBadRequest, "Invalid old password.")
)

// Profile errors
var (
	ErrNoAccountFields       = apierror.Validation("At least one of fullname or email is required.")
	ErrEmailTaken            = apierror.Conflict("The email is already in use.")
	ErrAvatarFileMissing     = apierror.Validation("Avatar file is missing.")
	ErrAvatarUpload          = apierror.Validation("Error while uploading avatar.")
	ErrCoverImageFileMissing = apierror.Validation("Cover image file is missing.")
	ErrCoverImageUpdate      = apierror.Validation("Error while uploading cover image.")
	ErrUsernameRequired      = apierror.Validation("Username is missing.")
	ErrChannelNotFound       = apierror.NotFound("Channel does not exist.")
)

// internalError wraps err as a 500 without exposing it to the client.
func internalError(err error) error {
	return apierror.Internal("Internal server error.", err)
}

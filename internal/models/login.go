package models

// LoginInput identifies a user by username or email and carries the candidate password.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is returned on a successful login.
// swagger:model LoginResult
type LoginResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

package models

// TokenPair is an access/refresh token pair issued on login and refresh.
// swagger:model TokenPair
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

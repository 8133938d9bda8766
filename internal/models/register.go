package models

// RegisterInput is the validated-at-boundary input of a registration.
type RegisterInput struct {
	Username   string
	Email      string
	Fullname   string
	Password   string
	Avatar     *LocalFile // Required
	CoverImage *LocalFile // Optional
}

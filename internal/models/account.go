package models

// AccountUpdateInput carries the fields of an account update; nil means "not provided".
type AccountUpdateInput struct {
	Fullname *string
	Email    *string
}
